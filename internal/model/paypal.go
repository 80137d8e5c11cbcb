package model

// Order statuses and intent used by the v2 checkout orders API.
const (
	OrderStatusCreated   = "CREATED"
	OrderStatusCompleted = "COMPLETED"

	IntentCapture = "CAPTURE"
)

type PaypalLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type Capture struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Amount *Amount `json:"amount,omitempty"`
}

type Payments struct {
	Captures []Capture `json:"captures"`
}

type PurchaseUnit struct {
	ReferenceID string    `json:"reference_id,omitempty"`
	Amount      *Amount   `json:"amount,omitempty"`
	Payments    *Payments `json:"payments,omitempty"`
}

type PayerName struct {
	GivenName string `json:"given_name"`
	Surname   string `json:"surname"`
}

type Payer struct {
	PayerID string     `json:"payer_id,omitempty"`
	Name    *PayerName `json:"name,omitempty"`
	Email   string     `json:"email_address,omitempty"`
}

// Order is the REST shape shared by order creation and capture responses.
// Fields are optional on the wire; service.NormalizeCapture fills the gaps.
type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Intent        string         `json:"intent,omitempty"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
	Payer         *Payer         `json:"payer,omitempty"`
	Links         []PaypalLink   `json:"links,omitempty"`
}

// UnitAmount returns the amount of the first purchase unit, if any.
func (o *Order) UnitAmount() *Amount {
	if o == nil || len(o.PurchaseUnits) == 0 {
		return nil
	}
	return o.PurchaseUnits[0].Amount
}

// FirstCapture returns purchase_units[0].payments.captures[0], if present.
func (o *Order) FirstCapture() *Capture {
	if o == nil || len(o.PurchaseUnits) == 0 {
		return nil
	}
	payments := o.PurchaseUnits[0].Payments
	if payments == nil || len(payments.Captures) == 0 {
		return nil
	}
	return &payments.Captures[0]
}

func (o *Order) ApproveURL() string {
	for _, link := range o.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return link.Href
		}
	}
	return ""
}
