package dto

import (
	"storefront-checkout-demo/internal/model"
	"storefront-checkout-demo/internal/paypalsdk"
	"storefront-checkout-demo/internal/service"
)

type ProductListResponse struct {
	Products   []model.Product `json:"products"`
	Categories []string        `json:"categories"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id"`
}

type ChangeQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type NavigateRequest struct {
	View service.View `json:"view"`
}

type ApproveRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ViewResponse is the session snapshot the client renders. PaymentError is
// set when the last payment attempt ended on the cancelled view.
type ViewResponse struct {
	service.Snapshot
	PaymentError string `json:"payment_error,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type ClientIDRequest struct {
	ClientID string `json:"client_id"`
}

type ClientIDResponse struct {
	ClientID   string               `json:"client_id"`
	Validation paypalsdk.Validation `json:"validation"`
}

type ScriptURLResponse struct {
	URL string `json:"url"`
}

type StandardPayloadResponse struct {
	Action string            `json:"action"`
	Fields map[string]string `json:"fields"`
}

type DepositForm struct {
	Amount    string `form:"amount"`
	Currency  string `form:"currency"`
	FullName  string `form:"fullName"`
	Email     string `form:"email"`
	AccountID string `form:"accountId"`
}

type RelayErrorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
}
