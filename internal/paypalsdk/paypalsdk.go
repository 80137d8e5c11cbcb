// Package paypalsdk builds the client-side inputs for the PayPal JS SDK and
// the PayPal Standard redirect form. Nothing here talks to the network.
package paypalsdk

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"storefront-checkout-demo/internal/money"
)

const (
	ScriptBaseURL     = "https://www.paypal.com/sdk/js"
	IntegrationSource = "custom-react"

	minClientIDLength = 20
	maxClientIDLength = 180
)

const (
	ReasonMissing       = "missing identifier"
	ReasonEmailOrURL    = "looks like an email or URL, not an identifier"
	ReasonLength        = "invalid length"
	ReasonCharacters    = "invalid characters"
	ReasonNotIdentifier = "not a real identifier"
)

var (
	emailOrURLPattern = regexp.MustCompile(`(?i)@|https?://`)
	clientIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type Validation struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// ValidateClientID checks a REST app client id. Rules are applied in order
// and the first failure is reported.
func ValidateClientID(raw string) Validation {
	s := strings.TrimSpace(raw)

	switch {
	case s == "":
		return Validation{Reason: ReasonMissing}
	case emailOrURLPattern.MatchString(s) || strings.ContainsFunc(s, unicode.IsSpace):
		return Validation{Reason: ReasonEmailOrURL}
	case utf8.RuneCountInString(s) < minClientIDLength || utf8.RuneCountInString(s) > maxClientIDLength:
		return Validation{Reason: ReasonLength}
	case !clientIDPattern.MatchString(s):
		return Validation{Reason: ReasonCharacters}
	case strings.EqualFold(s, "sb"):
		return Validation{Reason: ReasonNotIdentifier}
	}
	return Validation{OK: true}
}

type ScriptOptions struct {
	ClientID   string
	Currency   string
	Intent     string
	Components string
	Debug      bool
}

// BuildScriptURL returns the SDK <script> src for the given options.
func BuildScriptURL(opts ScriptOptions) string {
	params := url.Values{}
	params.Set("client-id", opts.ClientID)
	params.Set("currency", orDefault(opts.Currency, money.DefaultCurrency))
	params.Set("intent", orDefault(opts.Intent, "CAPTURE"))
	params.Set("components", orDefault(opts.Components, "buttons"))
	params.Set("enable-funding", "paypal")
	params.Set("data-sdk-integration-source", IntegrationSource)
	if opts.Debug {
		params.Set("debug", "true")
	}
	return ScriptBaseURL + "?" + params.Encode()
}

type StandardPayloadInput struct {
	Business  string
	Amount    decimal.Decimal
	Currency  string
	ItemName  string
	ReturnURL string
	CancelURL string
}

// BuildStandardPayload returns the hidden fields of a PayPal Standard
// "_xclick" buy-now form.
func BuildStandardPayload(in StandardPayloadInput) (map[string]string, error) {
	if !isHTTPURL(in.ReturnURL) {
		return nil, fmt.Errorf("return url must be http(s): %q", in.ReturnURL)
	}
	if !isHTTPURL(in.CancelURL) {
		return nil, fmt.Errorf("cancel url must be http(s): %q", in.CancelURL)
	}

	return map[string]string{
		"cmd":           "_xclick",
		"business":      strings.TrimSpace(in.Business),
		"currency_code": orDefault(in.Currency, money.DefaultCurrency),
		"amount":        money.FixedAmount(in.Amount),
		"item_name":     orDefault(in.ItemName, "Kovex Shop purchase"),
		"no_note":       "1",
		"bn":            "PP-BuyNowBF:btn_buynow_LG.gif:NonHostedGuest",
		"return":        in.ReturnURL,
		"cancel_return": in.CancelURL,
	}, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
