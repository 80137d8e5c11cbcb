package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"storefront-checkout-demo/internal/config"
	"storefront-checkout-demo/internal/money"
)

// RelayClient opens hosted checkouts on the payment-gateway relay used by
// the deposit form.
type RelayClient interface {
	CreateCheckout(ctx context.Context, req RelayCheckoutRequest) (string, error)
}

type RelayCheckoutRequest struct {
	Amount   decimal.Decimal
	Currency string
	Order    string
}

// RelayError is any relay answer other than a success with a token. Body
// holds the raw response for the error page.
type RelayError struct {
	StatusCode int
	Body       string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay error %d: %s", e.StatusCode, e.Body)
}

var ErrRelayUnreachable = errors.New("payment relay unreachable")

type relayClientImpl struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	notifyURL  string
}

func NewRelayClient(cfg *config.Relay) RelayClient {
	return &relayClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiURL:    cfg.ApiURL,
		apiKey:    cfg.ApiKey,
		notifyURL: cfg.NotifyURL,
	}
}

// CreateCheckout returns the hosted checkout URL to redirect the buyer to.
func (c *relayClientImpl) CreateCheckout(ctx context.Context, in RelayCheckoutRequest) (string, error) {
	payload := struct {
		Amount    json.Number `json:"amount"`
		Currency  string      `json:"currency"`
		NotifyURL string      `json:"notifyUrl"`
		Order     string      `json:"order"`
	}{
		Amount:    json.Number(money.RoundCents(in.Amount).String()),
		Currency:  in.Currency,
		NotifyURL: c.notifyURL,
		Order:     in.Order,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRelayUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrRelayUnreachable, err)
	}

	var res struct {
		Status string `json:"status"`
		Token  string `json:"token"`
	}
	if resp.StatusCode != http.StatusOK || json.Unmarshal(raw, &res) != nil ||
		res.Status != "success" || res.Token == "" {
		return "", &RelayError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return res.Token, nil
}
