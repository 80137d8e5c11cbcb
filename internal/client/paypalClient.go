package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/config"
	"storefront-checkout-demo/internal/model"
	"storefront-checkout-demo/internal/money"
)

// PaypalClient talks to the v2 checkout orders REST API. It can be used as
// the checkout's payment provider.
type PaypalClient interface {
	Name() string
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*model.Order, error)
	CaptureOrder(ctx context.Context, order *model.Order) (*model.Order, error)
}

type paypalClientImpl struct {
	httpClient         *http.Client
	baseApiURL         string
	paypalClientID     string
	paypalClientSecret string
	returnURL          string
	cancelURL          string
	log                *logrus.Entry
}

func NewPaypalClient(paypalCfg *config.Paypal, log *logrus.Logger) PaypalClient {
	return &paypalClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:         strings.TrimRight(paypalCfg.BaseApiURL, "/"),
		paypalClientID:     paypalCfg.ClientID,
		paypalClientSecret: paypalCfg.ClientSecret,
		returnURL:          paypalCfg.ReturnURL,
		cancelURL:          paypalCfg.CancelURL,
		log:                log.WithField("component", "paypal"),
	}
}

func (c *paypalClientImpl) Name() string {
	return "paypal"
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	auth := base64.StdEncoding.EncodeToString(
		[]byte(c.paypalClientID + ":" + c.paypalClientSecret),
	)

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/v1/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("paypal oauth error %d: %s", resp.StatusCode, string(b))
	}

	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode oauth response: %w", err)
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("paypal oauth returned no access token")
	}

	return res.AccessToken, nil
}

func (c *paypalClientImpl) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*model.Order, error) {
	if currency == "" {
		currency = money.DefaultCurrency
	}

	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get paypal access token: %w", err)
	}

	payload := map[string]interface{}{
		"intent": model.IntentCapture,
		"purchase_units": []model.PurchaseUnit{
			{Amount: &model.Amount{CurrencyCode: currency, Value: money.FixedAmount(amount)}},
		},
		"application_context": map[string]string{
			"return_url": c.returnURL,
			"cancel_url": c.cancelURL,
		},
	}

	var order model.Order
	if err := c.do(ctx, accessToken, c.baseApiURL+"/v2/checkout/orders", payload, &order); err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}

	// the create response omits purchase units unless Prefer: return=representation
	if order.UnitAmount() == nil {
		order.PurchaseUnits = []model.PurchaseUnit{
			{Amount: &model.Amount{CurrencyCode: currency, Value: money.FixedAmount(amount)}},
		}
	}

	c.log.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"status":      order.Status,
		"approve_url": order.ApproveURL(),
	}).Info("paypal order created")

	return &order, nil
}

func (c *paypalClientImpl) CaptureOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order == nil || order.ID == "" {
		return nil, fmt.Errorf("capture paypal order: missing order id")
	}

	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get paypal access token: %w", err)
	}

	url := fmt.Sprintf(
		"%s/v2/checkout/orders/%s/capture",
		c.baseApiURL,
		order.ID,
	)

	var details model.Order
	if err := c.do(ctx, accessToken, url, nil, &details); err != nil {
		return nil, fmt.Errorf("capture paypal order %s: %w", order.ID, err)
	}

	c.log.WithFields(logrus.Fields{
		"order_id": details.ID,
		"status":   details.Status,
	}).Info("paypal order captured")

	return &details, nil
}

// do POSTs payload (or an empty body) and decodes a 2xx JSON response into out.
func (c *paypalClientImpl) do(ctx context.Context, accessToken, url string, payload any, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("paypal error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode paypal response: %w", err)
	}
	return nil
}
