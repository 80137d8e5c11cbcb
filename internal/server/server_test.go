package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-checkout-demo/internal/catalog"
	"storefront-checkout-demo/internal/client"
	"storefront-checkout-demo/internal/config"
	"storefront-checkout-demo/internal/handler"
	"storefront-checkout-demo/internal/logger"
	"storefront-checkout-demo/internal/metrics"
	"storefront-checkout-demo/internal/repository"
	"storefront-checkout-demo/internal/service"
)

const testClientID = "AZabcdefghijklmnopqrstuvwxyz0123456789_-"

type stubRelay struct {
	url string
	err error
}

func (r *stubRelay) CreateCheckout(context.Context, client.RelayCheckoutRequest) (string, error) {
	return r.url, r.err
}

type testServer struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
	relay  *stubRelay
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	repo := repository.NewMemoryRepository()
	cat := catalog.New()

	cfg := config.Config{
		Paypal: config.Paypal{
			Business:    "seller@example.com",
			StandardURL: "https://www.sandbox.paypal.com/cgi-bin/webscr",
			ReturnURL:   "http://localhost:8080/api/checkout/return",
			CancelURL:   "http://localhost:8080/api/checkout/return?cancel=1",
		},
		Checkout: config.Checkout{Currency: "MXN", MerchantName: "Kovex Shop"},
	}

	sessions := service.NewSessionManager(repo, service.NewSimulator(logrus.NewEntry(log)), service.CheckoutOptions{
		Currency:     cfg.Checkout.Currency,
		MerchantName: cfg.Checkout.MerchantName,
	}, service.SessionOptions{}, log, rec)
	settings := service.NewSettingsService(repo, cfg.Checkout.Currency, log)
	relay := &stubRelay{url: "https://pay.example/c/1"}

	srv := NewServer(log, reg, Handlers{
		Catalog:    handler.NewCatalogHandler(cat),
		Storefront: handler.NewStorefrontHandler(sessions, cat),
		Paypal:     handler.NewPaypalHandler(settings, sessions, cfg.Paypal, cfg.Checkout),
		Deposit:    handler.NewDepositHandler(service.NewDepositService(relay, log)),
	})
	return &testServer{t: t, srv: srv, relay: relay}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
	}

	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			ts.cookie = c
		}
	}
	return rec
}

func (ts *testServer) view(rec *httptest.ResponseRecorder) map[string]any {
	ts.t.Helper()
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Products(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/products?category=Audio&sort=asc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Products []struct {
			ID    string `json:"id"`
			Price string `json:"price"`
		} `json:"products"`
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 4)
	assert.Equal(t, "p-304", resp.Products[0].ID)
	assert.Equal(t, "Todo", resp.Categories[0])

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/products/p-101", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/products/nope", "").Code)
}

func TestServer_CartAndDirectCheckout(t *testing.T) {
	ts := newTestServer(t)

	v := ts.view(ts.do(http.MethodPost, "/api/cart/items", `{"product_id":"p-403"}`))
	require.NotNil(t, ts.cookie, "session cookie issued")
	assert.Equal(t, "home", v["view"])

	ts.do(http.MethodPost, "/api/cart/items", `{"product_id":"p-403"}`)
	ts.do(http.MethodPost, "/api/cart/items", `{"product_id":"p-502"}`)
	v = ts.view(ts.do(http.MethodPatch, "/api/cart/items/p-502", `{"quantity":0}`))

	lines := v["lines"].([]any)
	require.Len(t, lines, 2)
	assert.Equal(t, 2.0, lines[0].(map[string]any)["quantity"])
	assert.Equal(t, 1.0, lines[1].(map[string]any)["quantity"])
	totals := v["totals"].(map[string]any)
	assert.Equal(t, 3.0, totals["total_quantity"])
	assert.Equal(t, "1097", totals["total_amount"])

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/api/cart/items", `{"product_id":"missing"}`).Code)

	ts.view(ts.do(http.MethodPost, "/api/checkout/proceed", ""))
	v = ts.view(ts.do(http.MethodPost, "/api/checkout/pay", ""))

	assert.Equal(t, "success", v["view"])
	assert.Empty(t, v["lines"])
	last := v["last_payment"].(map[string]any)
	assert.Equal(t, "COMPLETED", last["status"])
	assert.Equal(t, map[string]any{"currency_code": "MXN", "value": "1097.00"}, last["amount"])

	v = ts.view(ts.do(http.MethodPost, "/api/checkout/continue", ""))
	assert.Equal(t, "home", v["view"])
	assert.NotNil(t, v["last_payment"])
}

func TestServer_Conflicts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/checkout/pay", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/api/view", `{"view":"success"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	ts.view(ts.do(http.MethodPost, "/api/view", `{"view":"checkout"}`))
	rec = ts.do(http.MethodPost, "/api/checkout/redirect", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart is empty")
}

func TestServer_ProviderRedirectFlow(t *testing.T) {
	ts := newTestServer(t)

	ts.do(http.MethodPost, "/api/cart/items", `{"product_id":"p-101"}`)
	ts.view(ts.do(http.MethodPost, "/api/checkout/proceed", ""))
	v := ts.view(ts.do(http.MethodPost, "/api/checkout/redirect", ""))
	assert.Equal(t, "providerRedirect", v["view"])

	// the pending amount is fixed until the buyer approves or cancels
	rec := ts.do(http.MethodPost, "/api/cart/items", `{"product_id":"p-102"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodDelete, "/api/cart", "").Code)

	rec = ts.do(http.MethodGet, "/api/checkout/provider", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var screen map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &screen))
	assert.Equal(t, "Kovex Shop", screen["merchant_name"])
	assert.Equal(t, "18999", screen["amount"])

	v = ts.view(ts.do(http.MethodPost, "/api/checkout/approve", `{"name":"Luis","email":"luis@example.com"}`))
	assert.Equal(t, "success", v["view"])
	last := v["last_payment"].(map[string]any)
	assert.Equal(t, "Luis", last["payer_name"])
	assert.Equal(t, "luis@example.com", last["payer_email"])
}

func TestServer_ProviderRedirectCancel(t *testing.T) {
	ts := newTestServer(t)

	ts.do(http.MethodPost, "/api/cart/items", `{"product_id":"p-101"}`)
	ts.do(http.MethodPost, "/api/checkout/proceed", "")
	ts.do(http.MethodPost, "/api/checkout/redirect", "")

	rec := ts.do(http.MethodGet, "/api/checkout/return?cancel=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Payment cancelled")

	v := ts.view(ts.do(http.MethodGet, "/api/view", ""))
	assert.Equal(t, "cancelled", v["view"])
	assert.Len(t, v["lines"], 1)

	v = ts.view(ts.do(http.MethodPost, "/api/checkout/return-to-store", ""))
	assert.Equal(t, "home", v["view"])
}

func TestServer_PaypalSettings(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/paypal/sdk-url", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(http.MethodPut, "/api/paypal/client-id", `{"client_id":"sb"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"client_id"`)

	rec = ts.do(http.MethodPost, "/api/paypal/client-id/validate", `{"client_id":"https://example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":false,"reason":"looks like an email or URL, not an identifier"}`, rec.Body.String())

	rec = ts.do(http.MethodPut, "/api/paypal/client-id", `{"client_id":"`+testClientID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/paypal/sdk-url?debug=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	u, err := url.Parse(resp.URL)
	require.NoError(t, err)
	assert.Equal(t, testClientID, u.Query().Get("client-id"))
	assert.Equal(t, "true", u.Query().Get("debug"))
}

func TestServer_StandardPayload(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusConflict, ts.do(http.MethodGet, "/api/paypal/standard-payload", "").Code)

	ts.do(http.MethodPost, "/api/cart/items", `{"product_id":"p-403"}`)
	rec := ts.do(http.MethodGet, "/api/paypal/standard-payload", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Action string            `json:"action"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://www.sandbox.paypal.com/cgi-bin/webscr", resp.Action)
	assert.Equal(t, "_xclick", resp.Fields["cmd"])
	assert.Equal(t, "299.00", resp.Fields["amount"])
	assert.Equal(t, "seller@example.com", resp.Fields["business"])
}

func postForm(ts *testServer, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func TestServer_Deposits(t *testing.T) {
	ts := newTestServer(t)
	form := url.Values{
		"amount":    {"25"},
		"currency":  {"USD"},
		"fullName":  {"Ana"},
		"email":     {"ana@example.com"},
		"accountId": {"KVX-1"},
	}

	rec := postForm(ts, "/api/deposits", form)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://pay.example/c/1", rec.Header().Get("Location"))

	form.Set("amount", "5")
	rec = postForm(ts, "/api/deposits", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "minimum deposit is 10")

	form.Set("amount", "abc")
	rec = postForm(ts, "/api/deposits", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be greater than 0")

	form.Set("amount", "50")
	ts.relay.err = &client.RelayError{StatusCode: 401, Body: `{"status":"error","message":"bad key"}`}
	rec = postForm(ts, "/api/deposits", form)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad key")
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodPost, "/api/cart/items", `{"product_id":"p-403"}`)

	rec := ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_cart_mutations_total{op="add"} 1`)
}
