package momo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"table-order-api/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.MomoConfig {
	return config.MomoConfig{
		PartnerCode: "MOMOTEST",
		AccessKey:   "access",
		SecretKey:   "secret",
		RequestType: "captureWallet",
		RedirectURL: "https://example.com/redirect",
		IpnURL:      "https://example.com/callback",
		OrderInfo:   "Thanh toan don hang",
		ExtraData:   "",
		AutoCapture: true,
		Lang:        "vi",
	}
}

// signedCallback builds a callback payload whose signature the client would
// itself compute over the alphabetically sorted fields.
func signedCallback(t *testing.T, c *Client, fields map[string]any) []byte {
	t.Helper()
	raw := "amount=" + formatValue(fields["amount"]) +
		"&message=" + formatValue(fields["message"]) +
		"&orderId=" + formatValue(fields["orderId"]) +
		"&requestId=" + formatValue(fields["requestId"]) +
		"&resultCode=" + formatValue(fields["resultCode"]) +
		"&transId=" + formatValue(fields["transId"])
	fields["signature"] = c.Sign(raw)
	body, err := json.Marshal(fields)
	require.NoError(t, err)
	return body
}

func TestVerifyCallbackAcceptsValidSignature(t *testing.T) {
	c := NewClient(testConfig())
	body := signedCallback(t, c, map[string]any{
		"orderId":    "o-1",
		"requestId":  "o-1",
		"amount":     float64(100000),
		"resultCode": float64(0),
		"transId":    float64(123456),
		"message":    "Success",
	})

	p, err := ParseCallback(body)
	require.NoError(t, err)
	assert.NoError(t, c.VerifyCallback(p))
	assert.Equal(t, "o-1", p.OrderID)
	assert.Equal(t, int64(100000), p.Amount)
	assert.Equal(t, 0, p.ResultCode)
	assert.Equal(t, "123456", p.TransID)
}

func TestVerifyCallbackRejectsTampering(t *testing.T) {
	c := NewClient(testConfig())
	body := signedCallback(t, c, map[string]any{
		"orderId":    "o-1",
		"requestId":  "o-1",
		"amount":     float64(100000),
		"resultCode": float64(0),
		"transId":    float64(123456),
		"message":    "Success",
	})
	p, err := ParseCallback(body)
	require.NoError(t, err)

	// Flip the amount after signing
	p.Fields["amount"] = float64(1)
	assert.ErrorIs(t, c.VerifyCallback(p), ErrInvalidSignature)
}

func TestVerifyCallbackRejectsMissingSignature(t *testing.T) {
	c := NewClient(testConfig())
	p, err := ParseCallback([]byte(`{"orderId":"o-1","resultCode":0}`))
	require.NoError(t, err)
	assert.ErrorIs(t, c.VerifyCallback(p), ErrInvalidSignature)
}

func TestVerifyCallbackRejectsWrongSecret(t *testing.T) {
	signer := NewClient(testConfig())
	body := signedCallback(t, signer, map[string]any{
		"orderId":    "o-1",
		"requestId":  "o-1",
		"amount":     float64(50000),
		"resultCode": float64(0),
		"transId":    "T9",
		"message":    "Success",
	})

	other := testConfig()
	other.SecretKey = "different"
	p, err := ParseCallback(body)
	require.NoError(t, err)
	assert.ErrorIs(t, NewClient(other).VerifyCallback(p), ErrInvalidSignature)
}

func TestCreatePaymentSignsAndPosts(t *testing.T) {
	cfg := testConfig()
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, createPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(CreateResponse{
			OrderID:    received["orderId"].(string),
			RequestID:  received["requestId"].(string),
			ResultCode: 0,
			Message:    "Success",
			PayURL:     "https://test-payment.momo.vn/pay/abc",
		})
	}))
	defer srv.Close()
	cfg.Endpoint = srv.URL
	c := NewClient(cfg)

	resp, err := c.CreatePayment("order-1", "order-1", 100000)
	require.NoError(t, err)
	assert.Equal(t, "https://test-payment.momo.vn/pay/abc", resp.PayURL)
	assert.Equal(t, 0, resp.ResultCode)

	// The request carried the gateway-contract signature over the fixed
	// field order
	expectedRaw := "accessKey=access&amount=100000&extraData=&ipnUrl=" + cfg.IpnURL +
		"&orderId=order-1&orderInfo=" + cfg.OrderInfo +
		"&partnerCode=MOMOTEST&redirectUrl=" + cfg.RedirectURL +
		"&requestId=order-1&requestType=captureWallet"
	assert.Equal(t, c.Sign(expectedRaw), received["signature"])
	assert.Equal(t, float64(100000), received["amount"])
}

func TestQueryPaymentSignsAndPosts(t *testing.T) {
	cfg := testConfig()
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, queryPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(QueryResponse{OrderID: "order-1", ResultCode: 0, Message: "Success"})
	}))
	defer srv.Close()
	cfg.Endpoint = srv.URL
	c := NewClient(cfg)

	resp, err := c.QueryPayment("order-1", "req-1")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ResultCode)

	expectedRaw := "accessKey=access&orderId=order-1&partnerCode=MOMOTEST&requestId=req-1"
	assert.Equal(t, c.Sign(expectedRaw), received["signature"])
}

func TestCreatePaymentPropagatesGatewayErrors(t *testing.T) {
	cfg := testConfig()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	cfg.Endpoint = srv.URL

	_, err := NewClient(cfg).CreatePayment("order-1", "order-1", 1000)
	assert.Error(t, err)
}
