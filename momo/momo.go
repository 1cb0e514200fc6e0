// Package momo talks to the MoMo wallet gateway: signed create/query
// requests out, verified IPN callbacks in.
package momo

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"table-order-api/config"
)

// ErrInvalidSignature means a callback payload failed HMAC verification and
// must be rejected outright.
var ErrInvalidSignature = errors.New("invalid gateway signature")

const (
	createPath = "/v2/gateway/api/create"
	queryPath  = "/v2/gateway/api/query"
)

type Client struct {
	cfg  config.MomoConfig
	http *http.Client
}

func NewClient(cfg config.MomoConfig) *Client {
	return &Client{cfg: cfg, http: http.DefaultClient}
}

// CreateResponse is the gateway's answer to a create-payment request,
// returned verbatim to the caller.
type CreateResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	ResponseTime int64  `json:"responseTime"`
	Message      string `json:"message"`
	ResultCode   int    `json:"resultCode"`
	PayURL       string `json:"payUrl"`
	Deeplink     string `json:"deeplink"`
	QrCodeURL    string `json:"qrCodeUrl"`
}

// CreatePayment builds the signed create request and posts it to the
// gateway. The raw string follows the gateway contract's fixed field order.
func (c *Client) CreatePayment(orderID, requestID string, amount int64) (*CreateResponse, error) {
	raw := "accessKey=" + c.cfg.AccessKey +
		"&amount=" + strconv.FormatInt(amount, 10) +
		"&extraData=" + c.cfg.ExtraData +
		"&ipnUrl=" + c.cfg.IpnURL +
		"&orderId=" + orderID +
		"&orderInfo=" + c.cfg.OrderInfo +
		"&partnerCode=" + c.cfg.PartnerCode +
		"&redirectUrl=" + c.cfg.RedirectURL +
		"&requestId=" + requestID +
		"&requestType=" + c.cfg.RequestType

	body := map[string]any{
		"partnerCode": c.cfg.PartnerCode,
		"accessKey":   c.cfg.AccessKey,
		"requestId":   requestID,
		"amount":      amount,
		"orderId":     orderID,
		"orderInfo":   c.cfg.OrderInfo,
		"redirectUrl": c.cfg.RedirectURL,
		"ipnUrl":      c.cfg.IpnURL,
		"extraData":   c.cfg.ExtraData,
		"requestType": c.cfg.RequestType,
		"autoCapture": c.cfg.AutoCapture,
		"lang":        c.cfg.Lang,
		"signature":   c.Sign(raw),
	}

	var resp CreateResponse
	if err := c.post(createPath, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryResponse is the gateway's answer to an out-of-band status query.
type QueryResponse struct {
	PartnerCode string `json:"partnerCode"`
	OrderID     string `json:"orderId"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	TransID     int64  `json:"transId"`
	ResultCode  int    `json:"resultCode"`
	Message     string `json:"message"`
	PayType     string `json:"payType"`
}

// QueryPayment asks the gateway for the current state of a payment.
func (c *Client) QueryPayment(orderID, requestID string) (*QueryResponse, error) {
	raw := "accessKey=" + c.cfg.AccessKey +
		"&orderId=" + orderID +
		"&partnerCode=" + c.cfg.PartnerCode +
		"&requestId=" + requestID

	body := map[string]any{
		"partnerCode": c.cfg.PartnerCode,
		"accessKey":   c.cfg.AccessKey,
		"requestId":   requestID,
		"orderId":     orderID,
		"lang":        c.cfg.Lang,
		"signature":   c.Sign(raw),
	}

	var resp QueryResponse
	if err := c.post(queryPath, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CallbackPayload is the typed envelope for an inbound IPN callback: the
// fields the reconciliation logic needs, plus every field the gateway sent
// kept in Fields for signature verification.
type CallbackPayload struct {
	OrderID    string
	RequestID  string
	Amount     int64
	ResultCode int
	TransID    string
	Message    string
	Signature  string
	Fields     map[string]any // all fields as received, signature included
}

func ParseCallback(body []byte) (*CallbackPayload, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("malformed callback body: %w", err)
	}
	p := &CallbackPayload{Fields: fields}
	p.OrderID, _ = fields["orderId"].(string)
	p.RequestID, _ = fields["requestId"].(string)
	p.Message, _ = fields["message"].(string)
	p.Signature, _ = fields["signature"].(string)
	if v, ok := fields["amount"].(float64); ok {
		p.Amount = int64(v)
	}
	if v, ok := fields["resultCode"].(float64); ok {
		p.ResultCode = int(v)
	}
	switch v := fields["transId"].(type) {
	case string:
		p.TransID = v
	case float64:
		p.TransID = strconv.FormatInt(int64(v), 10)
	}
	return p, nil
}

// VerifyCallback recomputes the callback signature over every field except
// "signature", sorted alphabetically and joined as key=value pairs, and
// compares it in constant time. Any mismatch rejects the whole payload.
func (c *Client) VerifyCallback(p *CallbackPayload) error {
	if p.Signature == "" {
		return ErrInvalidSignature
	}
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		if k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(formatValue(p.Fields[k]))
	}
	expected := c.Sign(sb.String())
	if subtle.ConstantTimeCompare([]byte(expected), []byte(p.Signature)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// Sign HMAC-SHA256-signs a canonical raw string with the shared secret.
func (c *Client) Sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// formatValue renders a decoded JSON scalar the way the gateway renders it
// in its own canonical string: integers without a decimal point.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func (c *Client) post(path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.cfg.Endpoint+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed gateway response: %w", err)
	}
	return nil
}
