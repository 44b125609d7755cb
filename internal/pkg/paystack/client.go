package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dollarchain/creditrail/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.paystack.co"

// DefaultCurrency for mobile money charges (M-PESA).
const DefaultCurrency = "KES"

// ErrUpstream marks transient provider failures (network errors,
// timeouts, 5xx responses). Callers must treat it as retryable and
// never map it to "payment failed".
var ErrUpstream = errors.New("paystack upstream error")

// Client talks to the Paystack REST API with the server-side secret key.
type Client struct {
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClientFromEnv builds a Client from PAYSTACK_SECRET_KEY and an
// optional PAYSTACK_API_BASE_URL override (tests, sandboxes).
func NewClientFromEnv() *Client {
	return &Client{
		SecretKey: strings.TrimSpace(env.GetEnv("PAYSTACK_SECRET_KEY", "")),
		BaseURL:   strings.TrimRight(env.GetEnv("PAYSTACK_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// InitializeResult is the checkout handoff returned by transaction/initialize.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// ChargeResult carries the provider's display instructions for a
// mobile-money charge (STK push) plus the charge status.
type ChargeResult struct {
	Status      string `json:"status"`
	Reference   string `json:"reference"`
	DisplayText string `json:"display_text"`
}

// VerifyResult is the authoritative transaction state from
// transaction/verify. Status "success" is the only state that may
// trigger a credit.
type VerifyResult struct {
	Status      string `json:"status"`
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	RawJSON     string `json:"-"`
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeTransaction creates a hosted card checkout for the given
// reference. Amount is in minor currency units.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amountCents int64, reference, callbackURL string) (*InitializeResult, error) {
	body := map[string]interface{}{
		"email":     email,
		"amount":    amountCents,
		"reference": reference,
	}
	if callbackURL != "" {
		body["callback_url"] = callbackURL
	}

	data, err := c.post(ctx, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var res InitializeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("paystack initialize: decode response: %w", err)
	}
	if res.Reference == "" {
		res.Reference = reference
	}
	return &res, nil
}

// ChargeMobileMoney starts an M-PESA STK push for the given phone
// number (international 2547XXXXXXXX form).
func (c *Client) ChargeMobileMoney(ctx context.Context, email string, amountCents int64, phone, reference string) (*ChargeResult, error) {
	body := map[string]interface{}{
		"email":    email,
		"amount":   amountCents,
		"currency": DefaultCurrency,
		"mobile_money": map[string]string{
			"phone":    phone,
			"provider": "mpesa",
		},
		"reference": reference,
	}

	data, err := c.post(ctx, "/charge", body)
	if err != nil {
		return nil, err
	}

	var res ChargeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("paystack charge: decode response: %w", err)
	}
	if res.Reference == "" {
		res.Reference = reference
	}
	return &res, nil
}

// VerifyTransaction fetches the authoritative transaction status for a
// reference. Webhook payloads are never trusted without this cross-check.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, errors.New("reference is required")
	}

	endpoint := c.BaseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var res VerifyResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("paystack verify: decode response: %w", err)
	}
	res.RawJSON = string(data)
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("PAYSTACK_SECRET_KEY is not configured")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Timeouts and connection errors are retryable.
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("paystack: decode envelope (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !envelope.Status {
		return nil, fmt.Errorf("paystack: request rejected (status %d): %s", resp.StatusCode, envelope.Message)
	}
	return envelope.Data, nil
}
