// Package cybersource is a minimal client for the CyberSource REST payment
// API: authorize, capture, refund, void, and public-key generation for
// client-side tokenization. Requests are authenticated with the HTTP
// signature scheme.
package cybersource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
)

const (
	liveHost = "api.cybersource.com"
	testHost = "apitest.cybersource.com"
)

// Client talks to the CyberSource REST API.
type Client struct {
	cfg        config.FlexConfig
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an API client for the configured mode.
func NewClient(cfg config.FlexConfig, mode string, opts ...Option) (*Client, error) {
	if cfg.MerchantID == "" {
		return nil, fmt.Errorf("cybersource: merchant id is required")
	}
	if cfg.KeySerialNumber == "" || cfg.KeySharedSecret == "" {
		return nil, fmt.Errorf("cybersource: key serial number and shared secret are required")
	}

	host := liveHost
	if mode == config.ModeTest {
		host = testHost
	}
	c := &Client{
		cfg:        cfg,
		baseURL:    "https://" + host,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreatePayment authorizes a payment, optionally capturing it in the same
// call.
func (c *Client) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*PaymentResponse, error) {
	return c.postPayment(ctx, "/pts/v2/payments", req)
}

// CapturePayment captures a previously authorized payment.
func (c *Client) CapturePayment(ctx context.Context, remoteID string, req *CaptureRequest) (*PaymentResponse, error) {
	return c.postPayment(ctx, "/pts/v2/payments/"+remoteID+"/captures", req)
}

// RefundPayment refunds a captured payment.
func (c *Client) RefundPayment(ctx context.Context, remoteID string, req *RefundRequest) (*PaymentResponse, error) {
	return c.postPayment(ctx, "/pts/v2/payments/"+remoteID+"/refunds", req)
}

// VoidPayment cancels an authorization that has not been captured.
func (c *Client) VoidPayment(ctx context.Context, remoteID string, req *VoidRequest) (*PaymentResponse, error) {
	return c.postPayment(ctx, "/pts/v2/payments/"+remoteID+"/voids", req)
}

// GenerateKey requests a one-time public key for client-side tokenization.
// Format selects the key encoding; the checkout library expects "JWT".
func (c *Client) GenerateKey(ctx context.Context, format string, req *GenerateKeyRequest) (*KeyResponse, error) {
	var out KeyResponse
	if err := c.post(ctx, "/flex/v1/keys?format="+format, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postPayment(ctx context.Context, path string, body any) (*PaymentResponse, error) {
	var out PaymentResponse
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("cybersource: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("cybersource: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.signRequest(req, payload); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cybersource: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cybersource: read response: %w", err)
	}

	// Declined authorizations come back as 4xx with the same response shape;
	// the caller decides from Status and ErrorInformation. Only responses
	// that do not parse into the expected shape surface as APIError.
	if resp.StatusCode >= 300 {
		var failed PaymentResponse
		if jsonErr := json.Unmarshal(raw, &failed); jsonErr == nil && failed.Status != "" {
			if pr, ok := out.(*PaymentResponse); ok {
				*pr = failed
				return nil
			}
		}
		apiErr := &APIError{HTTPStatus: resp.StatusCode, RawBody: raw}
		var detail struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		}
		if jsonErr := json.Unmarshal(raw, &detail); jsonErr == nil {
			apiErr.Reason = detail.Reason
			apiErr.Message = detail.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("cybersource: decode response: %w", err)
	}
	return nil
}
