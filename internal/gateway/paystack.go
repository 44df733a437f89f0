package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

var (
	// ErrNotConfigured is returned when the client has no secret key.
	ErrNotConfigured = errors.New("gateway credentials not configured")

	// ErrUnavailable is returned when the gateway cannot be reached or
	// rejects the call at the transport level.
	ErrUnavailable = errors.New("gateway unavailable")
)

// InitializeRequest contains the parameters for creating a gateway
// transaction. Amounts are in the currency's minor unit (kobo).
type InitializeRequest struct {
	AmountKobo  int64
	Email       string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

// VerifyResult is the gateway's answer for a reference.
type VerifyResult struct {
	Success    bool
	AmountKobo int64
	Status     string
}

// Client is the interface to the external payment gateway.
type Client interface {
	// Initialize creates a gateway transaction and returns the URL the
	// payer should be redirected to.
	Initialize(ctx context.Context, req InitializeRequest) (string, error)

	// Verify reports the terminal state of the transaction identified by
	// reference. Verifying the same reference repeatedly yields the same
	// answer; the call has no side effects on the gateway.
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// PaystackClient talks to the Paystack transaction API.
type PaystackClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewPaystackClient creates a Paystack client. An empty secret key yields a
// client whose calls fail with ErrNotConfigured, so a misconfigured deploy
// degrades to cash-only instead of crashing.
func NewPaystackClient(baseURL, secretKey string) *PaystackClient {
	return &PaystackClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

var _ Client = (*PaystackClient)(nil)

type initializePayload struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string `json:"status"` // "success", "failed", "abandoned"
		Amount int64  `json:"amount"`
	} `json:"data"`
}

// Initialize creates a transaction and returns the authorization URL.
func (c *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (string, error) {
	if c.secretKey == "" {
		return "", ErrNotConfigured
	}

	payload := initializePayload{
		Email:       req.Email,
		Amount:      req.AmountKobo,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}

	var resp initializeResponse
	if err := c.post(ctx, "/transaction/initialize", payload, &resp); err != nil {
		return "", err
	}

	if !resp.Status || resp.Data.AuthorizationURL == "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, resp.Message)
	}

	return resp.Data.AuthorizationURL, nil
}

// Verify reports the state of the transaction identified by reference.
func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}

	var resp verifyResponse
	if err := c.get(ctx, "/transaction/verify/"+reference, &resp); err != nil {
		return nil, err
	}

	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Message)
	}

	return &VerifyResult{
		Success:    resp.Data.Status == "success",
		AmountKobo: resp.Data.Amount,
		Status:     resp.Data.Status,
	}, nil
}

func (c *PaystackClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *PaystackClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *PaystackClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	// Record the gateway round trip as an external segment when a New
	// Relic transaction is in flight.
	seg := newrelic.StartExternalSegment(newrelic.FromContext(req.Context()), req)
	resp, err := c.httpClient.Do(req)
	seg.Response = resp
	seg.End()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: gateway returned %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	return nil
}
