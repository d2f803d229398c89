package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Gateway errors
var (
	ErrGatewayUnavailable = errors.New("paystack unavailable")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrReferenceNotFound  = errors.New("transaction reference not found")
	ErrInitializeFailed   = errors.New("transaction initialization rejected")
)

// Charge statuses reported by the gateway
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
	StatusPending   = "pending"
)

// DefaultBaseURL is the production Paystack API base URL
const DefaultBaseURL = "https://api.paystack.co"

// Metadata is the vote intent attached to a transaction at initialization
// and echoed back by the gateway on verification.
type Metadata struct {
	UserID     uint `json:"user_id"`
	CategoryID uint `json:"category_id"`
	NomineeID  uint `json:"nominee_id"`
}

// InitializeRequest represents a transaction initialization request.
// Amount is in the currency subunit (kobo for NGN).
type InitializeRequest struct {
	Amount    int64
	Currency  string
	Email     string
	Reference string
	Metadata  Metadata
}

// InitializeResult represents a successful initialization
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult represents the gateway's view of a transaction
type VerifyResult struct {
	Status     string
	AmountPaid int64
	Currency   string
	PaidAt     *time.Time
	Metadata   Metadata
}

// Client is a Paystack API client. It holds no durable state; the
// PaymentTransaction record is owned by the caller.
type Client struct {
	BaseURL   string
	SecretKey string
	Mock      bool

	client *http.Client

	mu       sync.Mutex
	mockTxns map[string]*mockTxn
}

type mockTxn struct {
	amount   int64
	currency string
	metadata Metadata
}

// NewClient creates a new Paystack client. With mock enabled no HTTP calls
// are made; initialized transactions verify as successful (dev mode).
func NewClient(baseURL, secretKey string, mock bool) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		Mock:      mock,
		client:    &http.Client{Timeout: 15 * time.Second},
		mockTxns:  make(map[string]*mockTxn),
	}
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status   string   `json:"status"`
	Amount   int64    `json:"amount"`
	Currency string   `json:"currency"`
	PaidAt   string   `json:"paid_at"`
	Metadata Metadata `json:"metadata"`
}

// Initialize creates a transaction on the gateway and returns the checkout
// redirect for the client.
func (c *Client) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if c.Mock {
		return c.mockInitialize(req), nil
	}

	payload := map[string]interface{}{
		"amount":    req.Amount,
		"currency":  req.Currency,
		"email":     req.Email,
		"reference": req.Reference,
		"metadata":  req.Metadata,
	}

	body, err := c.post(ctx, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var data initializeData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}

	return &InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// Verify fetches the transaction status server-side. Idempotent: callable
// any number of times for the same reference.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if c.Mock {
		return c.mockVerify(reference)
	}

	body, err := c.get(ctx, "/transaction/verify/"+reference)
	if err != nil {
		return nil, err
	}

	var data verifyData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}

	result := &VerifyResult{
		Status:     data.Status,
		AmountPaid: data.Amount,
		Currency:   data.Currency,
		Metadata:   data.Metadata,
	}
	if data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, data.PaidAt); err == nil {
			result.PaidAt = &t
		}
	}

	return result, nil
}

// ValidateSignature checks a webhook signature: hex HMAC-SHA512 of the raw
// request body keyed with the secret key. Constant-time compare.
func (c *Client) ValidateSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrReferenceNotFound
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 400 || !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrInitializeFailed, envelope.Message)
	}

	return envelope.Data, nil
}

// ============================================================
// Mock mode (dev/testing without gateway credentials)
// ============================================================

func (c *Client) mockInitialize(req *InitializeRequest) *InitializeResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mockTxns[req.Reference] = &mockTxn{
		amount:   req.Amount,
		currency: req.Currency,
		metadata: req.Metadata,
	}

	return &InitializeResult{
		AuthorizationURL: fmt.Sprintf("%s/mock/checkout/%s", c.BaseURL, req.Reference),
		AccessCode:       "mock_" + req.Reference,
		Reference:        req.Reference,
	}
}

func (c *Client) mockVerify(reference string) (*VerifyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	txn, ok := c.mockTxns[reference]
	if !ok {
		return nil, ErrReferenceNotFound
	}

	now := time.Now()
	return &VerifyResult{
		Status:     StatusSuccess,
		AmountPaid: txn.amount,
		Currency:   txn.currency,
		PaidAt:     &now,
		Metadata:   txn.metadata,
	}, nil
}
