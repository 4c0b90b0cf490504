package onboarding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stridetrade/starkwallet/pkg/logger"
)

// Exchange endpoint paths and auth header names. The header names are
// part of the wire protocol and must not change.
const (
	OnboardPath  = "/auth/onboard"
	APIKeyPath   = "/api/v1/user/account/api-key"
	AccountsPath = "/api/v1/user/accounts"

	headerL1Signature   = "L1_SIGNATURE"
	headerL1MessageTime = "L1_MESSAGE_TIME"
	headerActiveAccount = "X-X10-ACTIVE-ACCOUNT"
)

// AuthHeaders carries the short-lived request authentication: a typed
// signature over "{path}@{timestamp}" plus the timestamp it was made
// at. A fresh pair must be generated per call.
type AuthHeaders struct {
	Signature string
	Timestamp int64
	AccountID int64 // zero means no active-account header
}

// ExchangeAPI is the remote exchange surface the orchestrator talks
// to. Satisfied by Client; swapped for a fake in tests.
type ExchangeAPI interface {
	Onboard(ctx context.Context, payload *OnboardingPayload) (*AccountDescriptor, error)
	CreateAPIKey(ctx context.Context, auth AuthHeaders, description string) (string, error)
	ListAccounts(ctx context.Context, auth AuthHeaders) ([]AccountDescriptor, error)
}

// Client is the HTTP client for the exchange registration API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an exchange client with a bounded per-request
// timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope is the common {"data": ...} response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Onboard submits the registration payload. A 200/201 response whose
// body carries a data object parses into the account descriptor; any
// other status, or a 2xx without data, is a ProtocolError; transport
// failures are a NetworkError.
func (c *Client) Onboard(ctx context.Context, payload *OnboardingPayload) (*AccountDescriptor, error) {
	body, status, err := c.post(ctx, OnboardPath, nil, payload)
	if err != nil {
		return nil, err
	}

	data, perr := parseEnvelope("onboard", status, body)
	if perr != nil {
		return nil, perr
	}

	var desc AccountDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, &ProtocolError{Op: "onboard", Status: status, Body: string(body)}
	}
	return &desc, nil
}

// CreateAPIKey mints a trading API key for the active account.
func (c *Client) CreateAPIKey(ctx context.Context, auth AuthHeaders, description string) (string, error) {
	req := struct {
		Description string `json:"description"`
	}{Description: description}

	body, status, err := c.post(ctx, APIKeyPath, &auth, req)
	if err != nil {
		return "", err
	}

	data, perr := parseEnvelope("create api key", status, body)
	if perr != nil {
		return "", &APIKeyCreationError{Status: perr.Status, Body: perr.Body}
	}

	var resp struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || resp.Key == "" {
		return "", &APIKeyCreationError{Status: status, Body: string(body)}
	}
	return resp.Key, nil
}

// ListAccounts fetches the server-side account descriptors.
func (c *Client) ListAccounts(ctx context.Context, auth AuthHeaders) ([]AccountDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+AccountsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	setAuthHeaders(req, &auth)

	body, status, err := c.do(req, "list accounts")
	if err != nil {
		return nil, err
	}

	data, perr := parseEnvelope("list accounts", status, body)
	if perr != nil {
		return nil, perr
	}

	var descs []AccountDescriptor
	if err := json.Unmarshal(data, &descs); err != nil {
		return nil, &ProtocolError{Op: "list accounts", Status: status, Body: string(body)}
	}
	return descs, nil
}

func (c *Client) post(ctx context.Context, path string, auth *AuthHeaders, payload any) ([]byte, int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setAuthHeaders(req, auth)

	return c.do(req, path)
}

func (c *Client) do(req *http.Request, op string) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &NetworkError{Op: op, Err: err}
	}

	logger.DebugCF("exchange", "Response received", map[string]any{
		"op":     op,
		"status": resp.StatusCode,
		"bytes":  len(body),
	})
	return body, resp.StatusCode, nil
}

func setAuthHeaders(req *http.Request, auth *AuthHeaders) {
	if auth == nil {
		return
	}
	req.Header.Set(headerL1Signature, auth.Signature)
	req.Header.Set(headerL1MessageTime, fmt.Sprintf("%d", auth.Timestamp))
	if auth.AccountID != 0 {
		req.Header.Set(headerActiveAccount, fmt.Sprintf("%d", auth.AccountID))
	}
}

func parseEnvelope(op string, status int, body []byte) (json.RawMessage, *ProtocolError) {
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, &ProtocolError{Op: op, Status: status, Body: string(body)}
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &ProtocolError{Op: op, Status: status, Body: string(body)}
	}
	return env.Data, nil
}
