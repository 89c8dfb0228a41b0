package coinpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the payment API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a new payment API client.
//
// Parameters:
//   - baseURL: The server base URL (e.g., "https://pay.example.com")
//   - token: The server's api_token, empty when authentication is disabled
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error: status=%d type=%s message=%s details=%s", e.StatusCode, e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("api error: status=%d type=%s message=%s", e.StatusCode, e.Type, e.Message)
}

// CreatePayment opens a payment and returns it with its deposit address.
func (c *Client) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*Payment, error) {
	var p Payment
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/payments", req, &p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return &p, nil
}

// GetPayment retrieves a payment by id.
func (c *Client) GetPayment(ctx context.Context, id uint) (*Payment, error) {
	endpoint := fmt.Sprintf("%s/api/payments/%d", c.baseURL, id)

	var p Payment
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &p); err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// GetPaymentByAddress retrieves the payment owning a deposit address.
func (c *Client) GetPaymentByAddress(ctx context.Context, address string) (*Payment, error) {
	endpoint := fmt.Sprintf("%s/api/payments/address/%s", c.baseURL, url.PathEscape(address))

	var p Payment
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &p); err != nil {
		return nil, fmt.Errorf("get payment by address: %w", err)
	}
	return &p, nil
}

// GetPaymentByTransaction retrieves the payment that recorded a transaction hash.
func (c *Client) GetPaymentByTransaction(ctx context.Context, hash string) (*Payment, error) {
	endpoint := fmt.Sprintf("%s/api/payments/tx/%s", c.baseURL, url.PathEscape(hash))

	var p Payment
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &p); err != nil {
		return nil, fmt.Errorf("get payment by transaction: %w", err)
	}
	return &p, nil
}

// ListPayments returns the payments in a scope: ScopeUnconfirmed (the default when empty),
// ScopeUnpaid or ScopeStale.
func (c *Client) ListPayments(ctx context.Context, scope string) ([]Payment, error) {
	endpoint := c.baseURL + "/api/payments"
	if scope != "" {
		endpoint += "?scope=" + url.QueryEscape(scope)
	}

	var payments []Payment
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &payments); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// RefreshPayment fetches the payment's transactions from its blockchain.
// rate overrides the stored conversion rate (fiat cents per coin) when non-empty.
func (c *Client) RefreshPayment(ctx context.Context, id uint, rate string) (*RefreshResult, error) {
	endpoint := fmt.Sprintf("%s/api/payments/%d/refresh", c.baseURL, id)

	var body any
	if rate != "" {
		body = map[string]string{"rate": rate}
	}

	var result RefreshResult
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &result); err != nil {
		return nil, fmt.Errorf("refresh payment: %w", err)
	}
	return &result, nil
}

// CompPayment marks a payment as paid without coins.
func (c *Client) CompPayment(ctx context.Context, id uint) (*Payment, error) {
	endpoint := fmt.Sprintf("%s/api/payments/%d/comp", c.baseURL, id)

	var p Payment
	if err := c.doRequest(ctx, http.MethodPost, endpoint, nil, &p); err != nil {
		return nil, fmt.Errorf("comp payment: %w", err)
	}
	return &p, nil
}

// doRequest performs an HTTP request and decodes the response.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("X-API-Token", c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp apiResponse
	decodeErr := json.Unmarshal(respBody, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		if decodeErr == nil && apiResp.Error != nil {
			apiErr.Type = apiResp.Error.Type
			apiErr.Message = apiResp.Error.Message
			apiErr.Details = apiResp.Error.Details
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("unmarshal response: %w", decodeErr)
	}

	if !apiResp.Success {
		return fmt.Errorf("api error: %s", apiResp.Message)
	}

	if result == nil || apiResp.Data == nil {
		return nil
	}

	// Re-marshal and unmarshal to convert Data to the target type
	dataBytes, err := json.Marshal(apiResp.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if err := json.Unmarshal(dataBytes, result); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	return nil
}
