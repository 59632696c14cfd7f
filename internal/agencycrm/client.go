// Package agencycrm is the HTTP client for the agency CRM, the remote
// authority that owns user credentials and brand reference data.
package agencycrm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
	apiKeyHeader                = "X-API-Key"
)

var (
	// ErrUnavailable covers transport failures, timeouts, unexpected statuses
	// and undecodable bodies.
	ErrUnavailable = errors.New("agency crm unavailable")
	// ErrRejected means the remote answered and refused the credentials.
	ErrRejected = errors.New("agency crm rejected credentials")
	// ErrNotFound is returned for unknown brand ids.
	ErrNotFound = errors.New("agency crm resource not found")

	errBaseURLRequired = errors.New("agency crm base url is required")
)

// RemoteUser is a user record as the agency CRM reports it. Pointer fields
// distinguish an absent value from an empty one.
type RemoteUser struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// Brand is a client brand record.
type Brand struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Name     string `json:"name,omitempty"`
}

// DisplayName is the label stored as a project's brand snapshot.
func (b Brand) DisplayName() string {
	if b.FullName != "" {
		return b.FullName
	}
	return b.Name
}

// Client talks to the agency CRM REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every outbound call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout, Transport: c.httpClient.Transport}
		}
	}
}

// NewClient builds a client for the given base URL.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Authenticate asks the agency CRM to verify a login. A 401, or a 200 whose
// body says success=false, is ErrRejected; every other failure is
// ErrUnavailable.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*RemoteUser, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/auth/login", payload)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrRejected
	case resp.StatusCode != http.StatusOK:
		return nil, statusError(resp)
	}

	var body struct {
		Success bool        `json:"success"`
		User    *RemoteUser `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode login response: %v", ErrUnavailable, err)
	}
	if !body.Success || body.User == nil {
		return nil, ErrRejected
	}
	if body.User.Email == "" {
		body.User.Email = email
	}

	return body.User, nil
}

// ListUsers fetches every user known to the agency CRM.
func (c *Client) ListUsers(ctx context.Context) ([]RemoteUser, error) {
	var users []RemoteUser
	if err := c.getJSON(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListBrands fetches the brand directory.
func (c *Client) ListBrands(ctx context.Context) ([]Brand, error) {
	var brands []Brand
	if err := c.getJSON(ctx, "/brands", &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// GetBrand fetches a single brand.
func (c *Client) GetBrand(ctx context.Context, id int64) (*Brand, error) {
	var brand Brand
	if err := c.getJSON(ctx, fmt.Sprintf("/brands/%d", id), &brand); err != nil {
		return nil, err
	}
	return &brand, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
}
