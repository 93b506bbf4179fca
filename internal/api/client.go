package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"iupchat/internal/auth"
)

// genericServerError is shown when the backend gives no detail field
const genericServerError = "Error del servidor"

// Client handles communication with the chatbot backend. Every request
// attaches the stored bearer token when present; a 401 on any endpoint
// other than login/register clears the session and fires the
// session-expired callback.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	store            *auth.Store
	onSessionExpired func()
}

// NewClient creates a new backend client
func NewClient(baseURL string, timeout time.Duration, store *auth.Store) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		store: store,
	}
}

// OnSessionExpired registers the forced-logout handler
func (c *Client) OnSessionExpired(fn func()) {
	c.onSessionExpired = fn
}

// Error is a normalized backend error
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// isAuthExempt reports whether a 401 on this endpoint means bad
// credentials rather than an expired session
func isAuthExempt(path string) bool {
	return path == "/api/v1/auth/login" || path == "/api/v1/auth/register"
}

// doJSON issues a request with an optional JSON body and decodes the JSON
// response into out (which may be nil)
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
		contentType = "application/json"
	}

	respBody, err := c.do(ctx, method, path, reader, contentType)
	if err != nil {
		return err
	}
	defer respBody.Close()

	if out == nil {
		io.Copy(io.Discard, respBody)
		return nil
	}
	if err := json.NewDecoder(respBody).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// doMultipart issues a multipart POST and decodes the JSON response into
// out. The content type comes from the multipart writer so the boundary is
// correct.
func (c *Client) doMultipart(ctx context.Context, path string, form *bytes.Buffer, contentType string, out any) error {
	respBody, err := c.do(ctx, http.MethodPost, path, form, contentType)
	if err != nil {
		return err
	}
	defer respBody.Close()

	if out == nil {
		io.Copy(io.Discard, respBody)
		return nil
	}
	if err := json.NewDecoder(respBody).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// doBytes issues a request with an optional JSON body and returns the raw
// response bytes (audio endpoints)
func (c *Client) doBytes(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
		contentType = "application/json"
	}

	respBody, err := c.do(ctx, method, path, reader, contentType)
	if err != nil {
		return nil, err
	}
	defer respBody.Close()

	data, err := io.ReadAll(respBody)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// do executes a request and normalizes error responses. The caller owns the
// returned body on success.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (io.ReadCloser, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.Body, nil
	}
	defer resp.Body.Close()

	apiErr := &Error{StatusCode: resp.StatusCode, Message: genericServerError}
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil && detail.Detail != "" {
		apiErr.Message = detail.Detail
	}

	// Session expiry: forced logout everywhere except the credential
	// endpoints themselves
	if resp.StatusCode == http.StatusUnauthorized && !isAuthExempt(path) {
		c.store.Logout()
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
	}

	return nil, apiErr
}
