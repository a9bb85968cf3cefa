// Package client is the HTTP collaborator for the agent service: base URL
// composition, auth header injection, custom headers, JSON call helpers
// with typed errors, and thin wrappers for the service's resource
// endpoints. Parse and loop semantics live in pkg/stream and pkg/loop.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultClientTimeout = 10 * time.Minute

// Auth holds authentication settings for the agent service API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// Client holds connection settings for one agent service. A nil HTTPClient
// falls back to a cached default with a 10-minute timeout.
type Client struct {
	BaseURL    string            // Service base URL (no trailing slash).
	Auth       Auth              // Authentication settings.
	HTTPClient *http.Client      // HTTP client; falls back to a default.
	Headers    map[string]string // Extra headers applied to every request.
	Timeout    time.Duration     // Per-call budget applied by the loop controller.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// New creates a Client with the given settings.
func New(baseURL string, auth Auth, httpClient *http.Client) *Client {
	return &Client{
		BaseURL:    baseURL,
		Auth:       auth,
		HTTPClient: httpClient,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	c.clientOnce.Do(func() {
		c.defaultClient = &http.Client{Timeout: defaultClientTimeout}
	})

	return c.defaultClient
}

// authHeader returns the header name and value for the configured auth, or
// an empty name when no key is set.
func (c *Client) authHeader() (string, string) {
	if c.Auth.Key == "" {
		return "", ""
	}

	header := c.Auth.Header
	if header == "" {
		header = "Authorization"
	}

	value := c.Auth.Key
	if header == "Authorization" {
		scheme := c.Auth.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}

		value = scheme + " " + value
	} else if c.Auth.Scheme != "" {
		value = c.Auth.Scheme + " " + value
	}

	return header, value
}

// NewRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	if header, value := c.authHeader(); header != "" {
		req.Header.Set(header, value)
	}

	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config, not user input.
}

// DoJSON marshals payload as JSON (when non-nil), sends the request, checks
// for a 2xx status, and unmarshals the response body into dest. If dest is
// nil the response body is discarded after the status check.
func (c *Client) DoJSON(ctx context.Context, method, path string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// PostJSON sends a POST with a JSON body and decodes the JSON response.
func (c *Client) PostJSON(ctx context.Context, path string, payload, dest any) error {
	return c.DoJSON(ctx, http.MethodPost, path, payload, dest)
}

// GetJSON sends a GET and decodes the JSON response.
func (c *Client) GetJSON(ctx context.Context, path string, dest any) error {
	return c.DoJSON(ctx, http.MethodGet, path, nil, dest)
}

// PutJSON sends a PUT with a JSON body and discards the response.
func (c *Client) PutJSON(ctx context.Context, path string, payload any) error {
	return c.DoJSON(ctx, http.MethodPut, path, payload, nil)
}

// Delete sends a DELETE and discards the response after the status check.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.DoJSON(ctx, http.MethodDelete, path, nil, nil)
}

// wsURL converts the BaseURL to a WebSocket URL and appends the path.
// https becomes wss, http becomes ws. URLs that already use ws/wss are
// left unchanged.
func (c *Client) wsURL(path string) string {
	u := c.BaseURL + path

	if strings.HasPrefix(u, "https://") {
		return "wss://" + u[len("https://"):]
	}

	if strings.HasPrefix(u, "http://") {
		return "ws://" + u[len("http://"):]
	}

	return u
}

// wsHeaders returns an http.Header with auth and custom headers applied,
// for use with WebSocket dial options.
func (c *Client) wsHeaders() http.Header {
	h := make(http.Header)

	if header, value := c.authHeader(); header != "" {
		h.Set(header, value)
	}

	for k, v := range c.Headers {
		h.Set(k, v)
	}

	return h
}
