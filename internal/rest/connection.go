// SPDX-License-Identifier: MPL-2.0

package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// defaultTimeout bounds a single API round trip. Monitor polling issues
	// many short requests, so this stays deliberately small.
	defaultTimeout = 30 * time.Second

	// maxResponseBytes is the upper bound on a response body read (25 MB).
	// Stdout downloads of large jobs are the biggest legitimate payload.
	maxResponseBytes = 25 << 20
)

type (
	// Connection owns the HTTP session and authentication for one API host.
	// Resources borrow it for the duration of a call; it is safe for use by
	// the monitor routines, which poll concurrently with nothing else.
	Connection struct {
		baseURL   string
		session   *http.Client
		token     string
		username  string
		password  string
		userAgent string
		logger    *log.Logger
	}

	// ConnectionOption configures a Connection during construction.
	ConnectionOption func(*Connection)
)

// WithSession sets a custom HTTP client, useful for tests.
func WithSession(c *http.Client) ConnectionOption {
	return func(conn *Connection) {
		conn.session = c
	}
}

// WithToken sets a bearer token for authenticated requests.
func WithToken(token string) ConnectionOption {
	return func(conn *Connection) {
		conn.token = token
	}
}

// WithBasicAuth sets username/password authentication. A bearer token, when
// also present, takes precedence.
func WithBasicAuth(username, password string) ConnectionOption {
	return func(conn *Connection) {
		conn.username = username
		conn.password = password
	}
}

// WithInsecureTLS disables server certificate verification. Only honored
// when the session was not supplied via WithSession.
func WithInsecureTLS() ConnectionOption {
	return func(conn *Connection) {
		if conn.session != nil {
			return
		}
		conn.session = &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in via -k
			},
		}
	}
}

// WithUserAgent overrides the User-Agent header value.
func WithUserAgent(ua string) ConnectionOption {
	return func(conn *Connection) {
		conn.userAgent = ua
	}
}

// NewConnection creates a Connection for the given API host, e.g.
// "https://tower.example.org".
func NewConnection(baseURL string, opts ...ConnectionOption) *Connection {
	conn := &Connection{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "autokit",
		logger:    log.NewWithOptions(os.Stderr, log.Options{Prefix: "rest"}),
	}
	for _, opt := range opts {
		opt(conn)
	}
	if conn.session == nil {
		conn.session = &http.Client{Timeout: defaultTimeout}
	}
	return conn
}

// Session exposes the underlying transport session. The monitor routines
// receive it explicitly so their request fan-out is visible at the call site.
func (c *Connection) Session() *http.Client {
	return c.session
}

// URL joins an endpoint path onto the connection's base URL.
func (c *Connection) URL(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// NewRequest builds an authenticated request against the API. Callers that
// hold their own session (the monitor routines) execute it themselves;
// every other caller goes through do.
func (c *Connection) NewRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.URL(endpoint)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, u, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case c.username != "":
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

// Get issues a raw fetch against an endpoint and returns the undecoded body.
// The stdout handlers use it to download job output in text or ANSI form.
func (c *Connection) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.URL, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newAPIError(req, resp.StatusCode, data)
	}
	return data, nil
}

// do executes one JSON round trip and returns the status code plus the raw
// body. 4xx/5xx become an *APIError; transport failures are returned as-is.
func (c *Connection) do(ctx context.Context, method, endpoint string, query url.Values, payload map[string]any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := c.NewRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return 0, nil, err
	}
	c.logger.Debug("request", "method", method, "url", req.URL.String())

	resp, err := c.session.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s: %w", req.URL, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, nil, newAPIError(req, resp.StatusCode, data)
	}
	return resp.StatusCode, data, nil
}
