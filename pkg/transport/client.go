// Package transport performs the widget's network round trips: JSON resolve
// calls and HTML search panel loads. Every call is a fresh request; nothing is
// cached.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps response bodies read by the client.
const DefaultMaxBodyBytes = 4 << 20

// Client fetches widget payloads.
type Client interface {
	// GetJSON decodes the JSON body of a GET request into out.
	GetJSON(ctx context.Context, rawURL string, out any) error
	// GetHTML returns the body of a GET request. Bodies of non-2xx responses
	// are returned as well so error fragments can be rendered as-is.
	GetHTML(ctx context.Context, rawURL string) (string, error)
}

// StatusError reports a non-2xx response to a JSON request.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	method := e.Method
	if method == "" {
		method = http.MethodGet
	}
	return fmt.Sprintf("transport: %s %s: %d %s", method, e.URL, e.Code, http.StatusText(e.Code))
}

// StatusCode returns the HTTP status.
func (e *StatusError) StatusCode() int { return e.Code }

// Option configures an HTTP client.
type Option func(*HTTPClient)

// WithBaseURL resolves relative request URLs against base.
func WithBaseURL(base string) Option {
	return func(c *HTTPClient) {
		c.base = strings.TrimSpace(base)
	}
}

// WithHTTPClient supplies the underlying *http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds every request. Zero disables the deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *HTTPClient) {
		c.headers.Add(key, value)
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(limit int64) Option {
	return func(c *HTTPClient) {
		if limit > 0 {
			c.maxBody = limit
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	http    *http.Client
	base    string
	timeout time.Duration
	headers http.Header
	maxBody int64
	logger  *zap.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTP constructs an HTTP client.
func NewHTTP(opts ...Option) (*HTTPClient, error) {
	c := &HTTPClient{
		http:    http.DefaultClient,
		headers: make(http.Header),
		maxBody: DefaultMaxBodyBytes,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.base != "" {
		parsed, err := url.Parse(c.base)
		if err != nil {
			return nil, fmt.Errorf("transport: invalid base url %q: %w", c.base, err)
		}
		if !parsed.IsAbs() {
			return nil, fmt.Errorf("transport: base url %q must be absolute", c.base)
		}
	}
	return c, nil
}

// Resolve returns the absolute form of rawURL.
func (c *HTTPClient) Resolve(rawURL string) (string, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("transport: invalid url %q: %w", rawURL, err)
	}
	if target.IsAbs() || c.base == "" {
		return target.String(), nil
	}
	base, err := url.Parse(c.base)
	if err != nil {
		return "", fmt.Errorf("transport: invalid base url %q: %w", c.base, err)
	}
	return base.ResolveReference(target).String(), nil
}

// GetJSON implements Client.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, code, err := c.do(ctx, http.MethodGet, rawURL, "application/json", nil)
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		return &StatusError{Method: http.MethodGet, URL: rawURL, Code: code}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("transport: decode %s: %w", rawURL, err)
	}
	return nil
}

// GetHTML implements Client.
func (c *HTTPClient) GetHTML(ctx context.Context, rawURL string) (string, error) {
	body, code, err := c.do(ctx, http.MethodGet, rawURL, "text/html", nil)
	if err != nil {
		return "", err
	}
	if code < 200 || code > 299 {
		c.logger.Debug("rendering error fragment", zap.String("url", rawURL), zap.Int("status", code))
	}
	return string(body), nil
}

// PostForm submits values to rawURL and decodes the JSON answer into out.
// Error statuses carrying a JSON payload are decoded too, so validation
// failures reach the caller as data.
func (c *HTTPClient) PostForm(ctx context.Context, rawURL string, values url.Values, out any) error {
	body, code, err := c.do(ctx, http.MethodPost, rawURL, "application/json", values)
	if err != nil {
		return err
	}
	failed := code < 200 || code > 299
	if out == nil {
		if failed {
			return &StatusError{Method: http.MethodPost, URL: rawURL, Code: code}
		}
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		if failed {
			return &StatusError{Method: http.MethodPost, URL: rawURL, Code: code}
		}
		return fmt.Errorf("transport: decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, rawURL, accept string, form url.Values) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target, err := c.Resolve(rawURL)
	if err != nil {
		return nil, 0, err
	}
	var payload io.Reader
	if form != nil {
		payload = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("transport: build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("transport: %s %s: request timed out: %w", method, rawURL, ctx.Err())
		}
		return nil, 0, fmt.Errorf("transport: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("transport: read %s: %w", rawURL, err)
	}
	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)
	return body, resp.StatusCode, nil
}
