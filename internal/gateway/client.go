// Package gateway is the typed REST client for the Carsawa backend.
//
// It owns everything transport-shaped: bearer auth headers, request
// correlation ids, the JSON-unless-images-then-multipart encoding rule,
// and normalization of every non-2xx response into a single error type
// with a human-readable message. Upper layers never branch on HTTP
// status codes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	u "github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/kigundalevi/carsawa/internal/errs"
)

// APIError is the normalized failure for any non-2xx response.
type APIError struct {
	Status  int
	Message string
	wrapped error // sentinel for errors.Is, nil for plain transport errors
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.wrapped }

// Client issues authenticated requests against one backend origin.
type Client struct {
	base   string
	origin string
	httpc  *http.Client
	log    *zap.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpc = h } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// New builds a Client for the given base URL (scheme://host[/prefix]).
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		origin: parsed.Scheme + "://" + parsed.Host,
		httpc:  &http.Client{Timeout: 30 * time.Second},
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Origin returns scheme://host of the backend, used to qualify relative
// image paths in server responses.
func (c *Client) Origin() string { return c.origin }

// SetToken installs the bearer credential. Only the session store calls
// this; every other component treats the token as read-only.
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// ClearToken removes the bearer credential.
func (c *Client) ClearToken() { c.SetToken("") }

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// payload is a ready-to-send request body. A zero payload means no body.
type payload struct {
	contentType string
	body        []byte
}

func jsonPayload(v any) (payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return payload{}, fmt.Errorf("encode json body: %w", err)
	}
	return payload{contentType: "application/json", body: b}, nil
}

// do performs one request and returns the raw response body. A 2xx with
// an empty body yields nil bytes, not an error.
func (c *Client) do(ctx context.Context, method, path string, p payload) ([]byte, error) {
	var rd io.Reader
	if p.body != nil {
		rd = bytes.NewReader(p.body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if p.contentType != "" {
		req.Header.Set("Content-Type", p.contentType)
	}
	if rid, err := u.NewV4(); err == nil {
		req.Header.Set("X-Request-ID", rid.String())
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &APIError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, resp.Header.Get("Content-Type"), body)
		c.log.Debug("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}
	return body, nil
}

// decodeError builds the single normalized error for a failed response:
// JSON message/error field, else raw text, else "HTTP <status>".
func decodeError(status int, contentType string, body []byte) *APIError {
	msg := ""
	if strings.Contains(contentType, "application/json") {
		var e struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil {
			if e.Message != "" {
				msg = e.Message
			} else if e.Error != "" {
				msg = e.Error
			}
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	var sentinel error
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = errs.ErrUnauthorized
	case http.StatusNotFound:
		sentinel = errs.ErrNotFound
	}
	return &APIError{Status: status, Message: msg, wrapped: sentinel}
}

// decodeInto unmarshals a response body, tolerating empty and non-JSON
// success bodies by leaving v untouched.
func decodeInto(body []byte, v any) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		// Success status with a non-JSON body resolves to empty result.
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return nil
		}
		return err
	}
	return nil
}
