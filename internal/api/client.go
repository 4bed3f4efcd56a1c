// Package api is the HTTP client for the storefront REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/safar/go-storefront/internal/logger"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTokenSource sets where authenticated calls read the bearer token from.
// The session store's Token method is the usual source.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method string
	path   string
	body   any
	token  string
	auth   bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	op := r.method + " " + r.path

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token := r.token
	if token == "" && r.auth {
		token = c.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logger.Debug("api request", map[string]any{"op": op})

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("invalid JSON response (status %d): %s", resp.StatusCode, snippet(raw))}
	}
	return nil
}

func decodeError(op string, status int, raw []byte) error {
	var body struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("invalid JSON response (status %d): %s", status, snippet(raw))}
		}
	}

	msg := firstNonEmpty(body.Message, body.Msg, body.Error)
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", status)
	}
	return &StatusError{Status: status, Message: msg}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func snippet(raw []byte) string {
	const max = 200
	s := string(raw)
	if len(s) > max {
		s = s[:max]
	}
	return s
}
