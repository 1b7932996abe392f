// Package httpclient provides the shared upstream fetcher: plain GET and
// form-POST with a fixed timeout and browser-like headers, Big5 body
// decoding, and an optional rendered-fetch fallback for blocked pages.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Renderer fetches a page through a real browser. Used only when the plain
// HTTP fetch is refused by the upstream.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Client wraps http.Client with the headers the upstream sources expect.
type Client struct {
	http      *http.Client
	userAgent string
	logger    arbor.ILogger
	renderer  Renderer
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRenderer sets a browser-rendered fetch fallback.
func WithRenderer(r Renderer) Option {
	return func(c *Client) {
		c.renderer = r
	}
}

// WithHTTPClient sets a custom underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client with the given user agent and per-request timeout.
func New(userAgent string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en;q=0.7")
	req.Header.Set("Connection", "keep-alive")
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// Get fetches a URL and returns the raw body bytes.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return body, fmt.Errorf("unexpected status %d for %s", status, rawURL)
	}
	return body, nil
}

// GetText fetches a URL and returns the body decoded to UTF-8. If the plain
// fetch is refused and a renderer is configured, the page is fetched through
// the browser instead.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		if c.renderer == nil {
			return "", err
		}
		if c.logger != nil {
			c.logger.Warn().Err(err).Str("url", rawURL).Msg("Plain fetch refused, falling back to rendered fetch")
		}
		html, rerr := c.renderer.Render(ctx, rawURL)
		if rerr != nil {
			return "", fmt.Errorf("plain fetch failed (%v) and rendered fetch failed: %w", err, rerr)
		}
		return html, nil
	}
	return DecodeText(body), nil
}

// GetJSON fetches a URL and unmarshals the JSON response into result.
func (c *Client) GetJSON(ctx context.Context, rawURL string, result interface{}) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", rawURL, err)
	}
	return nil
}

// PostForm submits form values to a URL and returns the body decoded to
// UTF-8.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", fmt.Errorf("unexpected status %d for %s", status, rawURL)
	}
	return DecodeText(body), nil
}

// DecodeText converts a response body to UTF-8. The broker pages commonly
// serve Big5/CP950 while the exchange APIs serve UTF-8, so valid UTF-8 is
// passed through and everything else goes through the Big5 decoder.
func DecodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := traditionalchinese.Big5.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
