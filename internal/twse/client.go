// Package twse extracts end-of-day data from the exchange's JSON API:
// trading-day probing, monthly per-security quotes, and market-wide
// institutional flow.
package twse

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/marketsnap/internal/httpclient"
)

const (
	// DefaultBaseURL is the exchange API root.
	DefaultBaseURL = "https://www.twse.com.tw"

	// DefaultRateLimit is the default request pacing (requests per second).
	DefaultRateLimit = 2
)

// Client is an exchange API client.
type Client struct {
	baseURL string
	fetcher *httpclient.Client
	logger  arbor.ILogger
	limiter *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new exchange API client.
func NewClient(fetcher *httpclient.Client, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON performs a paced GET against the API.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("response", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	if c.logger != nil {
		c.logger.Debug().Str("url", c.baseURL+path).Msg("TWSE API request")
	}
	return c.fetcher.GetJSON(ctx, reqURL, result)
}

// statOK reports whether an API stat field signals success. The field's
// exact casing has drifted ("OK", "ok") so the check is case-insensitive.
func statOK(stat string) bool {
	return strings.Contains(strings.ToLower(stat), "ok")
}

func ymd(t time.Time) string {
	return t.Format("20060102")
}
