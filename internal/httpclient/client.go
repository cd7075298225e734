// Package httpclient wraps net/http with rate limiting and a bounded
// timeout for the pricing feed fetch.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client is a rate-limited HTTP client.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures the Client.
type Option func(*Client)

// WithRateLimit sets requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates a new HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET and returns the response body. Non-2xx
// statuses are errors.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP GET %s: status %d: %s", url, resp.StatusCode, string(body))
	}
	return body, nil
}
