package http

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/kosarica/price-aggregator/internal/http/ratelimit"
)

// DefaultUserAgent is sent unless the caller overrides it.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Client is an HTTP client with rate limiting, retry logic and
// brotli/gzip response decoding.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.RateLimiter
	config      ratelimit.Config
	userAgent   string
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(config ratelimit.Config, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: ratelimit.NewRateLimiter(config),
		config:      config,
		userAgent:   DefaultUserAgent,
	}
}

// NewClientDefault creates a new HTTP client with default rate limiting
func NewClientDefault() *Client {
	return NewClient(ratelimit.DefaultConfig(), 0)
}

// WithTransport swaps the underlying transport. Used by tests.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	c.httpClient.Transport = rt
	return c
}

// Get performs a GET request with rate limiting and retry logic
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil)
}

// Do performs an HTTP request with rate limiting and retry logic.
// Only bodiless requests are retried.
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	maxRetries := c.config.MaxRetries
	if body != nil {
		maxRetries = 0
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Throttle(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, &ratelimit.FetchRetryError{URL: url, Attempts: attempt + 1, LastError: err}
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-IN,en;q=0.9")
		req.Header.Set("Accept-Encoding", "br, gzip")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil || attempt == maxRetries {
				return nil, &ratelimit.FetchRetryError{URL: url, Attempts: attempt + 1, LastStatus: lastStatus, LastError: lastErr}
			}
			if err := ratelimit.Sleep(ctx, ratelimit.CalculateBackoff(attempt, c.config)); err != nil {
				return nil, err
			}
			continue
		}

		lastStatus = resp.StatusCode

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if err := decodeBody(resp); err != nil {
				resp.Body.Close()
				return nil, err
			}
			return resp, nil
		}

		resp.Body.Close()
		if !ratelimit.IsRetryableStatus(resp.StatusCode) || attempt == maxRetries {
			return nil, &ratelimit.FetchRetryError{URL: url, Attempts: attempt + 1, LastStatus: resp.StatusCode}
		}

		var backoff time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			var retryAfterPtr *string
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				retryAfterPtr = &retryAfter
			}
			backoff = ratelimit.CalculateRateLimitBackoff(attempt, c.config, retryAfterPtr)
		} else {
			backoff = ratelimit.CalculateBackoff(attempt, c.config)
		}
		if err := ratelimit.Sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, &ratelimit.FetchRetryError{URL: url, Attempts: maxRetries + 1, LastStatus: lastStatus, LastError: lastErr}
}

// GetBytes performs a GET request and returns the decoded response body
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// GetText performs a GET request and returns the body as UTF-8. The source
// charset comes from the Content-Type header or, failing that, from the
// document's meta tags.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to decode response charset: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(data), nil
}

// GetConfig returns the current rate limit config
func (c *Client) GetConfig() ratelimit.Config {
	return c.config
}

type decodedBody struct {
	io.Reader
	closer io.Closer
}

func (d decodedBody) Close() error {
	return d.closer.Close()
}

// decodeBody replaces resp.Body with a decompressing reader based on Content-Encoding.
func decodeBody(resp *http.Response) error {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		resp.Body = decodedBody{Reader: brotli.NewReader(resp.Body), closer: resp.Body}
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("invalid gzip body: %w", err)
		}
		resp.Body = decodedBody{Reader: zr, closer: resp.Body}
	default:
		return nil
	}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return nil
}
