package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bossing/basket-service/internal/http/ratelimit"
)

const userAgent = "Bossing-BasketService/1.0"

// Client is an HTTP client with rate limiting and retry logic
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.RateLimiter
	config      ratelimit.Config
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(config ratelimit.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: ratelimit.NewRateLimiter(config),
		config:      config,
	}
}

// NewClientDefault creates a new HTTP client with default rate limiting
func NewClientDefault() *Client {
	return NewClient(ratelimit.DefaultConfig())
}

// Get performs a GET request with rate limiting and retry logic
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil)
}

// Do performs an HTTP request with rate limiting and retry logic.
// The body is buffered so it can be replayed on retries.
func (c *Client) Do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Throttle(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.config.MaxRetries {
				if err := ratelimit.Sleep(ctx, ratelimit.CalculateBackoff(attempt, c.config)); err != nil {
					return nil, err
				}
				continue
			}
			break
		}

		lastStatus = resp.StatusCode
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		resp.Body.Close()

		if !ratelimit.IsRetryableStatus(resp.StatusCode) || attempt == c.config.MaxRetries {
			return nil, &ratelimit.FetchRetryError{
				URL:        url,
				Attempts:   attempt + 1,
				LastStatus: resp.StatusCode,
			}
		}

		var wait time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			wait = ratelimit.CalculateRateLimitBackoff(attempt, c.config, resp.Header.Get("Retry-After"))
		} else {
			wait = ratelimit.CalculateBackoff(attempt, c.config)
		}
		if err := ratelimit.Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, &ratelimit.FetchRetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastError:  lastErr,
	}
}

// GetBytes performs a GET request and returns the response body as bytes
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

// GetJSON performs a GET request and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}
