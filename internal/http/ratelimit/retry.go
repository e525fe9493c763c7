package ratelimit

import (
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// FetchRetryError represents an error when all retry attempts are exhausted
type FetchRetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastError  error
}

func (e *FetchRetryError) Error() string {
	msg := "failed to fetch " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *FetchRetryError) Unwrap() error {
	return e.LastError
}

// IsRetryableStatus checks if an HTTP status code is retryable
// Retryable: 429, 5xx
func IsRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// CalculateBackoff returns the exponential backoff for attempt (0-based)
// with 0-25% jitter, capped at MaxBackoffMs.
func CalculateBackoff(attempt int, config Config) time.Duration {
	return backoff(attempt, 2.0, config)
}

// CalculateRateLimitBackoff returns the backoff after an HTTP 429.
// A Retry-After header in seconds takes precedence; otherwise the backoff
// grows by 3x per attempt instead of 2x.
func CalculateRateLimitBackoff(attempt int, config Config, retryAfter string) time.Duration {
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		jitter := time.Duration(rand.Int64N(int64(time.Second)))
		return time.Duration(seconds)*time.Second + jitter
	}
	return backoff(attempt, 3.0, config)
}

func backoff(attempt int, factor float64, config Config) time.Duration {
	delayMs := float64(config.InitialBackoffMs) * math.Pow(factor, float64(attempt))
	delayMs = math.Min(delayMs, float64(config.MaxBackoffMs))
	jitterMs := rand.Float64() * 0.25 * delayMs
	return time.Duration((delayMs + jitterMs) * float64(time.Millisecond))
}
