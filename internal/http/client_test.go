package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bossing/basket-service/internal/http/ratelimit"
)

func fastConfig() ratelimit.Config {
	return ratelimit.Config{
		RequestsPerSecond: 0,
		MaxRetries:        2,
		InitialBackoffMs:  1,
		MaxBackoffMs:      5,
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewClient(fastConfig())
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(fastConfig()).GetBytes(context.Background(), srv.URL)
	var fetchErr *ratelimit.FetchRetryError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.LastStatus)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(fastConfig()).GetBytes(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(fastConfig()).GetBytes(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoff(t *testing.T) {
	cfg := ratelimit.Config{InitialBackoffMs: 100, MaxBackoffMs: 1000}

	d := ratelimit.CalculateBackoff(0, cfg)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.LessOrEqual(t, d, 125*time.Millisecond)

	d = ratelimit.CalculateBackoff(10, cfg)
	assert.LessOrEqual(t, d, 1250*time.Millisecond)

	d = ratelimit.CalculateRateLimitBackoff(0, cfg, "2")
	assert.GreaterOrEqual(t, d, 2*time.Second)
	assert.Less(t, d, 3*time.Second)

	assert.True(t, ratelimit.IsRetryableStatus(429))
	assert.True(t, ratelimit.IsRetryableStatus(503))
	assert.False(t, ratelimit.IsRetryableStatus(404))
}
