package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := perform(r, http.MethodGet, "/", nil)
	id := w.Header().Get(RequestIDHeader)
	assert.True(t, strings.HasPrefix(id, "req_"))
	assert.Equal(t, id, seen)
}

func TestRequestID_ReusesValidHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = perform(r, http.MethodGet, "/", map[string]string{RequestIDHeader: "bad id <script>"})
	assert.NotEqual(t, "bad id <script>", w.Header().Get(RequestIDHeader))

	w = perform(r, http.MethodGet, "/", map[string]string{RequestIDHeader: strings.Repeat("a", MaxRequestIDLength+1)})
	assert.True(t, strings.HasPrefix(w.Header().Get(RequestIDHeader), "req_"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID(base), RequestLogger("/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.Status(http.StatusInternalServerError)
	})

	perform(r, http.MethodGet, "/health", map[string]string{RequestIDHeader: "skip-me"})
	assert.Empty(t, buf.String(), "skipped paths are not logged")

	perform(r, http.MethodGet, "/boom", map[string]string{RequestIDHeader: "req-42"})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var handlerLine, accessLine map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &handlerLine))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &accessLine))

	assert.Equal(t, "req-42", handlerLine["request_id"])
	assert.Equal(t, "error", accessLine["level"])
	assert.Equal(t, "/boom", accessLine["path"])
	assert.Equal(t, float64(500), accessLine["status"])
	assert.Equal(t, "req-42", accessLine["request_id"])
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2, IdleTTL: time.Minute})

	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)

	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, 1, limiter.Size())
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 5, BurstSize: 5, IdleTTL: time.Minute})
	limiter.now = func() time.Time { return now }

	limiter.GetLimiter("10.0.0.1")
	now = now.Add(2 * time.Minute)
	limiter.GetLimiter("10.0.0.2")

	assert.Equal(t, 1, limiter.Sweep())
	assert.Equal(t, 1, limiter.Size())
}

func TestIPRateLimiter_Unlimited(t *testing.T) {
	limiter := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 0})
	l := limiter.GetLimiter("10.0.0.1")
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow())
	}
}

func TestInternalAuth(t *testing.T) {
	r := gin.New()
	r.POST("/admin", InternalAuth("s3cret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodPost, "/admin", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodPost, "/admin", map[string]string{InternalAPIKeyHeader: "nope"}).Code)
	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodPost, "/admin", map[string]string{InternalAPIKeyHeader: "s3cret"}).Code)
}

func TestInternalAuth_Disabled(t *testing.T) {
	r := gin.New()
	r.POST("/admin", InternalAuth(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := perform(r, http.MethodPost, "/admin", map[string]string{InternalAPIKeyHeader: ""})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPMetricsAndTracing_PassThrough(t *testing.T) {
	r := gin.New()
	r.Use(Tracing("basket-service-test"), RequestID(zerolog.Nop()), TraceAttributes(), HTTPMetrics())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := perform(r, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestRequestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	r := gin.New()
	r.Use(RequestTimeout(time.Minute))
	r.GET("/", func(c *gin.Context) {
		deadline, ok = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	perform(r, http.MethodGet, "/", nil)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	r = gin.New()
	r.Use(RequestTimeout(0))
	r.GET("/", func(c *gin.Context) {
		_, ok = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})
	perform(r, http.MethodGet, "/", nil)
	assert.False(t, ok)
}
