package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/bossing/basket-service/internal/middleware"

// HTTPMetrics records request counts and latency with the global OTel meter.
// When telemetry is disabled the global meter is a noop.
func HTTPMetrics() gin.HandlerFunc {
	meter := otel.Meter(meterName)

	requests, reqErr := meter.Int64Counter("http_server_request_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"))
	duration, durErr := meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"))
	inflight, inErr := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Requests currently being served"),
		metric.WithUnit("{request}"))

	if reqErr != nil || durErr != nil || inErr != nil {
		otel.Handle(firstErr(reqErr, durErr, inErr))
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		inflight.Add(ctx, 1)
		defer inflight.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("http.status_code", strconv.Itoa(c.Writer.Status())),
		)
		requests.Add(ctx, 1, attrs)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
