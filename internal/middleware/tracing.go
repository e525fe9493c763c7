package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request via otelgin and tags it with the
// request id. Responses with status >= 500 mark the span as failed.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceAttributes enriches the active span once the handler chain has run.
// It must be registered after RequestID so the id is known.
func TraceAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(attribute.String(RequestIDKey, id))
			}
		}

		c.Next()

		if span.IsRecording() && c.Writer.Status() >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
