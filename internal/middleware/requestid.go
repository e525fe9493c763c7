package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bossing/basket-service/internal/pkg/cuid2"
)

const (
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "request_id"
	// MaxRequestIDLength bounds accepted client-supplied ids.
	MaxRequestIDLength = 128
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)

// RequestID assigns every request an id, reusing a well-formed incoming
// X-Request-ID. The id is echoed in the response and attached to a logger
// stored in the request context, retrievable with zerolog.Ctx.
func RequestID(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if len(id) > MaxRequestIDLength || !requestIDPattern.MatchString(id) {
			id = cuid2.New("req")
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		logger := base.With().Str(RequestIDKey, id).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
