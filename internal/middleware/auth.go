package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalAPIKeyHeader carries the key for operator endpoints.
const InternalAPIKeyHeader = "X-Internal-API-Key"

// InternalAuth guards operator endpoints with a shared key. An empty key
// disables the endpoints entirely.
func InternalAuth(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		}
	}
	expected := []byte(apiKey)

	return func(c *gin.Context) {
		key := c.GetHeader(InternalAPIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
