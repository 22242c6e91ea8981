package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "cashbook/internal/errors"
)

// ServiceKeyMiddleware guards maintenance endpoints with the X-API-Key header.
// An empty configured key disables the endpoints entirely.
func ServiceKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrServiceKeyNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
