package middleware

import (
	"github.com/gin-gonic/gin"

	"cashbook/internal/logger"
	"cashbook/internal/services"
)

// UserSync mirrors the authenticated identity into the users table so that
// owner display fields resolve on listed movements. It must run after
// AuthMiddleware. Failures are logged and never block the request.
func UserSync(users services.UserServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetString(UserIDKey)
		if subject != "" {
			if _, err := users.SyncUser(c.Request.Context(), subject, c.GetString(NameKey), c.GetString(EmailKey)); err != nil {
				logger.Get().Warnw("failed to sync user", "user_id", subject, "error", err)
			}
		}
		c.Next()
	}
}
