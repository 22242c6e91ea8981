package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error, unless
// a response was already written. AppErrors keep their code, message and
// details. Anything else becomes INTERNAL_ERROR; its text only reaches the log.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			requestLogger(c).Errorw("unexpected error", "error", err.Error())
			appErr = apperrors.ErrInternalServer
		} else if appErr.Internal != nil {
			requestLogger(c).Errorw("app error",
				"code", appErr.Code,
				"message", appErr.Message,
				"internal", appErr.Internal.Error(),
			)
		}
		c.JSON(appErr.StatusCode, errorBody(appErr))
	}
}

// requestLogger carries the request coordinates logged with every failure.
func requestLogger(c *gin.Context) *zap.SugaredLogger {
	return logger.With(
		"request_id", c.GetString(requestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"user_id", c.GetString(UserIDKey),
	)
}
