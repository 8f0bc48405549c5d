package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/surdiana/auth-service/internal/constants"
	ctxutil "github.com/surdiana/auth-service/pkg/context"
	"github.com/surdiana/auth-service/pkg/logger"
)

// RequestContext assigns every request an id and enriches its context with
// the tracking fields the context logger extracts. The id is echoed back in
// the X-Request-ID response header.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.NewRequestContext(c.Request.Context(), c.Request, requestID)
		ctx = context.WithValue(ctx, ctxutil.ClientIPKey, c.ClientIP())

		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.HeaderXRequestID, requestID)

		logger.DebugWithContext(ctx, "Request started").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			Log()

		c.Next()
	}
}
