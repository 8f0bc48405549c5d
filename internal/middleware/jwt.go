package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/surdiana/auth-service/internal/constants"
	apperrors "github.com/surdiana/auth-service/internal/errors"
	"github.com/surdiana/auth-service/internal/service"
	ctxutil "github.com/surdiana/auth-service/pkg/context"
	"github.com/surdiana/auth-service/pkg/logger"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	tokens *service.TokenService
	auth   *service.AuthService
}

func NewAuthMiddleware(tokens *service.TokenService, auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		auth:   auth,
	}
}

// RequireAuth verifies the bearer token cryptographically, then checks the
// ledger and the user row. A token that fails either check never reaches
// the handler.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractBearer(c)
		if !ok {
			logger.GetLogger().Warn("Missing or malformed Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			abortUnauthorized(c, apperrors.ErrUnauthorized)
			return
		}

		payload, err := m.tokens.Verify(tokenString)
		if err != nil {
			logger.GetLogger().Warn("Invalid or expired token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			abortUnauthorized(c, err)
			return
		}

		user, err := m.auth.Authenticate(c.Request.Context(), payload)
		if err != nil {
			logger.GetLogger().Warn("Token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("jti", payload.JTI),
				zap.Uint("user_id", payload.UserID),
				zap.Error(err))
			abortUnauthorized(c, err)
			return
		}

		c.Set(constants.GinKeyUser, user)
		c.Set(constants.GinKeyUserID, user.ID)
		c.Set(constants.GinKeyJTI, payload.JTI)

		ctx := ctxutil.WithUserID(c.Request.Context(), user.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func extractBearer(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != constants.BearerScheme || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

func abortUnauthorized(c *gin.Context, err error) {
	c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
		apperrors.GetErrorDomain(err),
		constants.MsgUnauthorized,
		nil,
	))
	c.Abort()
}
