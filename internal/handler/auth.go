package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/surdiana/auth-service/internal/constants"
	"github.com/surdiana/auth-service/internal/dto"
	apperrors "github.com/surdiana/auth-service/internal/errors"
	"github.com/surdiana/auth-service/internal/service"
	ctxutil "github.com/surdiana/auth-service/pkg/context"
	"github.com/surdiana/auth-service/pkg/logger"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup handles new user registration
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "Signup")

	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid signup request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			"user", constants.MsgBadRequest, dto.FormatValidationErrors(err)))
		return
	}

	logger.InfoWithContext(ctx, "Signup attempt").
		String("email", req.Email).
		Log()

	summary, err := h.authService.Signup(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Signup failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(
			apperrors.GetErrorDomain(err), apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// Login handles user authentication and token pair issuance
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			"auth", constants.MsgBadRequest, dto.FormatValidationErrors(err)))
		return
	}

	logger.InfoWithContext(ctx, "User login attempt").
		String("email", req.Email).
		Log()

	response, err := h.authService.Login(ctx, req, requestInfo(c))
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(
			apperrors.GetErrorDomain(err), apperrors.GetErrorMessage(err), nil))
		return
	}

	logger.InfoWithContext(ctx, "User logged in successfully").
		String("email", req.Email).
		Uint("user_id", response.User.ID).
		Log()

	c.JSON(http.StatusOK, response)
}

// Refresh rotates a refresh token into a new token pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "Refresh")

	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid refresh request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			"auth", constants.MsgBadRequest, dto.FormatValidationErrors(err)))
		return
	}

	response, err := h.authService.Refresh(ctx, req.RefreshToken, requestInfo(c))
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(
			apperrors.GetErrorDomain(err), apperrors.GetErrorMessage(err), nil))
		return
	}

	logger.InfoWithContext(ctx, "Token refreshed successfully").
		Uint("user_id", response.User.ID).
		Log()

	c.JSON(http.StatusOK, response)
}

// Logout revokes the access token that authenticated this request
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "Logout")

	userID := c.GetUint(constants.GinKeyUserID)
	jti := c.GetString(constants.GinKeyJTI)
	if jti == "" {
		logger.WarnWithContext(ctx, "Logout without authenticated token").
			Log()
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
			"auth", constants.MsgUnauthorized, nil))
		return
	}

	payload := &service.TokenPayload{UserID: userID, JTI: jti}
	if err := h.authService.Logout(ctx, payload); err != nil {
		logger.ErrorWithContext(ctx, "Failed to logout user").
			Uint("user_id", userID).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(
			apperrors.GetErrorDomain(err), apperrors.GetErrorMessage(err), nil))
		return
	}

	logger.InfoWithContext(ctx, "User logged out successfully").
		Uint("user_id", userID).
		Log()

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Logout successful"))
}

// LogoutAll revokes every live session for the authenticated user
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "LogoutAll")

	userID := c.GetUint(constants.GinKeyUserID)

	if err := h.authService.LogoutAll(ctx, userID); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke all sessions").
			Uint("user_id", userID).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(
			apperrors.GetErrorDomain(err), apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("All sessions revoked"))
}

// requestInfo collects the transport facts the access auditor records.
func requestInfo(c *gin.Context) dto.RequestInfo {
	return dto.RequestInfo{
		IP:        c.ClientIP(),
		Endpoint:  c.Request.Method + " " + c.Request.URL.Path,
		UserAgent: c.Request.UserAgent(),
		RequestID: ctxutil.GetRequestID(c.Request.Context()),
		Referer:   c.GetHeader(constants.HeaderReferer),
	}
}
