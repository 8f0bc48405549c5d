package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/surdiana/auth-service/internal/constants"
	apperrors "github.com/surdiana/auth-service/internal/errors"
	"github.com/surdiana/auth-service/internal/service"
	ctxutil "github.com/surdiana/auth-service/pkg/context"
	"github.com/surdiana/auth-service/pkg/logger"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Me returns the authenticated user's profile
func (h *UserHandler) Me(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "Me")

	userID := c.GetUint(constants.GinKeyUserID)

	summary, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to load own profile").
			Uint("user_id", userID).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(
			apperrors.GetErrorDomain(err), apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetByID returns a user's public profile by id
func (h *UserHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "GetUserByID")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			"user", constants.MsgBadRequest, "id must be a positive integer"))
		return
	}

	summary, err := h.userService.GetByID(ctx, uint(id))
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to load user").
			Uint("user_id", uint(id)).
			Err(err).
			Log()
		// Profile lookups are not login attempts; a missing user here is a
		// plain 404, not credential probing.
		status := apperrors.ToHTTPStatus(err)
		if errors.Is(err, apperrors.ErrIdentityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, constants.BuildErrorResponse(
			apperrors.GetErrorDomain(err), apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, summary)
}

// AccessHistory returns the authenticated user's recent login audit entries
func (h *UserHandler) AccessHistory(c *gin.Context) {
	ctx := ctxutil.WithOperation(c.Request.Context(), "handler", "AccessHistory")

	userID := c.GetUint(constants.GinKeyUserID)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	entries, err := h.userService.GetAccessHistory(ctx, userID, limit)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to load access history").
			Uint("user_id", userID).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(
			apperrors.GetErrorDomain(err), apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
