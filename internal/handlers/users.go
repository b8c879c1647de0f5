package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qa-tracker/qa-tracker/internal/dto"
	apierrors "github.com/qa-tracker/qa-tracker/internal/errors"
	"github.com/qa-tracker/qa-tracker/internal/middleware"
	"github.com/qa-tracker/qa-tracker/internal/policy"
	"github.com/qa-tracker/qa-tracker/internal/services"
)

// UserHandler coordinates admin user-management HTTP handlers.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// List returns all user accounts.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListUsers()
	if err != nil {
		apierrors.InternalError(c, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToUserDetailDTOs(users),
	})
}

// Approve activates a pending user account.
func (h *UserHandler) Approve(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(c)

	user, err := h.userService.Approve(actorID, userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDetailDTO(*user))
}

// Reject removes a pending user account.
func (h *UserHandler) Reject(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(c)

	if err := h.userService.Reject(actorID, userID); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User rejected",
	})
}

// Update modifies a user's profile, role, or active flag.
func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Role     *string `json:"role"`
		Active   *bool   `json:"active"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Active:   req.Active,
	}
	if req.Role != nil {
		role := policy.Role(*req.Role)
		input.Role = &role
	}

	user, err := h.userService.Update(userID, input)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDetailDTO(*user))
}

// ResetPassword sets a new password for a user.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	type ResetPasswordRequest struct {
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.userService.ResetPassword(userID, req.Password, req.ConfirmPassword); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password updated",
	})
}

// Delete removes a user account.
func (h *UserHandler) Delete(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(c)

	if err := h.userService.Delete(actorID, userID); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted",
	})
}

func parseUserID(c *gin.Context) (uint64, bool) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return 0, false
	}
	return userID, true
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCannotModifySelf):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
