package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/roleboard/internal/config"
	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/geocoder89/roleboard/internal/http/middlewares"
	"github.com/geocoder89/roleboard/internal/security"
	"github.com/gin-gonic/gin"
)

type UserManager interface {
	Create(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, role *user.Role) ([]user.User, error)
	Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
	UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	users UserManager
	log   *slog.Logger
}

func NewUsersHandler(users UserManager, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{users: users, log: log}
}

// respondUserError maps credential store errors onto HTTP responses.
func (h *UsersHandler) respondUserError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "Email is already in use")
	case errors.Is(err, user.ErrInvalidRole):
		RespondBadRequestCode(ctx, "invalid_role", "Role must be admin or user")
	case errors.Is(err, user.ErrMissingField), errors.Is(err, security.ErrEmptyPassword),
		errors.Is(err, security.ErrPasswordTooLong):
		RespondBadRequestCode(ctx, "invalid_request", err.Error())
	default:
		h.log.ErrorContext(ctx.Request.Context(), "user_op_failed", "err", err)
		RespondInternal(ctx, fallback)
	}
}

func (h *UsersHandler) Create(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req)
	if err != nil {
		h.respondUserError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

// List returns accounts with role user, each with its task ids.
func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	role := user.RoleUser
	users, err := h.users.List(cctx, &role)
	if err != nil {
		h.respondUserError(ctx, err, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		h.respondUserError(ctx, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.users.Delete(cctx, ctx.Param("id")); err != nil {
		h.respondUserError(ctx, err, "Could not delete user")
		return
	}

	RespondMessage(ctx, http.StatusOK, "User deleted")
}

func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	me, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	ctx.JSON(http.StatusOK, me)
}

func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	me, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.UpdateProfile(cctx, me.ID, req)
	if err != nil {
		h.respondUserError(ctx, err, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
