package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/geocoder89/roleboard/internal/auth"
	"github.com/geocoder89/roleboard/internal/auth/revocation"
	"github.com/geocoder89/roleboard/internal/config"
	"github.com/geocoder89/roleboard/internal/credentials"
	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/geocoder89/roleboard/internal/http/middlewares"
	"github.com/geocoder89/roleboard/internal/notifications"
	"github.com/geocoder89/roleboard/internal/observability"
	"github.com/geocoder89/roleboard/internal/security"
	"github.com/gin-gonic/gin"
)

type CredentialChecker interface {
	Authenticate(ctx context.Context, email, plain string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	SetPassword(ctx context.Context, id, plain string) error
}

type AuthHandler struct {
	users       CredentialChecker
	jwt         *auth.Manager
	revoked     revocation.Store
	notifier    notifications.Notifier
	prom        *observability.Prom
	frontendURL string
	log         *slog.Logger
}

func NewAuthHandler(users CredentialChecker, jwtManager *auth.Manager, revoked revocation.Store, notifier notifications.Notifier, prom *observability.Prom, frontendURL string, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		users:       users,
		jwt:         jwtManager,
		revoked:     revoked,
		notifier:    notifier,
		prom:        prom,
		frontendURL: frontendURL,
		log:         log,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  user.Summary `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=6,max=72"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	foundUser, err := h.users.Authenticate(cctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrInvalidCredentials) {
			h.prom.ObserveLogin("invalid")
			RespondBadRequestCode(ctx, "invalid_credentials", "Invalid email or password")
			return
		}
		h.prom.ObserveLogin("error")
		h.log.ErrorContext(cctx, "login_failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	token, err := h.jwt.IssueSessionToken(foundUser.ID, string(foundUser.Role))
	if err != nil {
		h.prom.ObserveLogin("error")
		RespondInternal(ctx, "Could not generate token")
		return
	}

	h.prom.ObserveLogin("ok")

	ctx.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  foundUser.Summary(),
	})
}

func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	u, err := h.users.FindByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		h.log.ErrorContext(cctx, "forgot_password_lookup_failed", "err", err)
		RespondInternal(ctx, "Could not process request")
		return
	}

	token, err := h.jwt.IssueResetToken(u.ID)
	if err != nil {
		RespondInternal(ctx, "Could not generate reset token")
		return
	}

	err = h.notifier.SendPasswordReset(cctx, notifications.PasswordResetInput{
		Email:     u.Email,
		Name:      u.Name,
		ResetLink: h.frontendURL + "/reset-password/" + url.PathEscape(token),
		ExpiresIn: h.jwt.ResetTTL(),
	})
	if err != nil {
		h.prom.ObserveResetMail("failed")
		h.log.ErrorContext(cctx, "reset_mail_failed", "user_id", u.ID, "err", err)
		RespondInternal(ctx, "Could not send reset email")
		return
	}

	h.prom.ObserveResetMail("sent")
	RespondMessage(ctx, http.StatusOK, "Password reset link sent to your email")
}

// ResetPassword accepts a reset token once. Invalid, expired, already used
// and orphaned tokens all get the same 400.
func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.jwt.VerifyResetToken(ctx.Param("token"))
	if err != nil {
		RespondBadRequestCode(ctx, "invalid_token", "Invalid or expired token")
		return
	}

	if err := security.ValidatePassword(req.NewPassword); err != nil {
		RespondBadRequestCode(ctx, "invalid_request", err.Error())
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.users.FindByID(cctx, claims.UserID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondBadRequestCode(ctx, "invalid_token", "Invalid or expired token")
			return
		}
		RespondInternal(ctx, "Could not reset password")
		return
	}

	first, err := h.revoked.Consume(cctx, claims.JTI, claims.ExpiresAtTime())
	if err != nil {
		h.log.ErrorContext(cctx, "reset_token_consume_failed", "err", err)
		RespondInternal(ctx, "Could not reset password")
		return
	}
	if !first {
		RespondBadRequestCode(ctx, "invalid_token", "Invalid or expired token")
		return
	}

	if err := h.users.SetPassword(cctx, claims.UserID, req.NewPassword); err != nil {
		// the password never changed, so the link stays good for a retry
		if rerr := h.revoked.Release(context.WithoutCancel(cctx), claims.JTI); rerr != nil {
			h.log.ErrorContext(cctx, "reset_token_release_failed", "err", rerr)
		}

		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondBadRequestCode(ctx, "invalid_token", "Invalid or expired token")
			return
		case errors.Is(err, security.ErrEmptyPassword), errors.Is(err, security.ErrPasswordTooLong):
			RespondBadRequestCode(ctx, "invalid_request", err.Error())
			return
		}
		h.log.ErrorContext(cctx, "reset_password_failed", "user_id", claims.UserID, "err", err)
		RespondInternal(ctx, "Could not reset password")
		return
	}

	RespondMessage(ctx, http.StatusOK, "Password has been reset")
}

// Logout revokes the presented session token until it would have expired.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	claims, ok := middlewares.ClaimsFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.revoked.Revoke(cctx, claims.JTI, claims.ExpiresAtTime()); err != nil {
		h.log.ErrorContext(cctx, "logout_revoke_failed", "err", err)
		RespondInternal(ctx, "Could not log out")
		return
	}

	ctx.Status(http.StatusNoContent)
}
