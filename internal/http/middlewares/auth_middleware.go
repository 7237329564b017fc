package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/roleboard/internal/actorctx"
	"github.com/geocoder89/roleboard/internal/auth"
	"github.com/geocoder89/roleboard/internal/auth/revocation"
	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	VerifySessionToken(token string) (*auth.Claims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt     TokenVerifier
	revoked revocation.Store
	users   UserFinder
}

func NewAuthMiddleware(jwt TokenVerifier, revoked revocation.Store, users UserFinder) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, revoked: revoked, users: users}
}

// RequireAuth admits requests carrying a valid, unrevoked session token for
// a user that still exists. The user is stored on both the gin context and
// the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		claims, err := m.jwt.VerifySessionToken(raw)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		ctx := c.Request.Context()

		if m.revoked != nil {
			revoked, err := m.revoked.IsRevoked(ctx, claims.JTI)
			if err != nil {
				slog.Default().ErrorContext(ctx, "revocation_check_failed", "err", err)
				abortJSON(c, http.StatusInternalServerError, "internal_error", "Could not verify session")
				return
			}
			if revoked {
				abortJSON(c, http.StatusUnauthorized, "unauthorized", "Session has been logged out")
				return
			}
		}

		u, err := m.users.FindByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				abortJSON(c, http.StatusUnauthorized, "unauthorized", "User no longer exists")
				return
			}
			slog.Default().ErrorContext(ctx, "auth_user_lookup_failed", "err", err)
			abortJSON(c, http.StatusInternalServerError, "internal_error", "Could not verify session")
			return
		}

		c.Set(CtxUser, u)
		c.Set(CtxClaims, claims)
		c.Request = c.Request.WithContext(actorctx.WithUser(ctx, u))

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// Helpers so handlers don't need to know the context keys.

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}
