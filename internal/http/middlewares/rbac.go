package middlewares

import (
	"net/http"

	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole runs after RequireAuth and admits only the listed roles.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := UserFromContext(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		for _, r := range roles {
			if u.Role == r {
				c.Next()
				return
			}
		}

		abortJSON(c, http.StatusForbidden, "forbidden", "You do not have access to this resource")
	}
}
