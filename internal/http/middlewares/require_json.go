package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects bodies that are not JSON. Requests without a body pass.
func RequireJSON() gin.HandlerFunc {
	return RequireContentType("application/json")
}

// RequireContentType answers 415 when a POST, PUT or PATCH body's media type
// is not one of types. Parameters such as charset or boundary are ignored.
func RequireContentType(types ...string) gin.HandlerFunc {
	want := strings.Join(types, " or ")

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil || !containsFold(types, mt) {
				abortJSON(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be "+want)
				return
			}
		}
		c.Next()
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
