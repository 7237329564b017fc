package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes payload with a strong content hash ETag and
// answers 304 when the client already holds the same representation.
// Responses are private and always revalidated.
func RespondJSONWithETag(ctx *gin.Context, status int, payload any) {
	ctx.Header("Cache-Control", "private, no-cache")

	etag, err := contentETag(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}
	ctx.Header("ETag", etag)

	if status == http.StatusOK && etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, payload)
}

func contentETag(payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

// etagMatches implements the weak comparison If-None-Match asks for.
func etagMatches(header, current string) bool {
	header = strings.TrimSpace(header)
	if header == "" || current == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		if stripWeak(candidate) == stripWeak(current) {
			return true
		}
	}
	return false
}

func stripWeak(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "W/")
}
