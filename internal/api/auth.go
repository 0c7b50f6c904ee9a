package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/auroraa/watermark-engine/internal/werr"
)

// AuthMiddleware validates bearer tokens against the API auth secret
// (JWT_SECRET_KEY) — a secret wholly independent of the watermarking core's
// HMAC key. Unlike the teacher's dev-mode bypass, there is no unconfigured
// pass-through here: the secret is a required startup input (config.Load
// fails fast without one), so an empty token never reaches this middleware.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			abortAuth(c, "missing Authorization header")
			return
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortAuth(c, "Authorization header must be: Bearer <token>")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), secret) != 1 {
			abortAuth(c, "invalid token")
			return
		}
		c.Next()
	}
}

func abortAuth(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": werr.KindAuth, "message": msg})
	c.Abort()
}
