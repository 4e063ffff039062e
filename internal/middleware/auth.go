package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Auth error codes returned to clients
const (
	CodeAuthRequired      = "AUTH_REQUIRED"
	CodeAuthInvalidFormat = "AUTH_INVALID_FORMAT"
	CodeAuthInvalidKey    = "AUTH_INVALID_KEY"
)

// AdminAuth guards cache administration routes with a shared admin key.
// An empty key disables authentication (local development).
type AdminAuth struct {
	key string
}

func NewAdminAuth(key string) *AdminAuth {
	return &AdminAuth{key: strings.TrimSpace(key)}
}

// Enabled reports whether an admin key is configured
func (a *AdminAuth) Enabled() bool {
	return a.key != ""
}

// check validates an "Authorization: Bearer <key>" header value.
func (a *AdminAuth) check(header string) (code, message string, ok bool) {
	if header == "" {
		return CodeAuthRequired, "Authorization header required", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return CodeAuthInvalidFormat, "Invalid authorization format. Use: Bearer <admin_key>", false
	}

	// Constant-time comparison to prevent timing attacks
	if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(a.key)) != 1 {
		return CodeAuthInvalidKey, "Invalid admin key", false
	}
	return "", "", true
}

// Require returns middleware that rejects requests without the admin key.
func (a *AdminAuth) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		if code, message, ok := a.check(c.GetHeader("Authorization")); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": message,
				"code":  code,
			})
			return
		}

		c.Next()
	}
}

// Verify lets clients check whether their stored key is still valid.
func (a *AdminAuth) Verify(c *gin.Context) {
	if !a.Enabled() {
		c.JSON(http.StatusOK, gin.H{
			"valid":        true,
			"auth_enabled": false,
			"message":      "Authentication is not configured",
		})
		return
	}

	if code, message, ok := a.check(c.GetHeader("Authorization")); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"valid": false,
			"error": message,
			"code":  code,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":        true,
		"auth_enabled": true,
	})
}

// Status reports whether authentication is enabled. Public endpoint.
func (a *AdminAuth) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"auth_enabled": a.Enabled(),
	})
}
