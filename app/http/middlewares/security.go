package middlewares

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"spinwheel/pkg/config"
	"spinwheel/pkg/response"
)

// SecurityHeaders sets the usual hardening headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Next()
	}
}

// Cors allows the wheel page to call the API from the browser.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", config.GetString("app.cors_origin", "*"))
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Admin-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// AdminToken lets through requests carrying app.admin_token in X-Admin-Token.
// With no token configured every request is refused.
func AdminToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		want := config.GetString("app.admin_token")
		got := c.GetHeader("X-Admin-Token")
		if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
			response.Abort401(c)
			return
		}
		c.Next()
	}
}
