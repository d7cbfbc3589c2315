// File: middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ticket-gate/apiclient"
	"ticket-gate/logger"
)

// -------------- authentication middleware --------------

// AuthRequired is a middleware that ensures the user is logged in.
// How it works:
//   - Reads the session bound by Authenticate.
//   - If it holds no token, redirects to "/login" and aborts execution.
//   - Otherwise, the request proceeds.
//
// Usage:
//
//	router.GET("/scanner", middleware.AuthRequired, handler)
func AuthRequired(c *gin.Context) {
	sess := CurrentSession(c)
	if sess == nil || !sess.Authenticated() {
		logger.Warn.Printf("[AuthRequired] No authenticated session for %s", c.Request.URL.Path)
		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "redirect": apiclient.LoginPath})
			return
		}
		c.Redirect(http.StatusFound, apiclient.LoginPath)
		c.Abort() // 🔴 prevents further execution
		return
	}

	logger.Debug.Println("[AuthRequired] User authenticated - proceeding with request")
	c.Next()
}
