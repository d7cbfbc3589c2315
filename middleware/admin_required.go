// file: middleware/admin_required.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/models"
)

// ScannerPath is where authenticated non-administrators are sent.
const ScannerPath = "/scanner"

// IsAdministrator reports whether u may use the dashboard: an admin role, or the
// configured administrator account.
func IsAdministrator(u models.User, adminUsername string) bool {
	return u.Role == models.RoleAdmin || (adminUsername != "" && u.Username == adminUsername)
}

// AdminRequired lets administrators through. Anonymous visitors go to the login
// page and everyone else to the scanner.
func AdminRequired(adminUsername string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil || !sess.Authenticated() {
			logger.Warn.Println("[AdminRequired] Anonymous request blocked")
			c.Redirect(http.StatusFound, apiclient.LoginPath)
			c.Abort()
			return
		}

		user, _ := sess.User()
		if !IsAdministrator(user, adminUsername) {
			logger.Warn.Printf("[AdminRequired] %s is not an administrator, sending to scanner", user.Username)
			c.Redirect(http.StatusFound, ScannerPath)
			c.Abort() // 🔴 Prevents further execution
			return
		}

		logger.Debug.Println("[AdminRequired] Passed, continuing request")
		c.Next()
	}
}
