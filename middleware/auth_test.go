// file: middleware/auth_test.go
package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func protectedRouter() *gin.Engine {
	router := setupTestRouter("http://127.0.0.1:0", scannerUser)
	router.GET("/protected", AuthRequired, func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the protected page")
	})
	return router
}

// Test: Unauthenticated users should be redirected to `/login`
func TestAuthRequired_Unauthenticated(t *testing.T) {
	router := protectedRouter()

	w := get(router, "/protected", nil)

	assert.Equal(t, http.StatusFound, w.Code, "Expected 302 Redirect")
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

// Test: JSON callers get a 401 body instead of a redirect
func TestAuthRequired_UnauthenticatedJSON(t *testing.T) {
	router := protectedRouter()

	w := get(router, "/protected", nil, "Accept", "application/json")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)
}

// Test: Authenticated users should access the protected route
func TestAuthRequired_Authenticated(t *testing.T) {
	router := protectedRouter()
	cookies := loginCookies(t, router)

	w := get(router, "/protected", cookies)

	assert.Equal(t, http.StatusOK, w.Code, "Expected 200 OK for authenticated user")
	assert.Contains(t, w.Body.String(), "Welcome to the protected page")
}

func TestAuthenticate_BindsSessionAndClient(t *testing.T) {
	router := protectedRouter()
	router.GET("/whoami", func(c *gin.Context) {
		sess := CurrentSession(c)
		user, ok := sess.User()
		c.JSON(http.StatusOK, gin.H{"user": user.Username, "ok": ok, "client": API(c) != nil})
	})
	cookies := loginCookies(t, router)

	w := get(router, "/whoami", cookies)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"verify1","ok":true,"client":true}`, w.Body.String())
}
