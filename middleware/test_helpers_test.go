// file: middleware/test_helpers_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"ticket-gate/apiclient"
	"ticket-gate/models"
)

// setupTestRouter wires sessions and Authenticate against apiURL. The /test/login
// route stores user in the cookie the way a successful login would.
func setupTestRouter(apiURL string, user models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("testsession", store))
	router.Use(Authenticate(func(sess apiclient.Session, nav apiclient.Navigator) *apiclient.Client {
		return apiclient.New(apiURL, sess, nav)
	}))

	router.GET("/test/login", func(c *gin.Context) {
		_ = CurrentSession(c).SetAuth(user, "token-"+user.Username)
		c.Status(http.StatusNoContent)
	})
	return router
}

// loginCookies performs /test/login and returns the session cookies.
func loginCookies(t *testing.T, router *gin.Engine) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test/login", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "login should set the session cookie")
	return cookies
}

func get(router *gin.Engine, path string, cookies []*http.Cookie, headers ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	router.ServeHTTP(w, req)
	return w
}

var (
	adminUser   = models.User{ID: 1, Username: "boss", Role: models.RoleAdmin}
	otfUser     = models.User{ID: 2, Username: "otf", Role: models.RoleViewer}
	scannerUser = models.User{ID: 3, Username: "verify1", Role: models.RoleScanner}
)

