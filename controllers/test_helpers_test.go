// file: controllers/test_helpers_test.go
package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"ticket-gate/apiclient"
	"ticket-gate/apiclient/apitest"
	"ticket-gate/middleware"
	"ticket-gate/models"
	"ticket-gate/services"
	"ticket-gate/websocket"
)

const testAdminUsername = "otf"

// setupTestRouter creates a Gin engine with sessions, the access gate and fake HTML
// templates, talking to an in-memory ticketing API.
func setupTestRouter(t *testing.T, encoder services.QRCodeEncoder) (*gin.Engine, *apitest.Server) {
	gin.SetMode(gin.TestMode)
	api := apitest.NewServer(t)
	router := gin.New()

	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("testsession", store))
	newClient := func(sess apiclient.Session, nav apiclient.Navigator) *apiclient.Client {
		return apiclient.New(api.URL, sess, nav)
	}
	router.Use(middleware.Authenticate(newClient))

	// Create minimal templates to avoid panics during testing.
	tmpDir := t.TempDir()
	if err := createDummyTemplates(tmpDir); err != nil {
		t.Fatalf("Failed to create dummy templates: %v", err)
	}
	router.LoadHTMLGlob(filepath.Join(tmpDir, "*.html"))

	auth := NewAuthController(newClient, testAdminUsername)
	router.GET("/login", auth.ShowLoginPage)
	router.POST("/login", auth.PerformLogin)
	router.GET("/register", auth.ShowRegisterPage)
	router.POST("/register", auth.PerformRegister)
	router.GET("/logout", auth.Logout)
	router.GET("/", Index)
	router.GET("/health", Health)

	scan := NewScannerController(websocket.Options{NewClient: newClient})
	sg := router.Group("/scanner", middleware.AuthRequired)
	sg.GET("", scan.ShowScanner)
	sg.POST("/scan", scan.Scan)

	tg := router.Group("/transfers", middleware.AuthRequired)
	tg.GET("", ListPendingTransfers)
	tg.POST("", InitiateTransfer)
	tg.GET("/:id", GetTransfer)
	tg.POST("/:id/accept", AcceptTransfer)
	tg.POST("/:id/reject", RejectTransfer)

	admin := NewAdminController(encoder)
	dg := router.Group("/dashboard", middleware.AdminRequired(testAdminUsername))
	dg.GET("", admin.Dashboard)
	dg.POST("/concerts", admin.CreateConcert)
	dg.POST("/concerts/:id", admin.UpdateConcert)
	dg.GET("/concerts/:id/delete", admin.ConfirmDeleteConcert)
	dg.POST("/concerts/:id/delete", admin.DeleteConcert)
	dg.POST("/concerts/:id/tickets", admin.CreateTicket)
	dg.POST("/concerts/:id/tickets/batch", admin.GenerateBatch)
	dg.GET("/concerts/:id/qr-codes.zip", admin.DownloadConcertQRCodes)
	dg.GET("/tickets/:id", admin.TicketDetail)
	dg.GET("/tickets/:id/qr.png", admin.TicketQR)
	dg.POST("/tickets/:id/sold", admin.MarkSold)
	dg.GET("/tickets/:id/delete", admin.ConfirmDeleteTicket)
	dg.POST("/tickets/:id/delete", admin.DeleteTicket)

	return router, api
}

// createDummyTemplates writes templates that print the fields the tests look at.
func createDummyTemplates(dir string) error {
	flashes := `{{range .Flashes}}[{{.Kind}}:{{.Message}}]{{end}}`
	templates := map[string]string{
		"login.html":     `<html><body>ERROR={{.Error}} FLASH=` + flashes + `</body></html>`,
		"register.html":  `<html><body>ERROR={{.Error}}</body></html>`,
		"confirm.html":   `<html><body>{{.Title}}: {{.Message}} ACTION={{.Action}} CANCEL={{.Cancel}}</body></html>`,
		"ticket.html":    `<html><body>TICKET={{.Ticket.TicketNumber}} STATUS={{.Ticket.Status}} SCANS={{range .Scans}}{{.ScanType}};{{end}} FLASH=` + flashes + `</body></html>`,
		"scanner.html":   `<html><body>MODE={{.Mode}} BANNER={{.Banner}} WS={{.WebsocketPath}} SECS={{.DisplaySeconds}}</body></html>`,
		"dashboard.html": `<html><body>ERROR={{.Error}} VIEW={{.View}} CONCERTS={{range .Concerts}}[{{.Name}}]{{end}} SELECTED={{with .Selected}}{{.Name}}{{end}} TICKETS={{range .Tickets}}[{{.TicketNumber}}]{{end}} RATE={{with .Attendance}}{{.AttendanceRate}}{{end}} FLASH=` + flashes + `</body></html>`,
	}

	for name, content := range templates {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// ---------- browser ----------

// browser replays cookies between requests the way a real browser would.
type browser struct {
	t      *testing.T
	router *gin.Engine
	jar    map[string]*http.Cookie
}

func newBrowser(t *testing.T, router *gin.Engine) *browser {
	return &browser{t: t, router: router, jar: map[string]*http.Cookie{}}
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range b.jar {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(b.jar, ck.Name)
			continue
		}
		b.jar[ck.Name] = ck
	}
	return w
}

func (b *browser) get(path string, headers ...string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return b.send(req)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.send(req)
}

func (b *browser) postJSON(path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return b.send(req)
}

// login signs in through the real login form.
func (b *browser) login(username, password string) *httptest.ResponseRecorder {
	b.t.Helper()
	w := b.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, http.StatusFound, w.Code, "login should redirect; body: %s", w.Body.String())
	return w
}

// ---------- fixtures ----------

var (
	adminUser  = models.User{Username: "boss", Role: models.RoleAdmin}
	verifyUser = models.User{Username: "verify1", Role: models.RoleScanner}
	salesUser  = models.User{Username: "sales1", Role: models.RoleScanner}
)

// signedIn seeds user on the API and returns a browser logged in as them.
func signedIn(t *testing.T, router *gin.Engine, api *apitest.Server, user models.User) *browser {
	api.AddUser(user, "pw")
	b := newBrowser(t, router)
	b.login(user.Username, "pw")
	return b
}

func seedConcert(api *apitest.Server, name string) models.Concert {
	return api.AddConcert(models.Concert{Name: name, Venue: "Arena", Date: "2026-07-01T19:00:00"})
}
