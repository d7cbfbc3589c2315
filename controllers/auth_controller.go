// file: controllers/auth_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/middleware"
	"ticket-gate/models"
)

// AuthController handles login, logout and registration.
type AuthController struct {
	NewClient     apiclient.Factory
	AdminUsername string
}

// NewAuthController builds the controller. newClient is used for the login call,
// which runs before the request carries a token.
func NewAuthController(newClient apiclient.Factory, adminUsername string) *AuthController {
	return &AuthController{NewClient: newClient, AdminUsername: adminUsername}
}

// homeFor is where a user lands after login.
func (ac *AuthController) homeFor(u models.User) string {
	if middleware.IsAdministrator(u, ac.AdminUsername) {
		return "/dashboard"
	}
	return middleware.ScannerPath
}

// ShowLoginPage renders the login form. ?expired=1 comes from a scanning connection
// that hit a 401: its cookie still holds the dead token, so clear it here.
func (ac *AuthController) ShowLoginPage(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	data := gin.H{}

	if c.Query("expired") == "1" {
		if sess != nil && sess.Authenticated() {
			if err := sess.Logout(); err != nil {
				logger.Error.Printf("[ShowLoginPage] Failed to clear expired session: %v", err)
			}
		}
		data["Error"] = "Your session has expired. Please sign in again."
	} else if sess != nil && sess.Authenticated() {
		user, _ := sess.User()
		c.Redirect(http.StatusFound, ac.homeFor(user))
		return
	}

	data["Flashes"] = takeFlashes(c)
	c.HTML(http.StatusOK, "login.html", data)
}

// PerformLogin exchanges credentials for a token and stores both in the session.
func (ac *AuthController) PerformLogin(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{"Error": "Please enter your username and password.", "Username": username})
		return
	}

	sess := middleware.CurrentSession(c)
	// the login page is already where a 401 would navigate to
	client := ac.NewClient(sess, apiclient.NavigatorFunc(func(string) {}))

	resp, err := client.Auth.Login(c.Request.Context(), username, password)
	if err != nil {
		status := http.StatusBadGateway
		msg := apiclient.Detail(err, "Login failed. Please try again.")
		if errors.Is(err, apiclient.ErrUnauthorized) {
			status = http.StatusUnauthorized
			msg = apiclient.Detail(err, "Invalid username or password.")
		}
		logger.Warn.Printf("[PerformLogin] Login failed for %s: %v", username, err)
		c.HTML(status, "login.html", gin.H{"Error": msg, "Username": username})
		return
	}

	logger.Info.Printf("[PerformLogin] %s logged in (role=%s)", resp.User.Username, resp.User.Role)
	c.Redirect(http.StatusFound, ac.homeFor(resp.User))
}

// Logout clears the session and returns to the login page.
func (ac *AuthController) Logout(c *gin.Context) {
	if client := middleware.API(c); client != nil {
		if err := client.Auth.Logout(); err != nil {
			logger.Error.Printf("[Logout] Error clearing session: %v", err)
		}
	}
	c.Redirect(http.StatusFound, apiclient.LoginPath)
}

// ShowRegisterPage renders the registration form.
func (ac *AuthController) ShowRegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{"Roles": []string{models.RoleViewer, models.RoleScanner, models.RoleAdmin}})
}

// PerformRegister creates an account and sends the user to the login page.
func (ac *AuthController) PerformRegister(c *gin.Context) {
	req := models.RegisterRequest{
		Username: strings.TrimSpace(c.PostForm("username")),
		Email:    strings.TrimSpace(c.PostForm("email")),
		Password: c.PostForm("password"),
		Role:     c.PostForm("role"),
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{"Error": "Please fill in all required fields", "Form": req})
		return
	}

	client := ac.NewClient(middleware.CurrentSession(c), apiclient.NavigatorFunc(func(string) {}))
	user, err := client.Auth.Register(c.Request.Context(), req)
	if err != nil {
		logger.Warn.Printf("[PerformRegister] Registration failed for %s: %v", req.Username, err)
		c.HTML(statusFor(err), "register.html", gin.H{"Error": apiclient.Detail(err, "Registration failed"), "Form": req})
		return
	}

	logger.Info.Printf("[PerformRegister] Created account %s", user.Username)
	addFlash(c, flashSuccess, "Account created. Please sign in.")
	c.Redirect(http.StatusFound, apiclient.LoginPath)
}
