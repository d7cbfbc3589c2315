// Package controllers holds the gate's HTTP handlers.
// file: controllers/page_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/middleware"
)

// Health answers load balancer probes.
func Health(c *gin.Context) {
	logger.Debug.Println("[Health] Health check requested")
	c.String(http.StatusOK, "OK")
}

// Index sends visitors to the dashboard; the access gate takes it from there.
func Index(c *gin.Context) {
	c.Redirect(http.StatusFound, "/dashboard")
}

// ---------------- flash messages ----------------

const (
	flashSuccess = "success"
	flashError   = "error"
)

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Kind    string
	Message string
}

// addFlash queues a message in the cookie session.
func addFlash(c *gin.Context, kind, message string) {
	session := sessions.Default(c)
	session.AddFlash(kind + "|" + message)
	if err := session.Save(); err != nil {
		logger.Error.Printf("[addFlash] Failed to save flash %q: %v", message, err)
	}
}

// takeFlashes pops every queued message. Call it before writing the body.
func takeFlashes(c *gin.Context) []Flash {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		logger.Error.Printf("[takeFlashes] Failed to save session: %v", err)
	}

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		kind, msg, found := strings.Cut(s, "|")
		if !found {
			kind, msg = flashSuccess, s
		}
		out = append(out, Flash{Kind: kind, Message: msg})
	}
	return out
}

// ---------------- shared helpers ----------------

// pathID parses a positive integer route parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		logger.Warn.Printf("[pathID] Bad %s parameter %q", name, c.Param(name))
		c.String(http.StatusBadRequest, "Invalid %s", name)
		return 0, false
	}
	return id, true
}

// failAndRedirect reports a failed API call through a flash message, unless the
// 401 interceptor already answered the request.
func failAndRedirect(c *gin.Context, location, fallback string, err error) {
	if c.IsAborted() {
		return
	}
	logger.Error.Printf("[%s] %s: %v", c.FullPath(), fallback, err)
	addFlash(c, flashError, apiclient.Detail(err, fallback))
	c.Redirect(http.StatusFound, location)
}

// failJSON is failAndRedirect for script callers.
func failJSON(c *gin.Context, fallback string, err error) {
	if c.IsAborted() {
		return
	}
	logger.Error.Printf("[%s] %s: %v", c.FullPath(), fallback, err)
	c.JSON(statusFor(err), gin.H{"error": apiclient.Detail(err, fallback)})
}

// statusFor passes client errors from the ticketing API through and maps anything
// else to 502.
func statusFor(err error) int {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}

func currentUserName(c *gin.Context) string {
	if sess := middleware.CurrentSession(c); sess != nil {
		if u, ok := sess.User(); ok {
			return u.Username
		}
	}
	return ""
}
