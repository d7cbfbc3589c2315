// Package middleware provides request filters and security checks for the application.
// File: middleware/authenticate.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/session"
)

// Context keys set by Authenticate.
const (
	sessionContextKey = "gate.session"
	clientContextKey  = "gate.apiclient"
)

// Authenticate restores the client session from the cookie and binds it, together
// with an API client that shares it, to the request. It never blocks a request;
// AuthRequired and AdminRequired do that.
//
// Usage:
//
//	router.Use(sessions.Sessions("gate", store), middleware.Authenticate(newClient))
func Authenticate(newClient apiclient.Factory) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.Restore(session.NewCookieStore(sessions.Default(c)))
		c.Set(sessionContextKey, sess)
		c.Set(clientContextKey, newClient(sess, Navigator(c)))
		c.Next()
	}
}

// CurrentSession returns the session bound by Authenticate, or nil.
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return nil
}

// API returns the request's API client, or nil outside Authenticate.
func API(c *gin.Context) *apiclient.Client {
	if v, ok := c.Get(clientContextKey); ok {
		if client, ok := v.(*apiclient.Client); ok {
			return client
		}
	}
	return nil
}

// Navigator turns the client's 401 navigation into a response for this request:
// a redirect for pages, a 401 JSON body naming the login path for JSON callers.
// Handlers must check c.IsAborted() after a failed call.
func Navigator(c *gin.Context) apiclient.Navigator {
	return apiclient.NavigatorFunc(func(path string) {
		if c.IsAborted() || c.Writer.Written() {
			return
		}
		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired", "redirect": path})
			return
		}
		logger.Info.Printf("[Navigator] Redirecting %s to %s", c.Request.URL.Path, path)
		c.Redirect(http.StatusFound, path)
		c.Abort()
	})
}

// WantsJSON reports whether the caller is script code rather than a page load.
func WantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json") ||
		c.ContentType() == gin.MIMEJSON
}
