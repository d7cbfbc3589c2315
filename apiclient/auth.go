// File: apiclient/auth.go
package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"ticket-gate/models"
)

// AuthAPI covers /api/auth.
type AuthAPI struct{ c *Client }

// Register creates an account. An empty role defaults to viewer.
func (a *AuthAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleViewer
	}
	var out models.User
	if err := a.c.do(ctx, http.MethodPost, "/api/auth/register", "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and persists the token and user into the session.
func (a *AuthAPI) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := a.c.do(ctx, http.MethodPost, "/api/auth/login", "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	if err := a.c.session.SetAuth(out.User, out.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return &out, nil
}

// Logout clears the session. No call is made; tokens are not revocable.
func (a *AuthAPI) Logout() error {
	return a.c.session.Logout()
}
