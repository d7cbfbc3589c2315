// Package models defines data structures exchanged with the ticketing API.
// File: models/user.go
package models

// ----------------------- user model -----------------------

// Role values the ticketing API assigns to accounts.
const (
	RoleAdmin   = "admin"
	RoleScanner = "scanner"
	RoleViewer  = "viewer"
)

// User is the account attached to an access token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// ----------------------- auth payloads -----------------------

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}
