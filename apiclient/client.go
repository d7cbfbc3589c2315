// Package apiclient is the HTTP client for the external ticketing API. It attaches the
// session's bearer token to every request and treats any 401 as the end of the
// session, whichever call produced it.
// File: apiclient/client.go
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"ticket-gate/logger"
	"ticket-gate/models"
)

// LoginPath is where a 401 sends the client.
const LoginPath = "/login"

var (
	// ErrUnauthorized is wrapped by every 401 APIError.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is wrapped by every 404 APIError.
	ErrNotFound = errors.New("not found")
)

// Session is the authentication state the client reads and, on login, logout or
// a 401, writes.
type Session interface {
	Token() string
	SetAuth(user models.User, token string) error
	Logout() error
}

// Navigator moves the client to another view.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Observer is told about every completed call. status is 0 for transport failures.
type Observer interface {
	ObserveAPICall(method, route string, status int, elapsed time.Duration)
}

// APIError is a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: unexpected status code: %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap maps well-known statuses onto sentinels for errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Detail returns the server-reported detail carried by err, or fallback.
func Detail(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// Download is a binary response such as a QR PNG or a zip of them.
type Download struct {
	ContentType string
	Filename    string
	Body        []byte
}

// Factory builds a client for one session; the gate builds one per request or
// scanning connection.
type Factory func(sess Session, nav Navigator) *Client

// Client issues one network call per method: no retry, no caching, no batching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	nav        Navigator
	observer   Observer
	userAgent  string

	Auth      *AuthAPI
	Concerts  *ConcertAPI
	Tickets   *TicketAPI
	Scans     *ScanAPI
	Transfers *TransferAPI
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver reports each call to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New builds a client bound to one session and one navigator.
func New(baseURL string, sess Session, nav Navigator, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		session:    sess,
		nav:        nav,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthAPI{c: c}
	c.Concerts = &ConcertAPI{c: c}
	c.Tickets = &TicketAPI{c: c}
	c.Scans = &ScanAPI{c: c}
	c.Transfers = &TransferAPI{c: c}
	return c
}

// ---------------- request plumbing ----------------

// send performs the request and returns a 2xx response whose body the caller must
// close. route is the path template used as a metrics label.
func (c *Client) send(ctx context.Context, method, route, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, route, 0, start)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.observe(method, route, resp.StatusCode, start)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Detail:     parseDetail(raw),
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthorized(method, path)
	}
	return nil, apiErr
}

// unauthorized is the global 401 interceptor.
func (c *Client) unauthorized(method, path string) {
	logger.Warn.Printf("[apiclient] 401 from %s %s; clearing session", method, path)
	if err := c.session.Logout(); err != nil {
		logger.Error.Printf("[apiclient] Failed to clear session after 401: %v", err)
	}
	if c.nav != nil {
		c.nav.Navigate(LoginPath)
	}
}

func (c *Client) observe(method, route string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveAPICall(method, route, status, time.Since(start))
	}
}

// do sends the request and decodes a JSON body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, method, route, path string, in, out any) error {
	resp, err := c.send(ctx, method, route, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// download fetches a binary body. The filename comes from Content-Disposition when
// the server sends one.
func (c *Client) download(ctx context.Context, route, path, fallbackName string) (*Download, error) {
	resp, err := c.send(ctx, http.MethodGet, route, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	d := &Download{
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    fallbackName,
		Body:        body,
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			d.Filename = params["filename"]
		}
	}
	return d, nil
}

// parseDetail understands FastAPI error bodies: {"detail": "..."} and
// {"detail": [{"msg": "..."}, ...]}.
func parseDetail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
