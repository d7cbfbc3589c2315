// file: apiclient/client_test.go
package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ticket-gate/apiclient/apitest"
	"ticket-gate/models"
	"ticket-gate/session"
)

// recordingNav remembers every navigation.
type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNav) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveAPICall(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	o.calls = append(o.calls, method+" "+route+" "+http.StatusText(status))
	o.mu.Unlock()
}

var adminUser = models.User{Username: "otf", Role: models.RoleAdmin}

func newTestClient(t *testing.T, baseURL string, snap session.Snapshot) (*Client, *session.Session, *recordingNav) {
	t.Helper()
	sess := session.Restore(session.NewMemoryStore(snap))
	nav := &recordingNav{}
	return New(baseURL, sess, nav), sess, nav
}

func TestSend_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, _, _ := newTestClient(t, srv.URL, session.Snapshot{Token: "abc", User: adminUser})
	_, err := client.Concerts.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestSend_NoTokenNoHeader(t *testing.T) {
	var gotAuth = "unset"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"access_token":"t","user":{"username":"otf","role":"admin"}}`))
	}))
	defer srv.Close()

	client, sess, _ := newTestClient(t, srv.URL, session.Snapshot{})
	_, err := client.Auth.Login(context.Background(), "otf", "pw")

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "t", sess.Token(), "login persists the token")
}

// Any group's 401 ends the session and navigates to the login view.
func TestUnauthorized_FromEveryGroup(t *testing.T) {
	api := apitest.NewServer(t)
	token := api.AddUser(adminUser, "pw")
	concert := api.AddConcert(models.Concert{Name: "Fest", Venue: "Arena", Date: "2026-07-01"})
	ticket := api.AddTicket(models.Ticket{TicketNumber: "T-001", ConcertID: concert.ID})
	api.Expire()

	calls := map[string]func(c *Client) error{
		"concerts": func(c *Client) error { _, err := c.Concerts.Get(context.Background(), concert.ID); return err },
		"tickets":  func(c *Client) error { _, err := c.Tickets.GetByNumber(context.Background(), "T-001"); return err },
		"scans": func(c *Client) error {
			_, err := c.Scans.Create(context.Background(), models.ScanCreate{TicketID: ticket.ID, ScanType: models.ScanAttendance})
			return err
		},
		"transfers": func(c *Client) error { _, err := c.Transfers.Pending(context.Background()); return err },
		"downloads": func(c *Client) error { _, err := c.Tickets.DownloadQR(context.Background(), ticket.ID, "x.png"); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			client, sess, nav := newTestClient(t, api.URL, session.Snapshot{Token: token, User: adminUser})

			err := call(client)

			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.False(t, sess.Authenticated())
			assert.Empty(t, sess.Token())
			assert.Equal(t, []string{LoginPath}, nav.Paths())
		})
	}
}

func TestLogin_BadCredentialsAlsoNavigate(t *testing.T) {
	api := apitest.NewServer(t)
	api.AddUser(adminUser, "pw")

	client, sess, nav := newTestClient(t, api.URL, session.Snapshot{})
	_, err := client.Auth.Login(context.Background(), "otf", "wrong")

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Incorrect username or password", Detail(err, "fallback"))
	assert.False(t, sess.Authenticated())
	assert.Equal(t, []string{LoginPath}, nav.Paths())
}

func TestAPIError_Detail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Ticket not found"}`, "Ticket not found"},
		{"validation list", `{"detail":[{"msg":"field required"},{"msg":"value too large"}]}`, "field required; value too large"},
		{"no detail", `{"error":"boom"}`, "fallback"},
		{"not json", `<html>bad gateway</html>`, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, sess, nav := newTestClient(t, srv.URL, session.Snapshot{Token: "abc", User: adminUser})
			_, err := client.Concerts.Get(context.Background(), 1)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			assert.Equal(t, tt.want, Detail(err, "fallback"))
			assert.True(t, sess.Authenticated(), "only a 401 clears the session")
			assert.Empty(t, nav.Paths())
		})
	}
}

func TestNotFound_IsSentinel(t *testing.T) {
	api := apitest.NewServer(t)
	token := api.AddUser(adminUser, "pw")

	client, _, _ := newTestClient(t, api.URL, session.Snapshot{Token: token, User: adminUser})
	_, err := client.Tickets.GetByNumber(context.Background(), "NOPE")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Ticket not found", Detail(err, ""))
}

func TestObserver_SeesRouteTemplates(t *testing.T) {
	api := apitest.NewServer(t)
	token := api.AddUser(adminUser, "pw")
	obs := &recordingObserver{}

	sess := session.Restore(session.NewMemoryStore(session.Snapshot{Token: token, User: adminUser}))
	client := New(api.URL, sess, &recordingNav{}, WithObserver(obs))
	_, _ = client.Concerts.Get(context.Background(), 42)

	assert.Equal(t, []string{"GET /api/concerts/{id} Not Found"}, obs.calls)
}

func TestTransportError_NoNavigation(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, sess, nav := newTestClient(t, url, session.Snapshot{Token: "abc", User: adminUser})
	_, err := client.Concerts.List(context.Background())

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.True(t, sess.Authenticated())
	assert.Empty(t, nav.Paths())
}
