// Package apitest runs an in-memory stand-in for the ticketing API, in the manner of
// net/http/httptest. It records every call so tests can assert what was (and was
// not) sent.
// File: apiclient/apitest/server.go
package apitest

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"ticket-gate/models"
)

// Server is the fake API. Exported helpers seed its state.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	nextID    int64
	passwords map[string]string
	users     map[string]models.User
	tokens    map[string]models.User
	concerts  map[int64]models.Concert
	tickets   map[int64]models.Ticket
	scans     []models.Scan
	transfers map[int64]models.Transfer
	calls     []string
	expired   bool
	failures  map[string]int
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		nextID:    100,
		passwords: map[string]string{},
		users:     map[string]models.User{},
		tokens:    map[string]models.User{},
		concerts:  map[int64]models.Concert{},
		tickets:   map[int64]models.Ticket{},
		transfers: map[int64]models.Transfer{},
		failures:  map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// ---------------- seeding ----------------

// AddUser registers an account and returns a token that authenticates it.
func (s *Server) AddUser(u models.User, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.Username] = u
	s.passwords[u.Username] = password
	token := "token-" + u.Username
	s.tokens[token] = u
	return token
}

// AddConcert stores c, assigning an id when it has none.
func (s *Server) AddConcert(c models.Concert) models.Concert {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.concerts[c.ID] = c
	return c
}

// AddTicket stores t, assigning an id when it has none.
func (s *Server) AddTicket(t models.Ticket) models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.id()
	}
	if t.Status == "" {
		t.Status = models.StatusIssued
	}
	if t.QRCodeData == "" && t.TicketNumber != "" {
		// the backend renders the image once, at issue time
		if png, err := qrcode.Encode(t.QRPayload(), qrcode.Medium, 128); err == nil {
			t.QRCodeData = base64.StdEncoding.EncodeToString(png)
		}
	}
	s.tickets[t.ID] = t
	return t
}

// qrImage returns the PNG stored with t.
func qrImage(t models.Ticket) ([]byte, error) {
	if t.QRCodeData == "" {
		return nil, fmt.Errorf("ticket %s has no QR code", t.TicketNumber)
	}
	return base64.StdEncoding.DecodeString(t.QRCodeData)
}

// AddTransfer stores tr, assigning an id when it has none.
func (s *Server) AddTransfer(tr models.Transfer) models.Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tr.ID == 0 {
		tr.ID = s.id()
	}
	s.transfers[tr.ID] = tr
	return tr
}

// Expire makes every call that needs a token answer 401.
func (s *Server) Expire() {
	s.mu.Lock()
	s.expired = true
	s.mu.Unlock()
}

// FailNext makes the next n calls to "METHOD /path" answer 500.
func (s *Server) FailNext(call string, n int) {
	s.mu.Lock()
	s.failures[call] = n
	s.mu.Unlock()
}

// ---------------- inspection ----------------

// Calls lists every request as "METHOD /path" in arrival order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount counts requests whose "METHOD /path" starts with prefix.
func (s *Server) CallCount(prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Scans returns every recorded scan.
func (s *Server) Scans() []models.Scan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Scan(nil), s.scans...)
}

// Ticket returns the stored ticket with id.
func (s *Server) Ticket(id int64) (models.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	return t, ok
}

// Concert returns the stored concert with id.
func (s *Server) Concert(id int64) (models.Concert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.concerts[id]
	return c, ok
}

// ---------------- routing ----------------

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	call := r.Method + " " + r.URL.Path

	s.mu.Lock()
	s.calls = append(s.calls, call)
	failing := s.failures[call] > 0
	if failing {
		s.failures[call]--
	}
	s.mu.Unlock()

	if failing {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "api" {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}

	if parts[1] == "auth" {
		s.serveAuth(w, r, parts[2:])
		return
	}

	user, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	switch parts[1] {
	case "concerts":
		s.serveConcerts(w, r, parts[2:])
	case "tickets":
		s.serveTickets(w, r, parts[2:])
	case "scans":
		s.serveScans(w, r, parts[2:], user)
	case "transfers":
		s.serveTransfers(w, r, parts[2:], user)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Server) authenticate(r *http.Request) (models.User, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	if !found || s.expired {
		return models.User{}, false
	}
	u, ok := s.tokens[token]
	return u, ok
}

func (s *Server) serveAuth(w http.ResponseWriter, r *http.Request, parts []string) {
	if r.Method != http.MethodPost || len(parts) != 1 {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	switch parts[0] {
	case "login":
		var req models.LoginRequest
		if !readJSON(w, r, &req) {
			return
		}
		s.mu.Lock()
		u, ok := s.users[req.Username]
		good := ok && s.passwords[req.Username] == req.Password
		s.mu.Unlock()
		if !good {
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		writeJSON(w, http.StatusOK, models.AuthResponse{AccessToken: "token-" + u.Username, TokenType: "bearer", User: u})
	case "register":
		var req models.RegisterRequest
		if !readJSON(w, r, &req) {
			return
		}
		s.mu.Lock()
		_, taken := s.users[req.Username]
		s.mu.Unlock()
		if taken {
			writeDetail(w, http.StatusBadRequest, "Username already registered")
			return
		}
		u := models.User{Username: req.Username, Email: req.Email, Role: req.Role}
		s.AddUser(u, req.Password)
		s.mu.Lock()
		u = s.users[req.Username]
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, u)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Server) serveConcerts(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 || parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			s.mu.Lock()
			out := make([]models.Concert, 0, len(s.concerts))
			for _, c := range s.concerts {
				out = append(out, c)
			}
			s.mu.Unlock()
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			writeJSON(w, http.StatusOK, out)
		case http.MethodPost:
			var in models.ConcertInput
			if !readJSON(w, r, &in) {
				return
			}
			c := s.AddConcert(models.Concert{Name: in.Name, Venue: in.Venue, Date: in.Date, Description: in.Description})
			writeJSON(w, http.StatusOK, c)
		}
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeValidation(w, "id", "value is not a valid integer")
		return
	}
	s.mu.Lock()
	c, ok := s.concerts[id]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Concert not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut:
		var in models.ConcertInput
		if !readJSON(w, r, &in) {
			return
		}
		c.Name, c.Venue, c.Date, c.Description = in.Name, in.Venue, in.Date, in.Description
		s.AddConcert(c)
		writeJSON(w, http.StatusOK, c)
	case http.MethodDelete:
		s.mu.Lock()
		delete(s.concerts, id)
		for tid, t := range s.tickets {
			if t.ConcertID == id {
				delete(s.tickets, tid)
			}
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "Concert deleted"})
	}
}

func (s *Server) serveTickets(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case r.Method == http.MethodPost && len(parts) == 2 && parts[0] == "create":
		concertID, ok := s.concertParam(w, parts[1])
		if !ok {
			return
		}
		t := s.issue(concertID)
		writeJSON(w, http.StatusOK, t)

	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "batch" && parts[1] == "create":
		concertID, ok := s.concertParam(w, parts[2])
		if !ok {
			return
		}
		var req models.BatchCreateRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Quantity < 1 || req.Quantity > 5000 {
			writeValidation(w, "quantity", "Quantity must be between 1 and 5000")
			return
		}
		for i := 0; i < req.Quantity; i++ {
			s.issue(concertID)
		}
		writeJSON(w, http.StatusOK, models.BatchCreateResult{CreatedCount: req.Quantity})

	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "number":
		s.mu.Lock()
		var found *models.Ticket
		for _, t := range s.tickets {
			if t.TicketNumber == parts[1] {
				t := t
				found = &t
				break
			}
		}
		s.mu.Unlock()
		if found == nil {
			writeDetail(w, http.StatusNotFound, "Ticket not found")
			return
		}
		writeJSON(w, http.StatusOK, found)

	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "concert":
		concertID, ok := s.concertParam(w, parts[1])
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.concertTickets(concertID))

	case r.Method == http.MethodGet && len(parts) == 4 && parts[0] == "concert" && parts[2] == "qr-codes":
		concertID, ok := s.concertParam(w, parts[1])
		if !ok {
			return
		}
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		for _, t := range s.concertTickets(concertID) {
			png, err := qrImage(t)
			if err != nil {
				continue
			}
			f, _ := zw.Create("QR_" + t.TicketNumber + ".png")
			_, _ = f.Write(png)
		}
		_ = zw.Close()
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="qr_codes.zip"`)
		_, _ = w.Write(buf.Bytes())

	default:
		s.serveTicket(w, r, parts)
	}
}

// serveTicket handles /api/tickets/{id}[/action].
func (s *Server) serveTicket(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeValidation(w, "id", "value is not a valid integer")
		return
	}
	t, ok := s.Ticket(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Ticket not found")
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	switch {
	case r.Method == http.MethodGet && action == "":
		writeJSON(w, http.StatusOK, t)
	case r.Method == http.MethodDelete && action == "":
		s.mu.Lock()
		delete(s.tickets, id)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "Ticket deleted"})
	case r.Method == http.MethodPost && action == "mark-sold":
		var req models.MarkSoldRequest
		if !readJSON(w, r, &req) {
			return
		}
		t.BuyerName, t.BuyerEmail = req.BuyerName, req.BuyerEmail
		t.Price = decimal.NewNullDecimal(req.Price)
		t.Status = models.StatusSoldConfirmed
		s.AddTicket(t)
		writeJSON(w, http.StatusOK, t)
	case r.Method == http.MethodGet && action == "download-qr":
		png, err := qrImage(t)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ticket_%s.png"`, t.TicketNumber))
		_, _ = w.Write(png)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Server) serveScans(w http.ResponseWriter, r *http.Request, parts []string, user models.User) {
	switch {
	case r.Method == http.MethodPost && (len(parts) == 0 || parts[0] == ""):
		var in models.ScanCreate
		if !readJSON(w, r, &in) {
			return
		}
		t, ok := s.Ticket(in.TicketID)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Ticket not found")
			return
		}
		s.mu.Lock()
		scan := models.Scan{ID: s.id(), TicketID: in.TicketID, ScanType: in.ScanType, Location: in.Location, ScannedBy: user.ID}
		s.scans = append(s.scans, scan)
		if in.ScanType == models.ScanAttendance && t.Status == models.StatusSoldConfirmed {
			t.Status = models.StatusVerified
			s.tickets[t.ID] = t
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, scan)

	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "ticket":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		out := []models.Scan{}
		for _, sc := range s.Scans() {
			if sc.TicketID == id {
				out = append(out, sc)
			}
		}
		writeJSON(w, http.StatusOK, out)

	case r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "concert" && parts[2] == "attendance":
		concertID, ok := s.concertParam(w, parts[1])
		if !ok {
			return
		}
		sold, attended := 0, 0
		for _, t := range s.concertTickets(concertID) {
			switch t.Status {
			case models.StatusSoldConfirmed:
				sold++
			case models.StatusVerified:
				sold++
				attended++
			}
		}
		rate := 0.0
		if sold > 0 {
			rate = float64(attended) * 100 / float64(sold)
		}
		writeJSON(w, http.StatusOK, map[string]any{"total_sold": sold, "total_attended": attended, "attendance_rate": rate})

	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Server) serveTransfers(w http.ResponseWriter, r *http.Request, parts []string, user models.User) {
	switch {
	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "initiate":
		var in models.TransferInitiate
		if !readJSON(w, r, &in) {
			return
		}
		s.mu.Lock()
		to, ok := s.users[in.ToUsername]
		s.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusNotFound, "Recipient not found")
			return
		}
		tr := s.AddTransfer(models.Transfer{TicketID: in.TicketID, FromUserID: user.ID, ToUserID: to.ID, ToUsername: to.Username, Status: "pending"})
		writeJSON(w, http.StatusOK, tr)

	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] == "pending":
		s.mu.Lock()
		out := []models.Transfer{}
		for _, tr := range s.transfers {
			if tr.ToUserID == user.ID && tr.Status == "pending" {
				out = append(out, tr)
			}
		}
		s.mu.Unlock()
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		writeJSON(w, http.StatusOK, out)

	case len(parts) >= 1:
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			writeValidation(w, "id", "value is not a valid integer")
			return
		}
		s.mu.Lock()
		tr, ok := s.transfers[id]
		s.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusNotFound, "Transfer not found")
			return
		}
		if len(parts) == 1 && r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, tr)
			return
		}
		if len(parts) != 2 || r.Method != http.MethodPost {
			writeDetail(w, http.StatusNotFound, "Not Found")
			return
		}
		if tr.Status != "pending" {
			writeDetail(w, http.StatusBadRequest, "Transfer already processed")
			return
		}
		switch parts[1] {
		case "accept":
			tr.Status = "accepted"
		case "reject":
			tr.Status = "rejected"
		default:
			writeDetail(w, http.StatusNotFound, "Not Found")
			return
		}
		s.AddTransfer(tr)
		writeJSON(w, http.StatusOK, tr)

	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

// ---------------- helpers ----------------

func (s *Server) concertParam(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeValidation(w, "concert_id", "value is not a valid integer")
		return 0, false
	}
	if _, ok := s.Concert(id); !ok {
		writeDetail(w, http.StatusNotFound, "Concert not found")
		return 0, false
	}
	return id, true
}

func (s *Server) issue(concertID int64) models.Ticket {
	s.mu.Lock()
	n := len(s.tickets) + 1
	s.mu.Unlock()
	return s.AddTicket(models.Ticket{
		ConcertID:    concertID,
		TicketNumber: fmt.Sprintf("TKT-%d-%05d", concertID, n),
		Status:       models.StatusIssued,
	})
}

func (s *Server) concertTickets(concertID int64) []models.Ticket {
	s.mu.Lock()
	out := []models.Ticket{}
	for _, t := range s.tickets {
		if t.ConcertID == concertID {
			out = append(out, t)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidation(w, "body", "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidation answers like FastAPI's request validation.
func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", field}, "msg": msg, "type": "value_error"}},
	})
}
