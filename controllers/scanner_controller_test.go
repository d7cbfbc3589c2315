// file: controllers/scanner_controller_test.go
package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ticket-gate/models"
	"ticket-gate/scanner"
)

type scanResponse struct {
	Outcome   string             `json:"outcome"`
	Message   string             `json:"message"`
	Result    *models.ScanResult `json:"result"`
	DisplayMs int64              `json:"display_ms"`
	Error     string             `json:"error"`
}

func decodeScan(t *testing.T, body []byte) scanResponse {
	t.Helper()
	var out scanResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestShowScanner_ModeBanner(t *testing.T) {
	router, api := setupTestRouter(t, nil)

	verify := signedIn(t, router, api, verifyUser).get("/scanner").Body.String()
	assert.Contains(t, verify, "MODE=verify")
	assert.Contains(t, verify, "Each ticket can only be scanned ONCE")
	assert.Contains(t, verify, "WS=/scanner/ws")
	assert.Contains(t, verify, "SECS=4")

	sales := signedIn(t, router, api, salesUser).get("/scanner").Body.String()
	assert.Contains(t, sales, "MODE=sales")
}

func TestShowScanner_RequiresLogin(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := newBrowser(t, router).get("/scanner")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestScan_VerifyThenRescan(t *testing.T) {
	// Given a verify operator and a sold ticket
	router, api := setupTestRouter(t, nil)
	b := signedIn(t, router, api, verifyUser)
	concert := seedConcert(api, "Fest")
	tk := api.AddTicket(models.Ticket{TicketNumber: "T-001", ConcertID: concert.ID, Status: models.StatusSoldConfirmed})

	// When the ticket is scanned
	w := b.postJSON("/scanner/scan", `{"payload":"{\"ticket_number\":\"T-001\"}"}`)

	// Then it is verified and locked
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeScan(t, w.Body.Bytes())
	assert.Equal(t, "success", first.Outcome)
	assert.Equal(t, scanner.MsgVerified, first.Message)
	assert.Equal(t, int64(4000), first.DisplayMs)
	assert.Equal(t, "Fest", first.Result.Concert.Name)
	stored, _ := api.Ticket(tk.ID)
	assert.Equal(t, models.StatusVerified, stored.Status)

	// And a second scan is refused without recording anything
	w = b.postJSON("/scanner/scan", `{"payload":"{\"ticket_number\":\"T-001\"}"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, scanner.MsgAlreadyVerified, decodeScan(t, w.Body.Bytes()).Message)
	assert.Len(t, api.Scans(), 1)
}

func TestScan_SalesModeAllowsRepeats(t *testing.T) {
	router, api := setupTestRouter(t, nil)
	b := signedIn(t, router, api, salesUser)
	concert := seedConcert(api, "Fest")
	api.AddTicket(models.Ticket{TicketNumber: "T-003", ConcertID: concert.ID, Status: models.StatusVerified})

	for i := 0; i < 2; i++ {
		w := b.postJSON("/scanner/scan", `{"payload":"{\"ticket_number\":\"T-003\"}","scan_type":"sale_confirmation","location":"Box office"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Ticket scanned - Status: sale_confirmation", decodeScan(t, w.Body.Bytes()).Message)
	}

	scans := api.Scans()
	require.Len(t, scans, 2)
	assert.Equal(t, "Box office", scans[1].Location)
}

func TestScan_BadRequests(t *testing.T) {
	router, api := setupTestRouter(t, nil)
	b := signedIn(t, router, api, salesUser)

	w := b.postJSON("/scanner/scan", `{"payload":"{\"id\":3}"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Invalid QR code format", decodeScan(t, w.Body.Bytes()).Error)

	w = b.postJSON("/scanner/scan", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = b.postJSON("/scanner/scan", `{"payload":"{\"ticket_number\":\"T-1\"}","scan_type":"refund"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, api.CallCount("GET /api/tickets"))
}

func TestScan_UnknownTicket(t *testing.T) {
	router, api := setupTestRouter(t, nil)
	b := signedIn(t, router, api, salesUser)

	w := b.postJSON("/scanner/scan", `{"payload":"{\"ticket_number\":\"NOPE\"}"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	out := decodeScan(t, w.Body.Bytes())
	assert.Equal(t, "failed", out.Outcome)
	assert.Equal(t, "Ticket not found", out.Message)
}

func TestScan_ExpiredTokenAnswersJSON401(t *testing.T) {
	router, api := setupTestRouter(t, nil)
	b := signedIn(t, router, api, salesUser)
	api.Expire()

	w := b.postJSON("/scanner/scan", `{"payload":"{\"ticket_number\":\"T-1\"}"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Session expired","redirect":"/login"}`, w.Body.String())
}
