// File: apiclient/scans.go
package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"ticket-gate/models"
)

// ScanAPI covers /api/scans.
type ScanAPI struct{ c *Client }

// Create records a scan.
func (a *ScanAPI) Create(ctx context.Context, scan models.ScanCreate) (*models.Scan, error) {
	var out models.Scan
	if err := a.c.do(ctx, http.MethodPost, "/api/scans/", "/api/scans/", scan, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TicketScans lists the scans recorded for a ticket.
func (a *ScanAPI) TicketScans(ctx context.Context, ticketID int64) ([]models.Scan, error) {
	var out []models.Scan
	path := fmt.Sprintf("/api/scans/ticket/%d", ticketID)
	if err := a.c.do(ctx, http.MethodGet, "/api/scans/ticket/{id}", path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Attendance returns the attendance summary of a concert.
func (a *ScanAPI) Attendance(ctx context.Context, concertID int64) (*models.Attendance, error) {
	var out models.Attendance
	path := fmt.Sprintf("/api/scans/concert/%d/attendance", concertID)
	if err := a.c.do(ctx, http.MethodGet, "/api/scans/concert/{id}/attendance", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
