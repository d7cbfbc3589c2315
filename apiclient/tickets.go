// File: apiclient/tickets.go
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"ticket-gate/models"
)

// TicketAPI covers /api/tickets.
type TicketAPI struct{ c *Client }

func ticketPath(id int64) string { return fmt.Sprintf("/api/tickets/%d", id) }

// Create issues one ticket for a concert.
func (a *TicketAPI) Create(ctx context.Context, concertID int64) (*models.Ticket, error) {
	var out models.Ticket
	path := fmt.Sprintf("/api/tickets/create/%d", concertID)
	if err := a.c.do(ctx, http.MethodPost, "/api/tickets/create/{concertId}", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBatch issues quantity tickets; the backend validates the bound again.
func (a *TicketAPI) CreateBatch(ctx context.Context, concertID int64, quantity int) (*models.BatchCreateResult, error) {
	var out models.BatchCreateResult
	path := fmt.Sprintf("/api/tickets/batch/create/%d", concertID)
	req := models.BatchCreateRequest{Quantity: quantity}
	if err := a.c.do(ctx, http.MethodPost, "/api/tickets/batch/create/{concertId}", path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a ticket by row id.
func (a *TicketAPI) Get(ctx context.Context, id int64) (*models.Ticket, error) {
	var out models.Ticket
	if err := a.c.do(ctx, http.MethodGet, "/api/tickets/{id}", ticketPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByNumber fetches a ticket by the number encoded in its QR payload.
func (a *TicketAPI) GetByNumber(ctx context.Context, ticketNumber string) (*models.Ticket, error) {
	var out models.Ticket
	path := "/api/tickets/number/" + url.PathEscape(ticketNumber)
	if err := a.c.do(ctx, http.MethodGet, "/api/tickets/number/{ticketNumber}", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConcert lists a concert's tickets.
func (a *TicketAPI) ListConcert(ctx context.Context, concertID int64) ([]models.Ticket, error) {
	var out []models.Ticket
	path := fmt.Sprintf("/api/tickets/concert/%d", concertID)
	if err := a.c.do(ctx, http.MethodGet, "/api/tickets/concert/{concertId}", path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSold records the buyer on a ticket.
func (a *TicketAPI) MarkSold(ctx context.Context, id int64, buyer models.MarkSoldRequest) (*models.Ticket, error) {
	var out models.Ticket
	path := ticketPath(id) + "/mark-sold"
	if err := a.c.do(ctx, http.MethodPost, "/api/tickets/{id}/mark-sold", path, buyer, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a ticket.
func (a *TicketAPI) Delete(ctx context.Context, id int64) error {
	return a.c.do(ctx, http.MethodDelete, "/api/tickets/{id}", ticketPath(id), nil, nil)
}

// DownloadQR fetches the ticket's QR PNG. filename is used unless the server names it.
func (a *TicketAPI) DownloadQR(ctx context.Context, id int64, filename string) (*Download, error) {
	return a.c.download(ctx, "/api/tickets/{id}/download-qr", ticketPath(id)+"/download-qr", filename)
}

// DownloadConcertQRCodes fetches a zip with every QR of a concert.
func (a *TicketAPI) DownloadConcertQRCodes(ctx context.Context, concertID int64, filename string) (*Download, error) {
	path := fmt.Sprintf("/api/tickets/concert/%d/qr-codes/download", concertID)
	return a.c.download(ctx, "/api/tickets/concert/{id}/qr-codes/download", path, filename)
}
