// File: models/ticket.go
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ------------------------ ticket model -----------------------

// TicketStatus mirrors the backend's ticket lifecycle. The gate only reads it; the
// value reflects the backend at last fetch and may change before it is displayed.
type TicketStatus string

// Known statuses; the backend may add others.
const (
	StatusIssued        TicketStatus = "issued"
	StatusSoldConfirmed TicketStatus = "sold_confirmed"
	StatusVerified      TicketStatus = "verified"
)

// Ticket as returned by /api/tickets.
type Ticket struct {
	ID           int64               `json:"id"`
	TicketNumber string              `json:"ticket_number"`
	ConcertID    int64               `json:"concert_id"`
	BuyerName    string              `json:"buyer_name,omitempty"`
	BuyerEmail   string              `json:"buyer_email,omitempty"`
	Price        decimal.NullDecimal `json:"price"`
	Status       TicketStatus        `json:"status"`
	// QRCodeData is the backend's rendered QR code: a base64 PNG, not payload text.
	QRCodeData   string              `json:"qr_code_data,omitempty"`
	SoldAt       string              `json:"sold_at,omitempty"`
}

// DisplayPrice renders the price with two decimals, or "N/A" when unset.
func (t Ticket) DisplayPrice() string {
	if !t.Price.Valid {
		return "N/A"
	}
	return t.Price.Decimal.StringFixed(2)
}

// QRPayload is the structured text encoded into a ticket's QR code.
func (t Ticket) QRPayload() string {
	return fmt.Sprintf(`{"ticket_number":%q}`, t.TicketNumber)
}

// MarkSoldRequest is the body of POST /api/tickets/{id}/mark-sold.
type MarkSoldRequest struct {
	BuyerName  string          `json:"buyer_name"`
	BuyerEmail string          `json:"buyer_email"`
	Price      decimal.Decimal `json:"price"`
}

// BatchCreateRequest is the body of POST /api/tickets/batch/create/{concertId}.
type BatchCreateRequest struct {
	Quantity int `json:"quantity"`
}

// BatchCreateResult is the response of a batch generation.
type BatchCreateResult struct {
	CreatedCount int `json:"created_count"`
}
