// File: models/transfer.go
package models

// Transfer is a pending or settled ticket hand-over between users.
type Transfer struct {
	ID         int64  `json:"id"`
	TicketID   int64  `json:"ticket_id"`
	FromUserID int64  `json:"from_user_id"`
	ToUserID   int64  `json:"to_user_id,omitempty"`
	ToUsername string `json:"to_username,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// TransferInitiate is the body of POST /api/transfers/initiate.
type TransferInitiate struct {
	TicketID   int64  `json:"ticket_id"`
	ToUsername string `json:"to_username"`
}
