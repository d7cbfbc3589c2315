// File: apiclient/transfers.go
package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"ticket-gate/models"
)

// TransferAPI covers /api/transfers.
type TransferAPI struct{ c *Client }

func transferPath(id int64) string { return fmt.Sprintf("/api/transfers/%d", id) }

// Initiate offers a ticket to another user.
func (a *TransferAPI) Initiate(ctx context.Context, req models.TransferInitiate) (*models.Transfer, error) {
	var out models.Transfer
	if err := a.c.do(ctx, http.MethodPost, "/api/transfers/initiate", "/api/transfers/initiate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pending lists transfers awaiting the current user.
func (a *TransferAPI) Pending(ctx context.Context) ([]models.Transfer, error) {
	var out []models.Transfer
	if err := a.c.do(ctx, http.MethodGet, "/api/transfers/pending", "/api/transfers/pending", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one transfer.
func (a *TransferAPI) Get(ctx context.Context, id int64) (*models.Transfer, error) {
	var out models.Transfer
	if err := a.c.do(ctx, http.MethodGet, "/api/transfers/{id}", transferPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Accept takes the offered ticket.
func (a *TransferAPI) Accept(ctx context.Context, id int64) (*models.Transfer, error) {
	var out models.Transfer
	if err := a.c.do(ctx, http.MethodPost, "/api/transfers/{id}/accept", transferPath(id)+"/accept", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reject declines the offered ticket.
func (a *TransferAPI) Reject(ctx context.Context, id int64) (*models.Transfer, error) {
	var out models.Transfer
	if err := a.c.do(ctx, http.MethodPost, "/api/transfers/{id}/reject", transferPath(id)+"/reject", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
