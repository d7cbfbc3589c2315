// File: apiclient/concerts.go
package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"ticket-gate/models"
)

// ConcertAPI covers /api/concerts.
type ConcertAPI struct{ c *Client }

func concertPath(id int64) string { return fmt.Sprintf("/api/concerts/%d", id) }

// List returns every concert.
func (a *ConcertAPI) List(ctx context.Context) ([]models.Concert, error) {
	var out []models.Concert
	if err := a.c.do(ctx, http.MethodGet, "/api/concerts/", "/api/concerts/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds a concert.
func (a *ConcertAPI) Create(ctx context.Context, in models.ConcertInput) (*models.Concert, error) {
	var out models.Concert
	if err := a.c.do(ctx, http.MethodPost, "/api/concerts/", "/api/concerts/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one concert.
func (a *ConcertAPI) Get(ctx context.Context, id int64) (*models.Concert, error) {
	var out models.Concert
	if err := a.c.do(ctx, http.MethodGet, "/api/concerts/{id}", concertPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a concert's fields.
func (a *ConcertAPI) Update(ctx context.Context, id int64, in models.ConcertInput) (*models.Concert, error) {
	var out models.Concert
	if err := a.c.do(ctx, http.MethodPut, "/api/concerts/{id}", concertPath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a concert and, on the backend, its tickets.
func (a *ConcertAPI) Delete(ctx context.Context, id int64) error {
	return a.c.do(ctx, http.MethodDelete, "/api/concerts/{id}", concertPath(id), nil, nil)
}
