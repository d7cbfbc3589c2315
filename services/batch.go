// File: services/batch.go
package services

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Batch generation bounds, checked before the API is called.
const (
	MinBatchQuantity     = 1
	MaxBatchQuantity     = 5000
	DefaultBatchQuantity = 500
)

// BatchQuantityMessage is shown when a batch size is out of range.
const BatchQuantityMessage = "Quantity must be between 1 and 5000"

// ErrBatchQuantity rejects a batch size outside [MinBatchQuantity, MaxBatchQuantity].
var ErrBatchQuantity = errors.New("quantity must be between 1 and 5000")

// ValidateBatchQuantity checks q against the batch bounds.
func ValidateBatchQuantity(q int) error {
	if q < MinBatchQuantity || q > MaxBatchQuantity {
		return ErrBatchQuantity
	}
	return nil
}

// ParseBatchQuantity parses and validates a form value.
func ParseBatchQuantity(s string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrBatchQuantity
	}
	if err := ValidateBatchQuantity(q); err != nil {
		return 0, err
	}
	return q, nil
}

// ConcertArchiveName names the bulk QR download, e.g. qr-codes-Summer Fest-2026-10-15.zip.
func ConcertArchiveName(concertName string, now time.Time) string {
	return "qr-codes-" + concertName + "-" + now.Format("2006-01-02") + ".zip"
}

// TicketQRName names a single QR download.
func TicketQRName(ticketNumber string) string {
	return "QR_" + ticketNumber + ".png"
}
