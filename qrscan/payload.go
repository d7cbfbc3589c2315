// File: qrscan/payload.go
package qrscan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTicketNumber is wrapped by a FormatError for JSON without ticket_number.
var ErrMissingTicketNumber = errors.New("missing ticket_number")

// FormatError reports decoded text that is not a ticket payload.
type FormatError struct {
	Text string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid QR code format: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Payload is a parsed ticket QR code. Fields keeps every key for display.
type Payload struct {
	TicketNumber string
	Fields       map[string]any
}

// ParsePayload requires a JSON object with a non-empty string ticket_number.
func ParsePayload(text string) (Payload, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Payload{}, &FormatError{Text: text, Err: err}
	}

	number, ok := fields["ticket_number"].(string)
	if !ok || strings.TrimSpace(number) == "" {
		return Payload{}, &FormatError{Text: text, Err: ErrMissingTicketNumber}
	}
	return Payload{TicketNumber: number, Fields: fields}, nil
}
