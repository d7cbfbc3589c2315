// File: models/scan.go
package models

import (
	"fmt"
	"time"
)

// ------------------------ scan model -----------------------

// ScanType says why a scan was recorded. It does not change ticket status itself;
// that is a backend decision.
type ScanType string

const (
	ScanAttendance       ScanType = "attendance"
	ScanEntryCheck       ScanType = "entry_check"
	ScanSaleConfirmation ScanType = "sale_confirmation"
)

// ScanTypes lists the selectable types in display order.
var ScanTypes = []ScanType{ScanAttendance, ScanEntryCheck, ScanSaleConfirmation}

// ParseScanType validates a scan type; the empty string defaults to attendance.
func ParseScanType(s string) (ScanType, error) {
	if s == "" {
		return ScanAttendance, nil
	}
	for _, st := range ScanTypes {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown scan type %q", s)
}

// Label is the human name used in the scanner form.
func (s ScanType) Label() string {
	switch s {
	case ScanAttendance:
		return "Attendance Check"
	case ScanEntryCheck:
		return "Entry Check"
	case ScanSaleConfirmation:
		return "Sale Confirmation"
	}
	return string(s)
}

// ScanCreate is submitted to POST /api/scans/. It is not retained after the interaction.
type ScanCreate struct {
	TicketID int64    `json:"ticket_id"`
	ScanType ScanType `json:"scan_type"`
	Location string   `json:"location,omitempty"`
}

// Scan is a stored scan record.
type Scan struct {
	ID        int64    `json:"id"`
	TicketID  int64    `json:"ticket_id"`
	ScanType  ScanType `json:"scan_type"`
	Location  string   `json:"location,omitempty"`
	ScannedAt string   `json:"scanned_at,omitempty"`
	ScannedBy int64    `json:"scanned_by,omitempty"`
}

// ScanResult is the transient view model shown after a scan.
type ScanResult struct {
	Ticket   Ticket    `json:"ticket"`
	Concert  *Concert  `json:"concert,omitempty"`
	ScanType ScanType  `json:"scan_type"`
	Mode     string    `json:"mode"`
	Message  string    `json:"message"`
	ShownAt  time.Time `json:"shown_at"`
}
