// Package scanner implements the gate's scan workflow: look up a decoded ticket,
// apply the operator's mode rules, record the scan and display the result.
// File: scanner/mode.go
package scanner

import (
	"strings"

	"ticket-gate/models"
)

// Mode is how a scanner-role operator treats already-verified tickets.
type Mode int

const (
	// ModeMultiScan records every scan, whatever the ticket status.
	ModeMultiScan Mode = iota
	// ModeSingleScan rejects tickets that are already verified.
	ModeSingleScan
)

// verifyPrefix marks single-scan operators. The account model has no dedicated
// field for this, so the username carries it.
const verifyPrefix = "verify"

// ClassifyMode is the only place that maps an operator onto a mode.
func ClassifyMode(u models.User) Mode {
	if strings.HasPrefix(u.Username, verifyPrefix) {
		return ModeSingleScan
	}
	return ModeMultiScan
}

func (m Mode) String() string {
	if m == ModeSingleScan {
		return "verify"
	}
	return "sales"
}

// Banner is the scanner page headline for the mode.
func (m Mode) Banner() string {
	if m == ModeSingleScan {
		return "Verification Mode - Each ticket can only be scanned ONCE"
	}
	return "Sales Mode - Multiple scans allowed per ticket"
}
