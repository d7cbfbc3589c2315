// File: models/concert.go
package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ------------------------ concert model -----------------------

// Concert is owned by the backend; the gate only holds copies for display and editing.
type Concert struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Venue       string `json:"venue"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// ConcertInput is the body for creating or updating a concert.
type ConcertInput struct {
	Name        string `json:"name"`
	Venue       string `json:"venue"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Complete reports whether the fields the backend requires are present.
func (in ConcertInput) Complete() bool {
	return strings.TrimSpace(in.Name) != "" &&
		strings.TrimSpace(in.Venue) != "" &&
		strings.TrimSpace(in.Date) != ""
}

// dateLayouts covers what the API emits (ISO datetimes, with or without zone) and
// what an HTML date input posts.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses the concert date, returning false when no layout matches.
func (c Concert) ParseDate() (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, c.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DisplayDate is the date as shown on the scanner result card.
func (c Concert) DisplayDate() string {
	if t, ok := c.ParseDate(); ok {
		return t.Format("Jan 2, 2006")
	}
	return c.Date
}

// ---------------------- attendance model ----------------------

// Rate is an attendance rate; the API has sent both numbers and strings like "42.5%".
type Rate string

// UnmarshalJSON accepts a JSON number or string.
func (r *Rate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Rate(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Rate(strconv.FormatFloat(f, 'f', -1, 64) + "%")
	return nil
}

// Attendance summarises scans for one concert.
type Attendance struct {
	TotalSold      int  `json:"total_sold"`
	TotalAttended  int  `json:"total_attended"`
	AttendanceRate Rate `json:"attendance_rate"`
}

// EmptyAttendance is displayed when the attendance endpoint fails.
func EmptyAttendance() Attendance {
	return Attendance{AttendanceRate: "0%"}
}
