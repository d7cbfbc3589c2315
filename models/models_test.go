// file: models/models_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate_AcceptsNumberOrString(t *testing.T) {
	var a Attendance
	require.NoError(t, json.Unmarshal([]byte(`{"total_sold":8,"total_attended":2,"attendance_rate":25}`), &a))
	assert.Equal(t, Rate("25%"), a.AttendanceRate)

	require.NoError(t, json.Unmarshal([]byte(`{"attendance_rate":"42.5%"}`), &a))
	assert.Equal(t, Rate("42.5%"), a.AttendanceRate)

	assert.Error(t, json.Unmarshal([]byte(`{"attendance_rate":true}`), &a))
}

func TestEmptyAttendance(t *testing.T) {
	a := EmptyAttendance()
	assert.Zero(t, a.TotalSold)
	assert.Zero(t, a.TotalAttended)
	assert.Equal(t, Rate("0%"), a.AttendanceRate)
}

func TestConcertInput_Complete(t *testing.T) {
	assert.True(t, ConcertInput{Name: "Fest", Venue: "Arena", Date: "2026-07-01"}.Complete())
	assert.False(t, ConcertInput{Name: "Fest", Venue: "  ", Date: "2026-07-01"}.Complete())
	assert.False(t, ConcertInput{Name: "Fest", Venue: "Arena"}.Complete(), "description is optional, date is not")
}

func TestConcert_DisplayDate(t *testing.T) {
	assert.Equal(t, "Jul 1, 2026", Concert{Date: "2026-07-01T19:30:00"}.DisplayDate())
	assert.Equal(t, "Jul 1, 2026", Concert{Date: "2026-07-01"}.DisplayDate())
	assert.Equal(t, "sometime", Concert{Date: "sometime"}.DisplayDate(), "unparseable dates are shown as-is")
}

func TestParseScanType(t *testing.T) {
	st, err := ParseScanType("")
	assert.NoError(t, err)
	assert.Equal(t, ScanAttendance, st)

	st, err = ParseScanType("sale_confirmation")
	assert.NoError(t, err)
	assert.Equal(t, ScanSaleConfirmation, st)
	assert.Equal(t, "Sale Confirmation", st.Label())

	_, err = ParseScanType("exit")
	assert.Error(t, err)
}

func TestScanCreate_OmitsEmptyLocation(t *testing.T) {
	raw, err := json.Marshal(ScanCreate{TicketID: 7, ScanType: ScanEntryCheck})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticket_id":7,"scan_type":"entry_check"}`, string(raw))
}

func TestTicket_PriceAndPayload(t *testing.T) {
	var tk Ticket
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"ticket_number":"T-001","concert_id":2,"price":"25.5","status":"sold_confirmed"}`), &tk))
	assert.Equal(t, "25.50", tk.DisplayPrice())
	assert.Equal(t, StatusSoldConfirmed, tk.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"ticket_number":"T-002","price":null}`), &tk))
	assert.Equal(t, "N/A", tk.DisplayPrice())

	assert.Equal(t, `{"ticket_number":"T-002"}`, tk.QRPayload())

	// the stored image never changes the payload
	tk.QRCodeData = "iVBORw0KGgo="
	assert.Equal(t, `{"ticket_number":"T-002"}`, tk.QRPayload())
}

func TestMarkSoldRequest_PriceIsExact(t *testing.T) {
	raw, err := json.Marshal(MarkSoldRequest{BuyerName: "Ann", BuyerEmail: "ann@example.com", Price: decimal.RequireFromString("19.99")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"buyer_name":"Ann","buyer_email":"ann@example.com","price":"19.99"}`, string(raw))
}
