// File: scanner/workflow.go
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/models"
)

// DefaultDisplayWindow is how long a successful result stays on screen.
const DefaultDisplayWindow = 4 * time.Second

// Messages shown to the operator.
const (
	MsgVerified        = "Ticket verified & locked (no re-scan allowed)"
	MsgAlreadyVerified = "Ticket already verified - cannot rescan"
	MsgScanFailed      = "Scan failed"
	MsgBusy            = "Scan already in progress"
)

var (
	// ErrBusy is returned when a scan arrives while another is being processed or displayed.
	ErrBusy = errors.New("scan already in progress")
	// ErrAlreadyVerified marks a single-scan rejection.
	ErrAlreadyVerified = errors.New("ticket already verified")
)

// ---------------- states & outcomes ----------------

// State of the workflow.
type State int

const (
	StateIdle State = iota
	StateFetchingTicket
	StateVerifying
	StateRecordingScan
	StateDisplayingResult
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingTicket:
		return "fetchingTicket"
	case StateVerifying:
		return "verifying"
	case StateRecordingScan:
		return "recordingScan"
	case StateDisplayingResult:
		return "displayingResult"
	case StateRejected:
		return "rejected"
	}
	return "unknown"
}

// OutcomeKind classifies one scan attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeRejected
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome of Handle. Result is set whenever a ticket was fetched.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Result  *models.ScanResult
	Err     error
}

// ---------------- collaborators ----------------

// TicketFetcher looks tickets up by number.
type TicketFetcher interface {
	GetByNumber(ctx context.Context, ticketNumber string) (*models.Ticket, error)
}

// ConcertFetcher loads display context.
type ConcertFetcher interface {
	Get(ctx context.Context, id int64) (*models.Concert, error)
}

// ScanRecorder submits scan records.
type ScanRecorder interface {
	Create(ctx context.Context, scan models.ScanCreate) (*models.Scan, error)
}

// Presenter displays outcomes. Clear removes whatever is on screen.
type Presenter interface {
	Show(Outcome)
	Clear()
}

// Observer receives one call per finished attempt.
type Observer interface {
	ObserveScan(outcome, mode string, elapsed time.Duration)
}

// Config wires a Workflow.
type Config struct {
	Tickets  TicketFetcher
	Concerts ConcertFetcher
	Scans    ScanRecorder

	User      models.User
	Presenter Presenter
	Observer  Observer

	// DisplayWindow defaults to DefaultDisplayWindow.
	DisplayWindow time.Duration
	// OnIdle runs after a result clears, so the owner can re-arm its capture.
	OnIdle func()
	// AfterFunc schedules the display reset; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) (stop func() bool)
}

// Workflow processes one scan at a time for one operator.
type Workflow struct {
	cfg  Config
	mode Mode

	mu          sync.Mutex
	state       State
	scanType    models.ScanType
	location    string
	displayGen  int
	stopDisplay func() bool
	closed      bool
}

// New builds an idle workflow for cfg.User.
func New(cfg Config) *Workflow {
	if cfg.DisplayWindow <= 0 {
		cfg.DisplayWindow = DefaultDisplayWindow
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	if cfg.Presenter == nil {
		cfg.Presenter = nopPresenter{}
	}
	return &Workflow{
		cfg:      cfg,
		mode:     ClassifyMode(cfg.User),
		scanType: models.ScanAttendance,
	}
}

// Mode is the operator's mode, fixed at construction.
func (w *Workflow) Mode() Mode { return w.mode }

// DisplayWindow is how long a success stays up before the display resets.
func (w *Workflow) DisplayWindow() time.Duration { return w.cfg.DisplayWindow }

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SetScanType selects the type used for subsequent scans.
func (w *Workflow) SetScanType(st models.ScanType) {
	w.mu.Lock()
	w.scanType = st
	w.mu.Unlock()
}

// SetLocation sets the optional gate location; "" omits it.
func (w *Workflow) SetLocation(location string) {
	w.mu.Lock()
	w.location = location
	w.mu.Unlock()
}

// Settings returns the scan type and location currently in use.
func (w *Workflow) Settings() (models.ScanType, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scanType, w.location
}

// Handle runs one decode→fetch→submit→display cycle for ticketNumber.
func (w *Workflow) Handle(ctx context.Context, ticketNumber string) Outcome {
	w.mu.Lock()
	if w.closed || w.state != StateIdle {
		w.mu.Unlock()
		logger.Warn.Printf("[Workflow.Handle] Ignoring %s: workflow busy", ticketNumber)
		return Outcome{Kind: OutcomeFailed, Message: MsgBusy, Err: ErrBusy}
	}
	w.state = StateFetchingTicket
	scanType, location := w.scanType, w.location
	w.mu.Unlock()

	start := time.Now()
	out := w.run(ctx, ticketNumber, scanType, location)
	if w.cfg.Observer != nil {
		w.cfg.Observer.ObserveScan(out.Kind.String(), w.mode.String(), time.Since(start))
	}
	logger.Info.Printf("[Workflow.Handle] ticket=%s mode=%s outcome=%s: %s",
		ticketNumber, w.mode, out.Kind, out.Message)

	w.finish(out)
	return out
}

func (w *Workflow) run(ctx context.Context, ticketNumber string, scanType models.ScanType, location string) Outcome {
	ticket, err := w.cfg.Tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Message: apiclient.Detail(err, MsgScanFailed),
			Err: fmt.Errorf("fetch ticket %s: %w", ticketNumber, err)}
	}

	result := &models.ScanResult{Ticket: *ticket, ScanType: scanType, Mode: w.mode.String()}

	if w.mode == ModeSingleScan {
		w.setState(StateVerifying)
		// read-before-write: the backend must still refuse a concurrent duplicate
		if ticket.Status == models.StatusVerified {
			w.setState(StateRejected)
			result.Message = MsgAlreadyVerified
			return Outcome{Kind: OutcomeRejected, Message: MsgAlreadyVerified, Result: result, Err: ErrAlreadyVerified}
		}
	}

	concert, err := w.cfg.Concerts.Get(ctx, ticket.ConcertID)
	if err != nil {
		logger.Warn.Printf("[Workflow.run] Concert %d unavailable, continuing with ticket only: %v", ticket.ConcertID, err)
	} else {
		result.Concert = concert
	}

	w.setState(StateRecordingScan)
	_, err = w.cfg.Scans.Create(ctx, models.ScanCreate{
		TicketID: ticket.ID,
		ScanType: scanType,
		Location: location,
	})
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Message: apiclient.Detail(err, MsgScanFailed), Result: result,
			Err: fmt.Errorf("record scan for %s: %w", ticketNumber, err)}
	}

	result.Message = successMessage(w.mode, scanType)
	result.ShownAt = time.Now()
	return Outcome{Kind: OutcomeSuccess, Message: result.Message, Result: result}
}

// finish presents the outcome. Successes stay up for the display window; anything
// else is shown once and the display resets immediately.
func (w *Workflow) finish(out Outcome) {
	if out.Kind != OutcomeSuccess {
		w.cfg.Presenter.Show(out)
		w.cfg.Presenter.Clear()
		w.toIdle()
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.state = StateDisplayingResult
	w.displayGen++
	gen := w.displayGen
	w.mu.Unlock()

	w.cfg.Presenter.Show(out)
	stop := w.cfg.AfterFunc(w.cfg.DisplayWindow, func() { w.clearDisplay(gen) })

	w.mu.Lock()
	if w.displayGen == gen {
		w.stopDisplay = stop
	}
	w.mu.Unlock()
}

func (w *Workflow) clearDisplay(gen int) {
	w.mu.Lock()
	if w.closed || gen != w.displayGen || w.state != StateDisplayingResult {
		w.mu.Unlock()
		return
	}
	w.state = StateIdle
	w.stopDisplay = nil
	w.mu.Unlock()

	w.cfg.Presenter.Clear()
	if w.cfg.OnIdle != nil {
		w.cfg.OnIdle()
	}
}

func (w *Workflow) toIdle() {
	w.mu.Lock()
	closed := w.closed
	w.state = StateIdle
	w.mu.Unlock()

	if !closed && w.cfg.OnIdle != nil {
		w.cfg.OnIdle()
	}
}

func (w *Workflow) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Close cancels a pending display reset. The workflow refuses scans afterwards.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.stopDisplay != nil {
		w.stopDisplay()
		w.stopDisplay = nil
	}
	w.state = StateIdle
}

func successMessage(m Mode, st models.ScanType) string {
	if m == ModeSingleScan {
		return MsgVerified
	}
	return fmt.Sprintf("Ticket scanned - Status: %s", st)
}

type nopPresenter struct{}

func (nopPresenter) Show(Outcome) {}
func (nopPresenter) Clear()       {}
