package conflict

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
	"github.com/nekogravitycat/espaco-booking-backend/internal/calendar"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/apperror"
)

type State string

const (
	StateIdle              State = "idle"
	StateSubmitting        State = "submitting"
	StateConflictPresented State = "conflict_presented"
	StateResubmitting      State = "resubmitting"
	StateResolved          State = "resolved"
	StateAbandoned         State = "abandoned"
)

var (
	// ErrInFlight is returned when a write is requested while another is pending.
	// The request is dropped; nothing is sent.
	ErrInFlight     = errors.New("a submission is already in flight")
	ErrInvalidState = errors.New("action not allowed in the current state")
	// ErrEmptyConflict marks a conflict response that carried no usable conflicts.
	ErrEmptyConflict = errors.New("conflict response without conflicting bookings")
)

// Writer is the external collaborator that validates and stores bookings.
type Writer interface {
	// Write creates the candidate, or updates it when c.ID is set.
	// force asks the collaborator to accept the write despite conflicts.
	Write(ctx context.Context, c Candidate, force bool) Outcome
}

// AnnotatedConflict is a conflicting booking with its calendar color.
type AnnotatedConflict struct {
	Booking *booking.Booking
	Color   calendar.Color
}

// Snapshot is a copy of the coordinator's visible state.
type Snapshot struct {
	State     State
	Candidate *Candidate
	Conflicts []AnnotatedConflict
	Result    *booking.Booking
	Fields    map[string]string
	Err       error
	InFlight  bool
}

// Coordinator drives one booking submission through conflict resolution.
// Writes are single-flight: at most one request is outstanding at a time.
type Coordinator struct {
	writer    Writer
	colorizer *booking.Colorizer
	logger    *slog.Logger

	mu        sync.Mutex
	state     State
	candidate *Candidate
	conflicts []AnnotatedConflict
	result    *booking.Booking
	fields    map[string]string
	err       error
	inFlight  bool
}

// NewCoordinator creates an idle Coordinator.
func NewCoordinator(writer Writer, colorizer *booking.Colorizer, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		writer:    writer,
		colorizer: colorizer,
		logger:    logger,
		state:     StateIdle,
	}
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     c.state,
		Conflicts: slices.Clone(c.conflicts),
		Result:    c.result,
		Fields:    maps.Clone(c.fields),
		Err:       c.err,
		InFlight:  c.inFlight,
	}
	if c.candidate != nil {
		cp := *c.candidate
		s.Candidate = &cp
	}
	return s
}

// Submit validates the candidate locally and sends it to the writer.
// It is allowed from Idle, Resolved and Abandoned; the last two start a new submission.
// Local validation failures leave the coordinator Idle with Fields set and make no call.
func (c *Coordinator) Submit(ctx context.Context, cand Candidate) (Snapshot, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return c.Snapshot(), ErrInFlight
	}
	switch c.state {
	case StateIdle, StateResolved, StateAbandoned:
	default:
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, ErrInvalidState
	}

	c.resetLocked()
	if err := validateCandidate(cand); err != nil {
		var vErr *apperror.ValidationError
		if errors.As(err, &vErr) {
			c.fields = vErr.Fields
		}
		c.err = err
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, nil
	}

	c.candidate = &cand
	c.state = StateSubmitting
	c.inFlight = true
	c.mu.Unlock()

	outcome := c.writer.Write(ctx, cand, false)
	return c.finish(StateSubmitting, cand, outcome), nil
}

// OverrideAndResubmit resends the held candidate with the override flag.
// It is only allowed while a conflict is presented.
func (c *Coordinator) OverrideAndResubmit(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return c.Snapshot(), ErrInFlight
	}
	if c.state != StateConflictPresented || c.candidate == nil {
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, ErrInvalidState
	}

	cand := *c.candidate
	c.state = StateResubmitting
	c.inFlight = true
	c.fields = nil
	c.err = nil
	c.mu.Unlock()

	outcome := c.writer.Write(ctx, cand, true)
	return c.finish(StateResubmitting, cand, outcome), nil
}

// Abandon discards the candidate from the conflict view. No request is made.
func (c *Coordinator) Abandon() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight || c.state != StateConflictPresented {
		return c.snapshotLocked(), ErrInvalidState
	}
	c.resetLocked()
	c.state = StateAbandoned
	return c.snapshotLocked(), nil
}

// Dismiss returns to Idle when the hosting UI closes. A pending request is not
// cancelled; its response is still applied when it arrives.
func (c *Coordinator) Dismiss() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	c.state = StateIdle
	return c.snapshotLocked()
}

func (c *Coordinator) resetLocked() {
	c.candidate = nil
	c.conflicts = nil
	c.result = nil
	c.fields = nil
	c.err = nil
}

// finish applies a writer outcome to the transition that dispatched it.
// The dispatched candidate is held again even if Dismiss cleared it meanwhile,
// so a late conflict can still be overridden or abandoned.
func (c *Coordinator) finish(from State, cand Candidate, outcome Outcome) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	c.candidate = &cand

	if outcome.Kind == OutcomeConflict && len(outcome.Conflicts) == 0 {
		c.logger.Warn("conflict outcome without conflicts, treating as failure")
		outcome = Transport(ErrEmptyConflict)
	}

	switch outcome.Kind {
	case OutcomeSuccess:
		c.state = StateResolved
		c.result = outcome.Booking
		c.conflicts = nil
		c.fields = nil
		c.err = nil

	case OutcomeConflict:
		c.state = StateConflictPresented
		c.conflicts = c.annotate(outcome.Conflicts)
		c.fields = nil
		c.err = nil

	case OutcomeValidation:
		c.fail(from, nil)
		c.fields = outcome.Fields
		c.err = outcome.Err
		if c.err == nil {
			c.err = apperror.NewValidation(outcome.Fields)
		}

	default:
		err := outcome.Err
		if err == nil {
			err = errors.New("write failed")
		}
		c.fail(from, err)
	}

	c.logger.Debug("booking submission transitioned", "from", from, "to", c.state, "outcome", outcome.Kind)
	return c.snapshotLocked()
}

// fail leaves a failed Submitting in Idle and a failed Resubmitting back in
// ConflictPresented with the same conflict set, so the user can retry or abandon.
func (c *Coordinator) fail(from State, err error) {
	if from == StateResubmitting && len(c.conflicts) > 0 {
		c.state = StateConflictPresented
	} else {
		c.state = StateIdle
	}
	c.err = err
}

func (c *Coordinator) annotate(conflicts []*booking.Booking) []AnnotatedConflict {
	out := make([]AnnotatedConflict, len(conflicts))
	for i, b := range conflicts {
		out[i] = AnnotatedConflict{Booking: b, Color: c.colorizer.ColorFor(b)}
	}
	return out
}

// validateCandidate checks the candidate's shape before anything is sent.
// Edits never carry a recurrence rule.
func validateCandidate(cand Candidate) error {
	b := cand.Booking()
	if cand.IsEdit() {
		b.Recurrence = nil
	}
	return booking.Validate(b)
}
