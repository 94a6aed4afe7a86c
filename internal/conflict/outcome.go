package conflict

import (
	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
)

// Candidate is a booking being created (ID empty) or edited (ID set).
type Candidate struct {
	ID            string
	Title         string
	UserID        string
	SpaceID       string
	StartDate     string
	StartTime     string
	EndDate       string
	EndTime       string
	Justification string
	Notes         *string
	Recurrence    *booking.Recurrence
}

// Booking returns the candidate as a domain booking for local validation and coloring.
func (c Candidate) Booking() *booking.Booking {
	return &booking.Booking{
		ID:            c.ID,
		Title:         c.Title,
		UserID:        c.UserID,
		SpaceID:       c.SpaceID,
		StartDate:     c.StartDate,
		StartTime:     c.StartTime,
		EndDate:       c.EndDate,
		EndTime:       c.EndTime,
		Justification: c.Justification,
		Notes:         c.Notes,
		Recurrence:    c.Recurrence,
	}
}

// IsEdit reports whether the candidate updates an existing booking.
func (c Candidate) IsEdit() bool {
	return c.ID != ""
}

// OutcomeKind tags the result of a write attempt.
type OutcomeKind string

const (
	OutcomeSuccess    OutcomeKind = "success"
	OutcomeConflict   OutcomeKind = "conflict"
	OutcomeValidation OutcomeKind = "validation"
	OutcomeTransport  OutcomeKind = "transport"
)

// Outcome is the tagged result of one write. Writers decide the kind once;
// the coordinator never inspects payload shapes.
type Outcome struct {
	Kind      OutcomeKind
	Booking   *booking.Booking   // success
	Conflicts []*booking.Booking // conflict, in collaborator order
	Fields    map[string]string  // validation
	Err       error              // transport, and the message of validation failures
}

func Success(b *booking.Booking) Outcome {
	return Outcome{Kind: OutcomeSuccess, Booking: b}
}

func Conflicts(conflicts []*booking.Booking) Outcome {
	return Outcome{Kind: OutcomeConflict, Conflicts: conflicts}
}

func Validation(fields map[string]string) Outcome {
	return Outcome{Kind: OutcomeValidation, Fields: fields}
}

func Transport(err error) Outcome {
	return Outcome{Kind: OutcomeTransport, Err: err}
}
