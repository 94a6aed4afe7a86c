package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "booking not found")
	ErrInvalidTimeRange  = apperror.New(http.StatusBadRequest, "end must be after start")
	ErrInvalidStatus     = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrInvalidAction     = apperror.New(http.StatusBadRequest, "invalid status action")
	ErrInvalidTransition = apperror.New(http.StatusConflict, "status transition not allowed")
	ErrSpaceNotFound     = apperror.New(http.StatusNotFound, "space not found")
	ErrSpaceUnavailable  = apperror.New(http.StatusUnprocessableEntity, "space is not available for booking")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")
	ErrTooManyOccurrence = apperror.New(http.StatusBadRequest, "recurrence produces too many occurrences")
)

type Status string

const (
	StatusPending   Status = "pendente"
	StatusApproved  Status = "aprovado"
	StatusRejected  Status = "rejeitado"
	StatusCancelled Status = "cancelado"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether bookings in this status still occupy their slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

type RecurrenceKind string

const (
	RecurrenceDaily   RecurrenceKind = "diaria"
	RecurrenceWeekly  RecurrenceKind = "semanal"
	RecurrenceMonthly RecurrenceKind = "mensal"
)

// Recurrence describes how a booking repeats until SeriesEndDate (inclusive).
type Recurrence struct {
	Kind          RecurrenceKind
	SeriesEndDate string // YYYY-MM-DD
}

// Booking is a request to use a space for an interval.
// Dates are YYYY-MM-DD and times are HH:MM wall-clock values without a timezone.
type Booking struct {
	ID              string
	Title           string
	UserID          string
	UserName        string
	UserEmail       string
	UserRole        string
	SpaceID         string
	SpaceName       string
	StartDate       string
	StartTime       string
	EndDate         string
	EndTime         string
	Justification   string
	Notes           *string
	Status          Status
	Recurrence      *Recurrence
	SeriesID        *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
}

// Filter defines parameters for listing bookings.
type Filter struct {
	UserID    string
	SpaceID   string
	Status    string
	DateFrom  string // bookings ending on or after this date
	DateTo    string // bookings starting on or before this date
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
