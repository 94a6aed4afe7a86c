package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/espaco-booking-backend/internal/auth"
	"github.com/nekogravitycat/espaco-booking-backend/internal/logging"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/espaco-booking-backend/internal/space"
)

type CreateRequest struct {
	Title         string
	SpaceID       string
	StartDate     string
	StartTime     string
	EndDate       string
	EndTime       string
	Justification string
	Notes         *string
	Recurrence    *Recurrence
	ForceUpdate   bool
}

type UpdateRequest struct {
	Title         *string
	SpaceID       *string
	StartDate     *string
	StartTime     *string
	EndDate       *string
	EndTime       *string
	Justification *string
	Notes         *string
	ForceUpdate   bool
}

// CreateResult holds every occurrence written by a create, first one first.
// Overridden lists the conflicts that were accepted because of ForceUpdate.
type CreateResult struct {
	Occurrences []*Booking
	Overridden  []*Booking
}

// Booking returns the first occurrence.
func (r *CreateResult) Booking() *Booking {
	if len(r.Occurrences) == 0 {
		return nil
	}
	return r.Occurrences[0]
}

// SpaceLookup is the part of space.Service the booking service needs.
type SpaceLookup interface {
	GetByID(ctx context.Context, id string) (*space.Space, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest, p auth.Principal) (*CreateResult, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, id string, req UpdateRequest, p auth.Principal) (*Booking, error)
	ChangeStatus(ctx context.Context, id string, action Action, reason string, p auth.Principal) (*Booking, error)
	Actions(ctx context.Context, id string, p auth.Principal) (*Booking, []Action, error)
	// CheckConflicts reports the active bookings a create request would collide with, without writing.
	CheckConflicts(ctx context.Context, req CreateRequest, p auth.Principal) ([]*Booking, error)
}

type service struct {
	repo   Repository
	spaces SpaceLookup
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a booking Service. A nil now defaults to time.Now.
func NewService(repo Repository, spaces SpaceLookup, logger *slog.Logger, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   repo,
		spaces: spaces,
		logger: logger,
		now:    now,
	}
}

func (s *service) log(ctx context.Context, op string) *slog.Logger {
	return logging.Resolve(ctx, s.logger).With("service", "booking", "operation", op)
}

// lookupSpace maps space errors onto booking errors.
func (s *service) lookupSpace(ctx context.Context, id string) (*space.Space, error) {
	sp, err := s.spaces.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, space.ErrNotFound) {
			return nil, ErrSpaceNotFound
		}
		return nil, err
	}
	return sp, nil
}

// actorFor resolves the principal's rights over bookings of the given space.
func (s *service) actorFor(ctx context.Context, spaceID string, p auth.Principal) (Actor, error) {
	a := Actor{UserID: p.UserID, IsAdmin: p.IsAdmin()}
	sp, err := s.lookupSpace(ctx, spaceID)
	if err != nil {
		if errors.Is(err, ErrSpaceNotFound) {
			return a, nil
		}
		return a, err
	}
	a.IsSpaceResponsible = sp.IsResponsible(p.UserID)
	return a, nil
}

func (s *service) rejectPast(b *Booking) error {
	nowInstant := s.now().Format("2006-01-02T15:04")
	if b.StartInstant() < nowInstant {
		return apperror.NewValidation(map[string]string{"data_inicio": "cannot book in the past"})
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest, p auth.Principal) (*CreateResult, error) {
	b := &Booking{
		Title:         strings.TrimSpace(req.Title),
		UserID:        p.UserID,
		SpaceID:       req.SpaceID,
		StartDate:     req.StartDate,
		StartTime:     req.StartTime,
		EndDate:       req.EndDate,
		EndTime:       req.EndTime,
		Justification: strings.TrimSpace(req.Justification),
		Notes:         req.Notes,
		Status:        StatusPending,
		Recurrence:    req.Recurrence,
	}

	// 1. Validate shape
	if err := Validate(b); err != nil {
		return nil, err
	}
	if err := s.rejectPast(b); err != nil {
		return nil, err
	}

	// 2. Validate space
	sp, err := s.lookupSpace(ctx, b.SpaceID)
	if err != nil {
		return nil, err
	}
	if !sp.Available {
		return nil, ErrSpaceUnavailable
	}

	// 3. Expand recurrence
	occurrences, err := Expand(b)
	if err != nil {
		return nil, err
	}
	if b.Recurrence != nil {
		seriesID := uuid.New().String()
		for _, o := range occurrences {
			o.SeriesID = &seriesID
		}
	}

	// 4. Write, unless conflicts exist and were not overridden
	conflicts, err := s.repo.Create(ctx, occurrences, req.ForceUpdate)
	if err != nil {
		return nil, err
	}
	log := s.log(ctx, "create")
	if len(conflicts) > 0 {
		if !req.ForceUpdate {
			log.Info("booking conflict detected",
				"space_id", b.SpaceID, "user_id", p.UserID, "conflicts", len(conflicts))
			return nil, &ConflictError{Conflicts: conflicts}
		}
		log.Warn("booking conflict overridden",
			"space_id", b.SpaceID, "user_id", p.UserID, "conflicts", len(conflicts),
			"booking_id", occurrences[0].ID)
	}

	for _, o := range occurrences {
		o.SpaceName = sp.Name
	}
	return &CreateResult{Occurrences: occurrences, Overridden: conflicts}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest, p auth.Principal) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, err := s.actorFor(ctx, b.SpaceID, p)
	if err != nil {
		return nil, err
	}
	if !CanEdit(b, actor) {
		return nil, ErrPermissionDenied
	}

	timeChanged := false
	setString := func(dst *string, v *string, affectsSlot bool) {
		if v == nil {
			return
		}
		if *dst != *v && affectsSlot {
			timeChanged = true
		}
		*dst = *v
	}
	prevSpace := b.SpaceID
	setString(&b.Title, req.Title, false)
	setString(&b.SpaceID, req.SpaceID, true)
	setString(&b.StartDate, req.StartDate, true)
	setString(&b.StartTime, req.StartTime, true)
	setString(&b.EndDate, req.EndDate, true)
	setString(&b.EndTime, req.EndTime, true)
	setString(&b.Justification, req.Justification, false)
	if req.Notes != nil {
		b.Notes = req.Notes
	}
	b.Title = strings.TrimSpace(b.Title)
	b.Justification = strings.TrimSpace(b.Justification)

	// An edit only touches this occurrence; the series rule is not re-validated.
	rec := b.Recurrence
	b.Recurrence = nil
	err = Validate(b)
	b.Recurrence = rec
	if err != nil {
		return nil, err
	}
	if timeChanged {
		if err := s.rejectPast(b); err != nil {
			return nil, err
		}
	}

	// Clients resend espaco_id on every edit; only a move is checked.
	if b.SpaceID != prevSpace {
		sp, err := s.lookupSpace(ctx, b.SpaceID)
		if err != nil {
			return nil, err
		}
		if !sp.Available {
			return nil, ErrSpaceUnavailable
		}
		b.SpaceName = sp.Name
	}

	conflicts, err := s.repo.Update(ctx, b, req.ForceUpdate)
	if err != nil {
		return nil, err
	}
	log := s.log(ctx, "update")
	if len(conflicts) > 0 {
		if !req.ForceUpdate {
			log.Info("booking conflict detected",
				"booking_id", b.ID, "space_id", b.SpaceID, "conflicts", len(conflicts))
			return nil, &ConflictError{Conflicts: conflicts}
		}
		log.Warn("booking conflict overridden",
			"booking_id", b.ID, "space_id", b.SpaceID, "conflicts", len(conflicts))
	}
	return b, nil
}

func (s *service) ChangeStatus(ctx context.Context, id string, action Action, reason string, p auth.Principal) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	to, err := Transition(b.Status, action)
	if err != nil {
		return nil, err
	}

	actor, err := s.actorFor(ctx, b.SpaceID, p)
	if err != nil {
		return nil, err
	}
	if !Allowed(b, actor, action) {
		return nil, ErrPermissionDenied
	}

	from := b.Status
	b.Status = to
	switch action {
	case ActionApprove:
		now := s.now().UTC()
		approver := p.UserID
		b.ApprovedBy, b.ApprovedAt = &approver, &now
		b.RejectionReason = nil
	case ActionReject:
		r := strings.TrimSpace(reason)
		if r == "" {
			return nil, apperror.NewValidation(map[string]string{"motivo": "is required when rejecting"})
		}
		b.RejectionReason = &r
	case ActionUncancel:
		b.ApprovedBy, b.ApprovedAt = nil, nil
	}

	if err := s.repo.UpdateStatus(ctx, b); err != nil {
		return nil, err
	}

	s.log(ctx, "change_status").Info("booking status changed",
		"booking_id", b.ID, "from", from, "to", to, "by", p.UserID)
	return b, nil
}

// Actions returns the booking together with the actions p may perform on it.
func (s *service) Actions(ctx context.Context, id string, p auth.Principal) (*Booking, []Action, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	actor, err := s.actorFor(ctx, b.SpaceID, p)
	if err != nil {
		return nil, nil, err
	}
	return b, AvailableActions(b, actor), nil
}

func (s *service) CheckConflicts(ctx context.Context, req CreateRequest, p auth.Principal) ([]*Booking, error) {
	b := &Booking{
		Title:         strings.TrimSpace(req.Title),
		UserID:        p.UserID,
		SpaceID:       req.SpaceID,
		StartDate:     req.StartDate,
		StartTime:     req.StartTime,
		EndDate:       req.EndDate,
		EndTime:       req.EndTime,
		Justification: strings.TrimSpace(req.Justification),
		Recurrence:    req.Recurrence,
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	if _, err := s.lookupSpace(ctx, b.SpaceID); err != nil {
		return nil, err
	}

	occurrences, err := Expand(b)
	if err != nil {
		return nil, err
	}
	return s.repo.FindConflicts(ctx, b.SpaceID, occurrences, "")
}
