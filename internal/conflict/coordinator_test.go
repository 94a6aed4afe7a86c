package conflict

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
	"github.com/nekogravitycat/espaco-booking-backend/internal/calendar"
)

type writeCall struct {
	Candidate Candidate
	Force     bool
}

// fakeWriter replays queued outcomes and records every call.
type fakeWriter struct {
	mu       sync.Mutex
	outcomes []Outcome
	calls    []writeCall
	gate     chan struct{} // when set, Write blocks until it is closed
	entered  chan struct{}
}

func (w *fakeWriter) Write(_ context.Context, c Candidate, force bool) Outcome {
	w.mu.Lock()
	w.calls = append(w.calls, writeCall{Candidate: c, Force: force})
	gate, entered := w.gate, w.entered
	w.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.outcomes) == 0 {
		return Transport(errors.New("no outcome queued"))
	}
	o := w.outcomes[0]
	w.outcomes = w.outcomes[1:]
	return o
}

func (w *fakeWriter) Calls() []writeCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]writeCall(nil), w.calls...)
}

var fixedNow = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

func newColorizer(t *testing.T) *booking.Colorizer {
	t.Helper()
	engine, err := calendar.NewEngine(calendar.DefaultPalette())
	require.NoError(t, err)
	return booking.NewColorizer(engine, calendar.PastColor, func() time.Time { return fixedNow })
}

func meeting(date, start, end string) Candidate {
	return Candidate{
		Title:         "Reunião",
		UserID:        "7",
		SpaceID:       "3",
		StartDate:     date,
		StartTime:     start,
		EndDate:       date,
		EndTime:       end,
		Justification: "Planejamento",
	}
}

func existing(id string, c Candidate) *booking.Booking {
	b := c.Booking()
	b.ID = id
	b.Status = booking.StatusApproved
	return b
}

func TestCoordinator_SubmitSuccess(t *testing.T) {
	created := existing("a", meeting("2025-03-01", "09:00", "10:00"))
	w := &fakeWriter{outcomes: []Outcome{Success(created)}}
	c := NewCoordinator(w, newColorizer(t), nil)

	snap, err := c.Submit(context.Background(), meeting("2025-03-01", "09:00", "10:00"))
	require.NoError(t, err)

	assert.Equal(t, StateResolved, snap.State)
	assert.Equal(t, created, snap.Result)
	assert.False(t, snap.InFlight)

	calls := w.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Force)
}

func TestCoordinator_LocalValidationMakesNoCall(t *testing.T) {
	w := &fakeWriter{}
	c := NewCoordinator(w, newColorizer(t), nil)

	cand := meeting("2025-03-01", "10:00", "09:00")
	cand.Title = ""
	snap, err := c.Submit(context.Background(), cand)
	require.NoError(t, err)

	assert.Equal(t, StateIdle, snap.State)
	assert.Contains(t, snap.Fields, "titulo")
	assert.Contains(t, snap.Fields, "hora_fim")
	assert.Empty(t, w.Calls())
}

func TestCoordinator_ConflictThenOverride(t *testing.T) {
	colorizer := newColorizer(t)
	a := existing("a", meeting("2025-03-01", "09:00", "10:00"))
	saved := existing("b", meeting("2025-03-01", "09:30", "10:30"))

	w := &fakeWriter{outcomes: []Outcome{Conflicts([]*booking.Booking{a}), Success(saved)}}
	c := NewCoordinator(w, colorizer, nil)

	snap, err := c.Submit(context.Background(), meeting("2025-03-01", "09:30", "10:30"))
	require.NoError(t, err)
	require.Equal(t, StateConflictPresented, snap.State)
	require.Len(t, snap.Conflicts, 1)
	assert.Equal(t, "a", snap.Conflicts[0].Booking.ID)
	assert.Equal(t, colorizer.ColorFor(a), snap.Conflicts[0].Color)

	snap, err = c.OverrideAndResubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateResolved, snap.State)
	assert.Equal(t, saved, snap.Result)

	calls := w.Calls()
	require.Len(t, calls, 2)
	assert.False(t, calls[0].Force)
	assert.True(t, calls[1].Force)
	assert.Equal(t, calls[0].Candidate, calls[1].Candidate)
}

func TestCoordinator_Abandon(t *testing.T) {
	a := existing("a", meeting("2025-03-01", "09:00", "10:00"))
	w := &fakeWriter{outcomes: []Outcome{Conflicts([]*booking.Booking{a})}}
	c := NewCoordinator(w, newColorizer(t), nil)

	_, err := c.Submit(context.Background(), meeting("2025-03-01", "09:30", "10:30"))
	require.NoError(t, err)

	snap, err := c.Abandon()
	require.NoError(t, err)
	assert.Equal(t, StateAbandoned, snap.State)
	assert.Nil(t, snap.Candidate)
	assert.Empty(t, snap.Conflicts)
	assert.Len(t, w.Calls(), 1)

	_, err = c.Abandon()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCoordinator_InvalidTransitions(t *testing.T) {
	w := &fakeWriter{}
	c := NewCoordinator(w, newColorizer(t), nil)

	_, err := c.OverrideAndResubmit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = c.Abandon()
	assert.ErrorIs(t, err, ErrInvalidState)

	a := existing("a", meeting("2025-03-01", "09:00", "10:00"))
	w.outcomes = []Outcome{Conflicts([]*booking.Booking{a})}
	_, err = c.Submit(context.Background(), meeting("2025-03-01", "09:30", "10:30"))
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), meeting("2025-03-01", "11:00", "12:00"))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, w.Calls(), 1)
}

func TestCoordinator_EmptyConflictIsFailure(t *testing.T) {
	w := &fakeWriter{outcomes: []Outcome{Conflicts(nil)}}
	c := NewCoordinator(w, newColorizer(t), nil)

	snap, err := c.Submit(context.Background(), meeting("2025-03-01", "09:00", "10:00"))
	require.NoError(t, err)

	assert.Equal(t, StateIdle, snap.State)
	assert.ErrorIs(t, snap.Err, ErrEmptyConflict)
	assert.Empty(t, snap.Conflicts)
}

func TestCoordinator_Failures(t *testing.T) {
	a := existing("a", meeting("2025-03-01", "09:00", "10:00"))
	boom := errors.New("connection reset")

	t.Run("transport on submit returns to idle", func(t *testing.T) {
		w := &fakeWriter{outcomes: []Outcome{Transport(boom)}}
		c := NewCoordinator(w, newColorizer(t), nil)

		snap, err := c.Submit(context.Background(), meeting("2025-03-01", "09:00", "10:00"))
		require.NoError(t, err)
		assert.Equal(t, StateIdle, snap.State)
		assert.ErrorIs(t, snap.Err, boom)
	})

	t.Run("validation on submit returns to idle with fields", func(t *testing.T) {
		w := &fakeWriter{outcomes: []Outcome{Validation(map[string]string{"espaco_id": "space is not available"})}}
		c := NewCoordinator(w, newColorizer(t), nil)

		snap, err := c.Submit(context.Background(), meeting("2025-03-01", "09:00", "10:00"))
		require.NoError(t, err)
		assert.Equal(t, StateIdle, snap.State)
		assert.Equal(t, "space is not available", snap.Fields["espaco_id"])
		assert.Error(t, snap.Err)
	})

	t.Run("transport on resubmit keeps conflicts", func(t *testing.T) {
		w := &fakeWriter{outcomes: []Outcome{Conflicts([]*booking.Booking{a}), Transport(boom)}}
		c := NewCoordinator(w, newColorizer(t), nil)

		_, err := c.Submit(context.Background(), meeting("2025-03-01", "09:30", "10:30"))
		require.NoError(t, err)

		snap, err := c.OverrideAndResubmit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StateConflictPresented, snap.State)
		assert.ErrorIs(t, snap.Err, boom)
		require.Len(t, snap.Conflicts, 1)
		assert.Equal(t, "a", snap.Conflicts[0].Booking.ID)
		assert.NotNil(t, snap.Candidate)
	})
}

func TestCoordinator_SingleFlight(t *testing.T) {
	created := existing("a", meeting("2025-03-01", "09:00", "10:00"))
	w := &fakeWriter{
		outcomes: []Outcome{Success(created)},
		gate:     make(chan struct{}),
		entered:  make(chan struct{}, 1),
	}
	c := NewCoordinator(w, newColorizer(t), nil)

	done := make(chan Snapshot, 1)
	go func() {
		snap, _ := c.Submit(context.Background(), meeting("2025-03-01", "09:00", "10:00"))
		done <- snap
	}()
	<-w.entered

	inFlight := c.Snapshot()
	assert.Equal(t, StateSubmitting, inFlight.State)
	assert.True(t, inFlight.InFlight)

	_, err := c.Submit(context.Background(), meeting("2025-03-01", "09:00", "10:00"))
	assert.ErrorIs(t, err, ErrInFlight)
	_, err = c.OverrideAndResubmit(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)

	close(w.gate)
	snap := <-done
	assert.Equal(t, StateResolved, snap.State)
	assert.Len(t, w.Calls(), 1)
}

func TestCoordinator_LateResponseAfterDismiss(t *testing.T) {
	a := existing("a", meeting("2025-03-01", "09:00", "10:00"))
	w := &fakeWriter{
		outcomes: []Outcome{Conflicts([]*booking.Booking{a})},
		gate:     make(chan struct{}),
		entered:  make(chan struct{}, 1),
	}
	c := NewCoordinator(w, newColorizer(t), nil)

	done := make(chan Snapshot, 1)
	go func() {
		snap, _ := c.Submit(context.Background(), meeting("2025-03-01", "09:30", "10:30"))
		done <- snap
	}()
	<-w.entered

	dismissed := c.Dismiss()
	assert.Equal(t, StateIdle, dismissed.State)
	assert.True(t, dismissed.InFlight)

	_, err := c.Submit(context.Background(), meeting("2025-03-01", "11:00", "12:00"))
	assert.ErrorIs(t, err, ErrInFlight)

	close(w.gate)
	snap := <-done
	assert.Equal(t, StateConflictPresented, snap.State)
	require.Len(t, snap.Conflicts, 1)
	require.NotNil(t, snap.Candidate)
	assert.Equal(t, "09:30", snap.Candidate.StartTime)
	assert.Len(t, w.Calls(), 1)

	w.mu.Lock()
	w.gate, w.entered = nil, nil
	w.outcomes = []Outcome{Success(existing("b", meeting("2025-03-01", "09:30", "10:30")))}
	w.mu.Unlock()

	snap, err = c.OverrideAndResubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateResolved, snap.State)
	assert.Equal(t, "b", snap.Result.ID)

	calls := w.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[1].Force)
	assert.Equal(t, calls[0].Candidate, calls[1].Candidate)
}

func TestCoordinator_RenewedConflictOnResubmit(t *testing.T) {
	colorizer := newColorizer(t)
	a := existing("a", meeting("2025-03-01", "09:00", "10:00"))
	raced := existing("c", meeting("2025-03-01", "10:00", "11:00"))
	raced.UserID = "9"

	w := &fakeWriter{outcomes: []Outcome{
		Conflicts([]*booking.Booking{a}),
		Conflicts([]*booking.Booking{a, raced}),
	}}
	c := NewCoordinator(w, colorizer, nil)
	cand := meeting("2025-03-01", "09:30", "10:30")

	snap, err := c.Submit(context.Background(), cand)
	require.NoError(t, err)
	require.Equal(t, StateConflictPresented, snap.State)
	require.Len(t, snap.Conflicts, 1)

	snap, err = c.OverrideAndResubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateConflictPresented, snap.State)
	assert.NoError(t, snap.Err)
	assert.False(t, snap.InFlight)

	require.Len(t, snap.Conflicts, 2)
	assert.Equal(t, "a", snap.Conflicts[0].Booking.ID)
	assert.Equal(t, "c", snap.Conflicts[1].Booking.ID)
	assert.Equal(t, colorizer.ColorFor(a), snap.Conflicts[0].Color)
	assert.Equal(t, colorizer.ColorFor(raced), snap.Conflicts[1].Color)

	require.NotNil(t, snap.Candidate)
	assert.Equal(t, cand, *snap.Candidate)

	calls := w.Calls()
	require.Len(t, calls, 2)
	assert.False(t, calls[0].Force)
	assert.True(t, calls[1].Force)
}

func TestCoordinator_WeeklySeriesScenario(t *testing.T) {
	colorizer := newColorizer(t)

	a := existing("a", meeting("2025-03-01", "09:00", "10:00"))
	aNext := existing("a2", meeting("2025-03-08", "09:00", "10:00"))
	assert.Equal(t, colorizer.ColorFor(a), colorizer.ColorFor(aNext))

	w := &fakeWriter{outcomes: []Outcome{Conflicts([]*booking.Booking{a})}}
	c := NewCoordinator(w, colorizer, nil)

	snap, err := c.Submit(context.Background(), meeting("2025-03-01", "09:30", "10:30"))
	require.NoError(t, err)
	require.Equal(t, StateConflictPresented, snap.State)

	ids := make([]string, len(snap.Conflicts))
	for i, ac := range snap.Conflicts {
		ids[i] = ac.Booking.ID
	}
	assert.Contains(t, ids, "a")
	assert.Equal(t, colorizer.ColorFor(aNext), snap.Conflicts[0].Color)
}

func TestCoordinator_EditDropsRecurrence(t *testing.T) {
	w := &fakeWriter{outcomes: []Outcome{Success(&booking.Booking{ID: "a"})}}
	c := NewCoordinator(w, newColorizer(t), nil)

	cand := meeting("2025-03-01", "09:00", "10:00")
	cand.ID = "a"
	cand.Recurrence = &booking.Recurrence{Kind: "anual"}

	snap, err := c.Submit(context.Background(), cand)
	require.NoError(t, err)
	assert.Equal(t, StateResolved, snap.State)
}
