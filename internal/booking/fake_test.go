package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nekogravitycat/espaco-booking-backend/internal/space"
)

// memRepo is an in-memory Repository with the same conflict rule as the database.
type memRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*Booking
	creates  int
}

func newMemRepo(seed ...*Booking) *memRepo {
	r := &memRepo{bookings: map[string]*Booking{}}
	for _, b := range seed {
		cp := *b
		r.bookings[b.ID] = &cp
	}
	return r
}

func (r *memRepo) conflictsLocked(spaceID string, candidates []*Booking, excludeID string) []*Booking {
	var out []*Booking
	for _, existing := range r.bookings {
		if existing.SpaceID != spaceID || !existing.Status.Active() || existing.ID == excludeID {
			continue
		}
		for _, c := range candidates {
			if Overlaps(existing, c) {
				cp := *existing
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartInstant() != out[j].StartInstant() {
			return out[i].StartInstant() < out[j].StartInstant()
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memRepo) Create(_ context.Context, occurrences []*Booking, force bool) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++

	conflicts := r.conflictsLocked(occurrences[0].SpaceID, occurrences, "")
	if len(conflicts) > 0 && !force {
		return conflicts, nil
	}
	for _, o := range occurrences {
		r.seq++
		o.ID = fmt.Sprintf("bk-%d", r.seq)
		cp := *o
		r.bookings[o.ID] = &cp
	}
	return conflicts, nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.SpaceID != "" && b.SpaceID != filter.SpaceID {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartInstant() < out[j].StartInstant() })
	return out, len(out), nil
}

func (r *memRepo) Update(_ context.Context, b *Booking, force bool) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return nil, ErrNotFound
	}
	var conflicts []*Booking
	if b.Status.Active() {
		conflicts = r.conflictsLocked(b.SpaceID, []*Booking{b}, b.ID)
		if len(conflicts) > 0 && !force {
			return conflicts, nil
		}
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return conflicts, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepo) FindConflicts(_ context.Context, spaceID string, candidates []*Booking, excludeID string) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflictsLocked(spaceID, candidates, excludeID), nil
}

var _ SpaceLookup = memSpaces{}

type memSpaces map[string]*space.Space

func (m memSpaces) GetByID(_ context.Context, id string) (*space.Space, error) {
	sp, ok := m[id]
	if !ok {
		return nil, space.ErrNotFound
	}
	return sp, nil
}
