package booking

import (
	"strings"
	"time"

	"github.com/nekogravitycat/espaco-booking-backend/internal/calendar"
)

const seriesDelimiter = "|"

// SeriesKey identifies the recurring series a booking belongs to for coloring.
// Dates are left out so every occurrence of a series gets the same key.
func SeriesKey(b *Booking) string {
	return strings.Join([]string{
		b.Title,
		b.SpaceID,
		b.UserID,
		b.StartTime,
		b.EndTime,
		b.Justification,
	}, seriesDelimiter)
}

// Colorizer resolves the calendar color of a booking.
type Colorizer struct {
	engine *calendar.Engine
	past   calendar.Color
	now    func() time.Time
}

// NewColorizer creates a Colorizer. A nil now defaults to time.Now.
func NewColorizer(engine *calendar.Engine, past calendar.Color, now func() time.Time) *Colorizer {
	if now == nil {
		now = time.Now
	}
	return &Colorizer{engine: engine, past: past, now: now}
}

// ColorFor returns the neutral past color for finished bookings and the
// series color otherwise.
func (c *Colorizer) ColorFor(b *Booking) calendar.Color {
	if IsPast(b, c.now()) {
		return c.past
	}
	return c.engine.SeriesColor(SeriesKey(b))
}

// Now exposes the clock the colorizer evaluates bookings against.
func (c *Colorizer) Now() time.Time {
	return c.now()
}
