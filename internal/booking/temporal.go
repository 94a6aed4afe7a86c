package booking

import (
	"strings"
	"time"

	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/apperror"
)

const (
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04"
	instantLayout  = "2006-01-02 15:04"
	instantLayoutS = "2006-01-02 15:04:05"
)

// datePart strips a time-of-day suffix from a date-time shaped value.
func datePart(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		return s[:i]
	}
	return s
}

// Instant returns the lexically comparable composite of a date and a clock time.
func Instant(date, clock string) string {
	c := strings.TrimSpace(clock)
	if len(c) > 5 {
		c = c[:5]
	}
	return datePart(date) + "T" + c
}

// StartInstant returns the booking's start composite.
func (b *Booking) StartInstant() string {
	return Instant(b.StartDate, b.StartTime)
}

// EndInstant returns the booking's end composite.
func (b *Booking) EndInstant() string {
	return Instant(b.EndDate, b.EndTime)
}

// Overlaps reports whether two bookings share any minute.
// Intervals are half-open: one ending at 10:00 does not overlap one starting at 10:00.
func Overlaps(a, b *Booking) bool {
	return a.StartInstant() < b.EndInstant() && a.EndInstant() > b.StartInstant()
}

// EndTime reads the booking's end as wall-clock time in loc.
// It reports false when the end cannot be parsed.
func EndTime(b *Booking, loc *time.Location) (time.Time, bool) {
	if b == nil {
		return time.Time{}, false
	}
	raw := datePart(b.EndDate) + " " + strings.TrimSpace(b.EndTime)

	end, err := time.ParseInLocation(instantLayout, raw, loc)
	if err != nil {
		end, err = time.ParseInLocation(instantLayoutS, raw, loc)
		if err != nil {
			return time.Time{}, false
		}
	}
	return end, true
}

// IsPast reports whether the booking's end instant is strictly before now.
// The end is read as local wall-clock time in now's location. A booking whose
// end cannot be parsed is never past.
func IsPast(b *Booking, now time.Time) bool {
	end, ok := EndTime(b, now.Location())
	return ok && end.Before(now)
}

// Validate checks the local shape of a booking candidate.
func Validate(b *Booking) error {
	fields := map[string]string{}

	if strings.TrimSpace(b.Title) == "" {
		fields["titulo"] = "is required"
	}
	if strings.TrimSpace(b.SpaceID) == "" {
		fields["espaco_id"] = "is required"
	}
	if strings.TrimSpace(b.Justification) == "" {
		fields["justificativa"] = "is required"
	}

	validDate := func(key, v string) bool {
		if _, err := time.Parse(dateLayout, v); err != nil || len(v) != len(dateLayout) {
			fields[key] = "must be YYYY-MM-DD"
			return false
		}
		return true
	}
	validClock := func(key, v string) bool {
		if _, err := time.Parse(clockLayout, v); err != nil || len(v) != len(clockLayout) {
			fields[key] = "must be HH:MM"
			return false
		}
		return true
	}

	ok := validDate("data_inicio", b.StartDate)
	ok = validClock("hora_inicio", b.StartTime) && ok
	ok = validDate("data_fim", b.EndDate) && ok
	ok = validClock("hora_fim", b.EndTime) && ok

	if ok && b.EndInstant() <= b.StartInstant() {
		fields["hora_fim"] = "end must be after start"
	}

	if b.Recurrence != nil {
		switch b.Recurrence.Kind {
		case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		default:
			fields["recorrencia.tipo"] = "must be diaria, semanal or mensal"
		}
		if validDate("recorrencia.data_fim_serie", b.Recurrence.SeriesEndDate) && ok {
			if b.Recurrence.SeriesEndDate < b.StartDate {
				fields["recorrencia.data_fim_serie"] = "must not be before data_inicio"
			}
		}
	}

	return apperror.NewValidation(fields)
}
