package booking

import (
	"time"

	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/apperror"
)

// MaxOccurrences bounds how many bookings one recurring request may create.
const MaxOccurrences = 366

// Expand returns the occurrences described by b's recurrence, b's own dates first.
// A booking without recurrence expands to itself. Monthly series skip months
// that do not have the start day (a series on the 31st skips April).
func Expand(b *Booking) ([]*Booking, error) {
	if b.Recurrence == nil {
		cp := *b
		return []*Booking{&cp}, nil
	}

	start, err := time.Parse(dateLayout, datePart(b.StartDate))
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(dateLayout, datePart(b.EndDate))
	if err != nil {
		return nil, err
	}
	until, err := time.Parse(dateLayout, datePart(b.Recurrence.SeriesEndDate))
	if err != nil {
		return nil, err
	}
	spanDays := int(end.Sub(start).Hours() / 24)

	var out []*Booking
	for i := 0; ; i++ {
		var day time.Time
		switch b.Recurrence.Kind {
		case RecurrenceDaily:
			day = start.AddDate(0, 0, i)
		case RecurrenceWeekly:
			day = start.AddDate(0, 0, 7*i)
		case RecurrenceMonthly:
			day = start.AddDate(0, i, 0)
			if day.Day() != start.Day() {
				if day.After(until) {
					return out, nil
				}
				continue
			}
		default:
			return nil, apperror.NewValidation(map[string]string{
				"recorrencia.tipo": "must be diaria, semanal or mensal",
			})
		}
		if day.After(until) {
			break
		}
		if len(out) == MaxOccurrences {
			return nil, ErrTooManyOccurrence
		}

		occ := *b
		occ.StartDate = day.Format(dateLayout)
		occ.EndDate = day.AddDate(0, 0, spanDays).Format(dateLayout)
		out = append(out, &occ)
	}
	return out, nil
}
