package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/apperror"
)

func slot(date, start, end string) *Booking {
	return &Booking{
		Title:         "Reunião",
		UserID:        "7",
		SpaceID:       "3",
		StartDate:     date,
		StartTime:     start,
		EndDate:       date,
		EndTime:       end,
		Justification: "Planejamento",
		Status:        StatusPending,
	}
}

func TestInstant(t *testing.T) {
	assert.Equal(t, "2025-03-01T09:00", Instant("2025-03-01", "09:00"))
	assert.Equal(t, "2025-03-01T09:00", Instant("2025-03-01T00:00:00Z", "09:00:00"))
	assert.Equal(t, "2025-03-01T09:00", Instant("2025-03-01 00:00", " 09:00"))
}

func TestOverlaps(t *testing.T) {
	a := slot("2025-03-01", "09:00", "10:00")

	tests := []struct {
		name string
		b    *Booking
		want bool
	}{
		{"partial", slot("2025-03-01", "09:30", "10:30"), true},
		{"contained", slot("2025-03-01", "09:15", "09:45"), true},
		{"identical", slot("2025-03-01", "09:00", "10:00"), true},
		{"touching end", slot("2025-03-01", "10:00", "11:00"), false},
		{"touching start", slot("2025-03-01", "08:00", "09:00"), false},
		{"other day", slot("2025-03-02", "09:00", "10:00"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, a))
		})
	}

	overnight := &Booking{StartDate: "2025-03-01", StartTime: "22:00", EndDate: "2025-03-02", EndTime: "02:00"}
	assert.True(t, Overlaps(overnight, slot("2025-03-02", "01:00", "03:00")))
	assert.False(t, Overlaps(overnight, slot("2025-03-02", "02:00", "03:00")))
}

func TestEndTime(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	end, ok := EndTime(slot("2025-03-01", "09:00", "10:30"), loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, loc), end)

	_, ok = EndTime(slot("2025-03-01", "09:00", "nope"), loc)
	assert.False(t, ok)
	_, ok = EndTime(nil, loc)
	assert.False(t, ok)
}

func TestIsPast(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, loc)

	assert.True(t, IsPast(slot("2025-03-01", "08:00", "09:59"), now))
	assert.False(t, IsPast(slot("2025-03-01", "09:00", "10:00"), now), "ending exactly now is not past")
	assert.False(t, IsPast(slot("2025-03-01", "09:00", "10:30"), now))
	assert.True(t, IsPast(slot("2025-03-01", "09:00", "09:30:00"), now))
	assert.True(t, IsPast(slot("2025-02-28T00:00:00", "09:00", "10:00"), now))

	t.Run("unparseable is never past", func(t *testing.T) {
		assert.False(t, IsPast(slot("not-a-date", "09:00", "10:00"), now))
		assert.False(t, IsPast(slot("2025-03-01", "09:00", "25:99"), now))
		assert.False(t, IsPast(&Booking{}, now))
		assert.False(t, IsPast(nil, now))
	})
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(slot("2025-03-01", "09:00", "10:00")))

	fieldsOf := func(t *testing.T, err error) map[string]string {
		t.Helper()
		var vErr *apperror.ValidationError
		require.ErrorAs(t, err, &vErr)
		return vErr.Fields
	}

	t.Run("required fields", func(t *testing.T) {
		fields := fieldsOf(t, Validate(&Booking{}))
		for _, key := range []string{"titulo", "espaco_id", "justificativa", "data_inicio", "hora_inicio", "data_fim", "hora_fim"} {
			assert.Contains(t, fields, key)
		}
	})

	t.Run("end before start", func(t *testing.T) {
		fields := fieldsOf(t, Validate(slot("2025-03-01", "10:00", "09:00")))
		assert.Equal(t, "end must be after start", fields["hora_fim"])
	})

	t.Run("zero length", func(t *testing.T) {
		fields := fieldsOf(t, Validate(slot("2025-03-01", "10:00", "10:00")))
		assert.Contains(t, fields, "hora_fim")
	})

	t.Run("unpadded clock", func(t *testing.T) {
		fields := fieldsOf(t, Validate(slot("2025-03-01", "9:00", "10:00")))
		assert.Contains(t, fields, "hora_inicio")
	})

	t.Run("multi-day is valid", func(t *testing.T) {
		b := slot("2025-03-01", "22:00", "02:00")
		b.EndDate = "2025-03-02"
		assert.NoError(t, Validate(b))
	})

	t.Run("recurrence", func(t *testing.T) {
		b := slot("2025-03-01", "09:00", "10:00")
		b.Recurrence = &Recurrence{Kind: "anual", SeriesEndDate: "2025-02-01"}
		fields := fieldsOf(t, Validate(b))
		assert.Contains(t, fields, "recorrencia.tipo")
		assert.Contains(t, fields, "recorrencia.data_fim_serie")

		b.Recurrence = &Recurrence{Kind: RecurrenceWeekly, SeriesEndDate: "2025-04-01"}
		assert.NoError(t, Validate(b))
	})
}
