package booking

import (
	"fmt"
	"net/http"
)

// ConflictError is returned when a candidate overlaps existing active bookings
// in the same space and the caller did not ask to override.
type ConflictError struct {
	Conflicts []*Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflicts with %d existing booking(s)", len(e.Conflicts))
}

// StatusCode is the HTTP status used for conflicts.
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// ConflictIDs returns the ids of the conflicting bookings in order.
func (e *ConflictError) ConflictIDs() []string {
	ids := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		ids[i] = c.ID
	}
	return ids
}
