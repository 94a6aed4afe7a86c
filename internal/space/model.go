package space

import (
	"net/http"
	"slices"
	"time"

	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "space not found")
	ErrNameRequired     = apperror.New(http.StatusBadRequest, "name is required")
	ErrCapacityInvalid  = apperror.New(http.StatusBadRequest, "capacity must be greater than zero")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
	ErrUserNotFound     = apperror.New(http.StatusNotFound, "user not found")
	ErrNoPhoto          = apperror.New(http.StatusNotFound, "space has no photo")
	ErrInvalidPhoto     = apperror.New(http.StatusBadRequest, "photo must be a JPEG, PNG or GIF image")
	ErrPhotoTooLarge    = apperror.New(http.StatusRequestEntityTooLarge, "photo is too large")
)

// Space is a bookable physical location ("espaço").
type Space struct {
	ID            string
	Name          string
	Capacity      int
	Location      string
	Available     bool
	CreatedBy     string
	Responsibles  []string // user ids granted responsibility, creator excluded
	PhotoPath     *string
	ThumbnailPath *string
	CreatedAt     time.Time
}

// IsResponsible reports whether the user created the space or was granted responsibility for it.
func (s *Space) IsResponsible(userID string) bool {
	if userID == "" {
		return false
	}
	return s.CreatedBy == userID || slices.Contains(s.Responsibles, userID)
}

// Filter defines parameters for listing spaces.
type Filter struct {
	Keyword   string // Search in Name or Location
	Available *bool
	Page      int
	PageSize  int
}
