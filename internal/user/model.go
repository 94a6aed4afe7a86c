package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/espaco-booking-backend/internal/auth"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrInvalidRole        = apperror.New(http.StatusBadRequest, "role must be admin or usuario")
	ErrPermissionDenied   = apperror.New(http.StatusForbidden, "permission denied")
)

// User represents a person who books spaces.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	Name         string
	Role         string // auth.RoleAdmin or auth.RoleUser
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

// ValidRole reports whether role is a known user role.
func ValidRole(role string) bool {
	return role == auth.RoleAdmin || role == auth.RoleUser
}

// Filter defines filter options for listing users.
type Filter struct {
	Email    string
	Name     string
	Role     string
	IsActive *bool // nil means any

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
