package auth

import "github.com/gin-gonic/gin"

const (
	RoleAdmin = "admin"
	RoleUser  = "usuario"
)

const (
	ctxUserID = "userID"
	ctxRole   = "userRole"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the principal holds the elevated role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetPrincipal returns the authenticated caller stored by AuthRequired.
func GetPrincipal(c *gin.Context) Principal {
	return Principal{
		UserID: c.GetString(ctxUserID),
		Role:   c.GetString(ctxRole),
	}
}

// SetPrincipal stores the caller on the request context.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(ctxUserID, p.UserID)
	c.Set(ctxRole, p.Role)
}
