package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	ErrMissingAuthHeader = errors.New("missing Authorization header")
	ErrBadAuthHeader     = errors.New("invalid Authorization header format")
	ErrInvalidToken      = errors.New("invalid or expired token")
)

// BearerClaims validates the JWT from Authorization: Bearer <token>.
func BearerClaims(c *gin.Context, jwtManager *JWTManager) (*Claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, ErrMissingAuthHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, ErrBadAuthHeader
	}

	claims, err := jwtManager.ParseAndValidate(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AuthRequired is a Gin middleware that trusts the user and role carried by the JWT.
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := BearerClaims(c, jwtManager)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"kind": "error", "error": err.Error()})
			return
		}

		SetPrincipal(c, Principal{UserID: claims.Subject, Role: claims.Role})
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
// It MUST be used after an authentication middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetPrincipal(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"kind": "error", "error": "forbidden: admin access required"})
			return
		}
		c.Next()
	}
}
