package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nekogravitycat/espaco-booking-backend/internal/auth"
	"github.com/nekogravitycat/espaco-booking-backend/internal/logging"
	"github.com/nekogravitycat/espaco-booking-backend/internal/user"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger attaches a logger tagged with the request id to the request context.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		logger := base.With("request_id", id)
		c.Request = c.Request.WithContext(logging.ContextWithLogger(c.Request.Context(), logger))
		c.Next()
	}
}

// Authenticate validates the bearer token and then loads the caller from storage.
// The stored role wins over the one in the token and deactivated users are
// rejected, so a revoked admin loses access before the token expires.
func Authenticate(jwtManager *auth.JWTManager, userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.BearerClaims(c, jwtManager)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"kind": "error", "error": err.Error()})
			return
		}

		u, err := userService.GetByID(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"kind": "error", "error": "user not found"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"kind": "error", "error": "internal server error"})
			return
		}
		if !u.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"kind": "error", "error": "user is inactive"})
			return
		}

		auth.SetPrincipal(c, auth.Principal{UserID: u.ID, Role: u.Role})
		c.Next()
	}
}
