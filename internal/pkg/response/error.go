package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/apperror"
)

// Error kinds let clients tell conflicts, validation failures and everything else apart
// without inspecting status codes or messages.
const (
	KindConflict   = "conflict"
	KindValidation = "validation"
	KindError      = "error"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Kind   string            `json:"kind"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Error sends a JSON error response.
// ValidationErrors become 400 with their fields, AppErrors use their own code,
// anything else is a 500 with a generic message.
func Error(c *gin.Context, err error) {
	var vErr *apperror.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(vErr.StatusCode(), ErrorResponse{Kind: KindValidation, Error: "validation failed", Fields: vErr.Fields})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, ErrorResponse{Kind: KindError, Error: appErr.Message})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Kind: KindError, Error: "internal server error"})
}

// BadRequest reports a body or query that could not be bound.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Kind:   KindValidation,
		Error:  "invalid request",
		Fields: map[string]string{"body": err.Error()},
	})
}
