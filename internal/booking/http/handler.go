package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/espaco-booking-backend/internal/auth"
	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/mw"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/response"
)

// calendarPageSize bounds how many bookings one calendar request returns.
const calendarPageSize = 1000

type Handler struct {
	service   booking.Service
	colorizer *booking.Colorizer
}

func NewHandler(service booking.Service, colorizer *booking.Colorizer) *Handler {
	return &Handler{
		service:   service,
		colorizer: colorizer,
	}
}

// writeError renders conflicts with their annotated list and defers everything else to response.Error.
func (h *Handler) writeError(c *gin.Context, err error) {
	var conflictErr *booking.ConflictError
	if errors.As(err, &conflictErr) {
		items := make([]BookingResponse, len(conflictErr.Conflicts))
		for i, b := range conflictErr.Conflicts {
			items[i] = NewBookingResponse(b, h.colorizer)
		}
		c.JSON(conflictErr.StatusCode(), ConflictResponse{
			Kind:      response.KindConflict,
			Error:     conflictErr.Error(),
			Conflicts: items,
		})
		return
	}
	response.Error(c, err)
}

// List returns bookings visible to the caller. Non-admins only see their own.
func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	p := auth.GetPrincipal(c)
	userID := p.UserID
	if p.IsAdmin() {
		userID = req.UserID
	}

	filter := booking.Filter{
		UserID:    userID,
		SpaceID:   req.SpaceID,
		Status:    req.Status,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b, h.colorizer)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// Calendar returns the bookings of a date range as colored calendar events.
// Cancelled bookings are left out unless explicitly requested by status.
func (h *Handler) Calendar(c *gin.Context) {
	var req CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if req.DateFrom > req.DateTo {
		response.Error(c, booking.ErrInvalidTimeRange)
		return
	}

	bookings, _, err := h.service.List(c.Request.Context(), booking.Filter{
		SpaceID:  req.SpaceID,
		Status:   req.Status,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Page:     1,
		PageSize: calendarPageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	now := h.colorizer.Now()
	events := make([]CalendarEvent, 0, len(bookings))
	for _, b := range bookings {
		if req.Status == "" && b.Status == booking.StatusCancelled {
			continue
		}
		// Past flags and colors change when a booking ends; a cached feed must not outlive that.
		if end, ok := booking.EndTime(b, now.Location()); ok && !end.Before(now) {
			mw.LimitCacheTTL(c, end.Sub(now))
		}
		events = append(events, CalendarEvent{
			ID:       b.ID,
			Title:    b.Title,
			SpaceID:  b.SpaceID,
			UserID:   b.UserID,
			Start:    b.StartInstant(),
			End:      b.EndInstant(),
			Status:   string(b.Status),
			SeriesID: b.SeriesID,
			Color:    h.colorizer.ColorFor(b),
			Past:     booking.IsPast(b, now),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": events})
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.service.Create(c.Request.Context(), body.toRequest(), auth.GetPrincipal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := CreateBookingResponse{
		BookingResponse: NewBookingResponse(result.Booking(), h.colorizer),
		Occurrences:     make([]string, len(result.Occurrences)),
	}
	for i, o := range result.Occurrences {
		resp.Occurrences[i] = o.ID
	}
	for _, o := range result.Overridden {
		resp.Overridden = append(resp.Overridden, o.ID)
	}
	c.JSON(http.StatusCreated, resp)
}

// CheckConflicts previews the conflicts of a create request without writing it.
func (h *Handler) CheckConflicts(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err)
		return
	}

	conflicts, err := h.service.CheckConflicts(c.Request.Context(), body.toRequest(), auth.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(conflicts))
	for i, b := range conflicts {
		items[i] = NewBookingResponse(b, h.colorizer)
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": items})
}

// Get returns one booking. Any authenticated user may read it; the calendar is shared.
func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b, h.colorizer))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	var body UpdateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err)
		return
	}

	b, err := h.service.Update(c.Request.Context(), uri.ID, body.toRequest(), auth.GetPrincipal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b, h.colorizer))
}

// Actions lists the lifecycle actions the caller may perform on the booking.
func (h *Handler) Actions(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	b, actions, err := h.service.Actions(c.Request.Context(), uri.ID, auth.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	c.JSON(http.StatusOK, ActionsResponse{BookingID: b.ID, Status: string(b.Status), Actions: names})
}

// ChangeStatus returns a handler applying one lifecycle action.
func (h *Handler) ChangeStatus(action booking.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var uri request.ByIDRequest
		if err := c.ShouldBindUri(&uri); err != nil {
			response.BadRequest(c, err)
			return
		}

		var body StatusChangeBody
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
				response.BadRequest(c, err)
				return
			}
		}

		b, err := h.service.ChangeStatus(c.Request.Context(), uri.ID, action, body.Reason, auth.GetPrincipal(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, NewBookingResponse(b, h.colorizer))
	}
}
