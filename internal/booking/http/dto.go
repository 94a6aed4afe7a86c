package http

import (
	"time"

	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
	"github.com/nekogravitycat/espaco-booking-backend/internal/calendar"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	SpaceID   string `form:"espaco_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=pendente aprovado rejeitado cancelado"`
	UserID    string `form:"usuario_id" binding:"omitempty,uuid"`
	DateFrom  string `form:"de" binding:"omitempty,datetime=2006-01-02"`
	DateTo    string `form:"ate" binding:"omitempty,datetime=2006-01-02"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=data_inicio data_fim created_at status titulo"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// CalendarRequest defines query parameters for the calendar feed.
type CalendarRequest struct {
	SpaceID  string `form:"espaco_id" binding:"omitempty,uuid"`
	DateFrom string `form:"de" binding:"required,datetime=2006-01-02"`
	DateTo   string `form:"ate" binding:"required,datetime=2006-01-02"`
	Status   string `form:"status" binding:"omitempty,oneof=pendente aprovado rejeitado cancelado"`
}

type RecurrenceBody struct {
	Kind          string `json:"tipo"`
	SeriesEndDate string `json:"data_fim_serie"`
}

type CreateBookingBody struct {
	Title         string          `json:"titulo"`
	SpaceID       string          `json:"espaco_id"`
	StartDate     string          `json:"data_inicio"`
	StartTime     string          `json:"hora_inicio"`
	EndDate       string          `json:"data_fim"`
	EndTime       string          `json:"hora_fim"`
	Justification string          `json:"justificativa"`
	Notes         *string         `json:"observacoes"`
	Recurrence    *RecurrenceBody `json:"recorrencia"`
	ForceUpdate   bool            `json:"force_update"`
}

func (b CreateBookingBody) toRequest() booking.CreateRequest {
	req := booking.CreateRequest{
		Title:         b.Title,
		SpaceID:       b.SpaceID,
		StartDate:     b.StartDate,
		StartTime:     b.StartTime,
		EndDate:       b.EndDate,
		EndTime:       b.EndTime,
		Justification: b.Justification,
		Notes:         b.Notes,
		ForceUpdate:   b.ForceUpdate,
	}
	if b.Recurrence != nil {
		req.Recurrence = &booking.Recurrence{
			Kind:          booking.RecurrenceKind(b.Recurrence.Kind),
			SeriesEndDate: b.Recurrence.SeriesEndDate,
		}
	}
	return req
}

// UpdateBookingBody uses pointers so omitted fields stay unchanged.
type UpdateBookingBody struct {
	Title         *string `json:"titulo"`
	SpaceID       *string `json:"espaco_id"`
	StartDate     *string `json:"data_inicio"`
	StartTime     *string `json:"hora_inicio"`
	EndDate       *string `json:"data_fim"`
	EndTime       *string `json:"hora_fim"`
	Justification *string `json:"justificativa"`
	Notes         *string `json:"observacoes"`
	ForceUpdate   bool    `json:"force_update"`
}

func (b UpdateBookingBody) toRequest() booking.UpdateRequest {
	return booking.UpdateRequest{
		Title:         b.Title,
		SpaceID:       b.SpaceID,
		StartDate:     b.StartDate,
		StartTime:     b.StartTime,
		EndDate:       b.EndDate,
		EndTime:       b.EndTime,
		Justification: b.Justification,
		Notes:         b.Notes,
		ForceUpdate:   b.ForceUpdate,
	}
}

type StatusChangeBody struct {
	Reason string `json:"motivo"`
}

type UserTag struct {
	ID    string `json:"id"`
	Name  string `json:"nome"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type BookingResponse struct {
	ID              string          `json:"id"`
	Title           string          `json:"titulo"`
	User            UserTag         `json:"usuario"`
	SpaceID         string          `json:"espaco_id"`
	SpaceName       string          `json:"espaco_nome,omitempty"`
	StartDate       string          `json:"data_inicio"`
	StartTime       string          `json:"hora_inicio"`
	EndDate         string          `json:"data_fim"`
	EndTime         string          `json:"hora_fim"`
	Justification   string          `json:"justificativa,omitempty"`
	Notes           *string         `json:"observacoes,omitempty"`
	Status          string          `json:"status"`
	Recurrence      *RecurrenceBody `json:"recorrencia,omitempty"`
	SeriesID        *string         `json:"serie_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ApprovedBy      *string         `json:"aprovado_por,omitempty"`
	ApprovedAt      *time.Time      `json:"aprovado_em,omitempty"`
	RejectionReason *string         `json:"motivo_rejeicao,omitempty"`
	Color           calendar.Color  `json:"cor"`
	Past            bool            `json:"passado"`
}

func NewBookingResponse(b *booking.Booking, colorizer *booking.Colorizer) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		Title:           b.Title,
		User:            UserTag{ID: b.UserID, Name: b.UserName, Email: b.UserEmail, Role: b.UserRole},
		SpaceID:         b.SpaceID,
		SpaceName:       b.SpaceName,
		StartDate:       b.StartDate,
		StartTime:       b.StartTime,
		EndDate:         b.EndDate,
		EndTime:         b.EndTime,
		Justification:   b.Justification,
		Notes:           b.Notes,
		Status:          string(b.Status),
		SeriesID:        b.SeriesID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		ApprovedBy:      b.ApprovedBy,
		ApprovedAt:      b.ApprovedAt,
		RejectionReason: b.RejectionReason,
		Color:           colorizer.ColorFor(b),
		Past:            booking.IsPast(b, colorizer.Now()),
	}
	if b.Recurrence != nil {
		resp.Recurrence = &RecurrenceBody{
			Kind:          string(b.Recurrence.Kind),
			SeriesEndDate: b.Recurrence.SeriesEndDate,
		}
	}
	return resp
}

// ToBooking converts a response back into the domain type. Clients use it to
// read bookings returned by the API.
func (r BookingResponse) ToBooking() *booking.Booking {
	b := &booking.Booking{
		ID:              r.ID,
		Title:           r.Title,
		UserID:          r.User.ID,
		UserName:        r.User.Name,
		UserEmail:       r.User.Email,
		UserRole:        r.User.Role,
		SpaceID:         r.SpaceID,
		SpaceName:       r.SpaceName,
		StartDate:       r.StartDate,
		StartTime:       r.StartTime,
		EndDate:         r.EndDate,
		EndTime:         r.EndTime,
		Justification:   r.Justification,
		Notes:           r.Notes,
		Status:          booking.Status(r.Status),
		SeriesID:        r.SeriesID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectionReason: r.RejectionReason,
	}
	if r.Recurrence != nil {
		b.Recurrence = &booking.Recurrence{
			Kind:          booking.RecurrenceKind(r.Recurrence.Kind),
			SeriesEndDate: r.Recurrence.SeriesEndDate,
		}
	}
	return b
}

type CreateBookingResponse struct {
	BookingResponse
	Occurrences []string `json:"ocorrencias"`
	Overridden  []string `json:"conflitos_ignorados,omitempty"`
}

// ConflictResponse is the 409 body of a write that overlaps existing bookings.
type ConflictResponse struct {
	Kind      string            `json:"kind"`
	Error     string            `json:"error"`
	Conflicts []BookingResponse `json:"conflicts"`
}

type ActionsResponse struct {
	BookingID string   `json:"agendamento_id"`
	Status    string   `json:"status"`
	Actions   []string `json:"acoes"`
}

type CalendarEvent struct {
	ID       string         `json:"id"`
	Title    string         `json:"titulo"`
	SpaceID  string         `json:"espaco_id"`
	UserID   string         `json:"usuario_id"`
	Start    string         `json:"inicio"`
	End      string         `json:"fim"`
	Status   string         `json:"status"`
	SeriesID *string        `json:"serie_id,omitempty"`
	Color    calendar.Color `json:"cor"`
	Past     bool           `json:"passado"`
}
