package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
)

// Middlewares groups the handlers wrapped around booking routes.
type Middlewares struct {
	Auth          gin.HandlerFunc
	WriteLimit    gin.HandlerFunc // rate limit for endpoints that create or move bookings
	CalendarCache gin.HandlerFunc // response cache for the calendar feed
	Invalidate    gin.HandlerFunc // drops cached calendar responses after a successful write
}

// RegisterRoutes registers booking routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, m Middlewares) {
	g.GET("/calendario", m.Auth, m.CalendarCache, h.Calendar)

	group := g.Group("/agendamentos")
	group.Use(m.Auth)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/acoes", h.Actions)
		group.POST("/conflitos", h.CheckConflicts)

		writes := group.Group("", m.Invalidate)
		writes.POST("", m.WriteLimit, h.Create)
		writes.PATCH("/:id", m.WriteLimit, h.Update)
		writes.POST("/:id/aprovar", h.ChangeStatus(booking.ActionApprove))
		writes.POST("/:id/rejeitar", h.ChangeStatus(booking.ActionReject))
		writes.POST("/:id/cancelar", h.ChangeStatus(booking.ActionCancel))
		writes.POST("/:id/reativar", h.ChangeStatus(booking.ActionUncancel))
	}
}
