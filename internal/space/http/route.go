package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers space routes. invalidate runs on writes that can change
// what the booking calendar shows.
func RegisterRoutes(g *gin.RouterGroup, h *SpaceHandler, authMiddleware, invalidate gin.HandlerFunc) {
	group := g.Group("/espacos")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)                                          // List spaces
		group.GET("/:id", h.Get)                                       // Get space details
		group.POST("", h.Create)                                       // Create space (admin)
		group.PATCH("/:id", h.Update)                                  // Update space
		group.DELETE("/:id", invalidate, h.Delete)                     // Delete space (admin)
		group.POST("/:id/responsaveis", h.GrantResponsible)            // Grant responsibility
		group.DELETE("/:id/responsaveis/:userId", h.RevokeResponsible) // Revoke responsibility
		group.POST("/:id/foto", h.UploadPhoto)                         // Upload photo
		group.GET("/:id/foto", h.ServePhoto)                           // Serve photo or thumbnail
	}
}
