package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/espaco-booking-backend/internal/auth"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/espaco-booking-backend/internal/space"
)

// photoFormField is the multipart field carrying an uploaded photo.
const photoFormField = "foto"

type SpaceHandler struct {
	service space.Service
}

func NewHandler(service space.Service) *SpaceHandler {
	return &SpaceHandler{service: service}
}

// List retrieves a paginated list of spaces with optional filtering.
func (h *SpaceHandler) List(c *gin.Context) {
	var req ListSpacesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	spaces, total, err := h.service.List(c.Request.Context(), space.Filter{
		Keyword:   req.Keyword,
		Available: req.Available,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]SpaceResponse, len(spaces))
	for i, sp := range spaces {
		items[i] = NewSpaceResponse(sp)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *SpaceHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	sp, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSpaceResponse(sp))
}

func (h *SpaceHandler) Create(c *gin.Context) {
	var req CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	sp, err := h.service.Create(c.Request.Context(), space.CreateRequest{
		Name:      req.Name,
		Capacity:  req.Capacity,
		Location:  req.Location,
		Available: available,
	}, auth.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewSpaceResponse(sp))
}

func (h *SpaceHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	var req UpdateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	sp, err := h.service.Update(c.Request.Context(), uri.ID, space.UpdateRequest{
		Name:      req.Name,
		Capacity:  req.Capacity,
		Location:  req.Location,
		Available: req.Available,
	}, auth.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSpaceResponse(sp))
}

func (h *SpaceHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID, auth.GetPrincipal(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SpaceHandler) GrantResponsible(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	var req ResponsibleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	sp, err := h.service.GrantResponsible(c.Request.Context(), uri.ID, req.UserID, auth.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSpaceResponse(sp))
}

func (h *SpaceHandler) RevokeResponsible(c *gin.Context) {
	var uri ResponsibleURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	sp, err := h.service.RevokeResponsible(c.Request.Context(), uri.ID, uri.UserID, auth.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSpaceResponse(sp))
}

// UploadPhoto replaces the space photo with the multipart "foto" file.
func (h *SpaceHandler) UploadPhoto(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	fileHeader, err := c.FormFile(photoFormField)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Kind:   response.KindValidation,
			Error:  "invalid request",
			Fields: map[string]string{photoFormField: "is required"},
		})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	sp, err := h.service.UploadPhoto(c.Request.Context(), uri.ID, f, auth.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSpaceResponse(sp))
}

// ServePhoto streams the space photo, or its thumbnail with ?thumb=true.
func (h *SpaceHandler) ServePhoto(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}
	var q PhotoQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err)
		return
	}

	stream, err := h.service.Photo(c.Request.Context(), uri.ID, q.Thumbnail)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	// Photos are always re-encoded as JPEG.
	c.Header("Content-Type", "image/jpeg")
	c.Header("Cache-Control", "public, max-age=300")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, stream)
}
