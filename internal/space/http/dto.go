package http

import (
	"time"

	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/espaco-booking-backend/internal/space"
)

type ListSpacesRequest struct {
	request.ListParams
	Keyword   string `form:"q"`
	Available *bool  `form:"disponivel"`
}

type SpaceResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"nome"`
	Capacity     int       `json:"capacidade"`
	Location     string    `json:"localizacao"`
	Available    bool      `json:"disponivel"`
	CreatedBy    string    `json:"criado_por"`
	Responsibles []string  `json:"responsaveis"`
	PhotoURL     *string   `json:"foto_url,omitempty"`
	ThumbnailURL *string   `json:"foto_thumb_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// PhotoURL is the public path of a space's photo.
func PhotoURL(id string) string {
	return "/v1/espacos/" + id + "/foto"
}

func NewSpaceResponse(sp *space.Space) SpaceResponse {
	resp := SpaceResponse{
		ID:           sp.ID,
		Name:         sp.Name,
		Capacity:     sp.Capacity,
		Location:     sp.Location,
		Available:    sp.Available,
		CreatedBy:    sp.CreatedBy,
		Responsibles: sp.Responsibles,
		CreatedAt:    sp.CreatedAt,
	}
	if resp.Responsibles == nil {
		resp.Responsibles = []string{}
	}
	if sp.PhotoPath != nil {
		u := PhotoURL(sp.ID)
		resp.PhotoURL = &u
	}
	if sp.ThumbnailPath != nil {
		u := PhotoURL(sp.ID) + "?thumb=true"
		resp.ThumbnailURL = &u
	}
	return resp
}

type CreateSpaceRequest struct {
	Name      string `json:"nome" binding:"required"`
	Capacity  int    `json:"capacidade" binding:"required,min=1"`
	Location  string `json:"localizacao"`
	Available *bool  `json:"disponivel"`
}

type UpdateSpaceRequest struct {
	Name      *string `json:"nome"`
	Capacity  *int    `json:"capacidade" binding:"omitempty,min=1"`
	Location  *string `json:"localizacao"`
	Available *bool   `json:"disponivel"`
}

type ResponsibleRequest struct {
	UserID string `json:"usuario_id" binding:"required,uuid"`
}

type ResponsibleURI struct {
	ID     string `uri:"id" binding:"required,uuid"`
	UserID string `uri:"userId" binding:"required,uuid"`
}

type PhotoQuery struct {
	Thumbnail bool `form:"thumb"`
}
