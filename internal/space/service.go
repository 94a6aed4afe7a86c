package space

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nekogravitycat/espaco-booking-backend/internal/auth"
	"github.com/nekogravitycat/espaco-booking-backend/internal/logging"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/storage"
)

const (
	photoMaxSide     = 1600
	thumbnailMaxSide = 300
)

// CreateRequest carries data to create a space.
type CreateRequest struct {
	Name      string
	Capacity  int
	Location  string
	Available bool
}

// UpdateRequest carries data for partial updates.
type UpdateRequest struct {
	Name      *string
	Capacity  *int
	Location  *string
	Available *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest, p auth.Principal) (*Space, error)
	GetByID(ctx context.Context, id string) (*Space, error)
	List(ctx context.Context, filter Filter) ([]*Space, int, error)
	Update(ctx context.Context, id string, req UpdateRequest, p auth.Principal) (*Space, error)
	Delete(ctx context.Context, id string, p auth.Principal) error
	GrantResponsible(ctx context.Context, spaceID, userID string, p auth.Principal) (*Space, error)
	RevokeResponsible(ctx context.Context, spaceID, userID string, p auth.Principal) (*Space, error)
	UploadPhoto(ctx context.Context, id string, content io.Reader, p auth.Principal) (*Space, error)
	Photo(ctx context.Context, id string, thumbnail bool) (io.ReadCloser, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
	logger  *slog.Logger

	maxPhotoBytes int64
}

// NewService creates a space Service. maxPhotoBytes <= 0 means 10 MiB.
func NewService(repo Repository, store storage.Storage, logger *slog.Logger, maxPhotoBytes int64) Service {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = 10 << 20
	}
	return &service{
		repo:          repo,
		storage:       store,
		imgProc:       storage.NewImageProcessor(),
		logger:        logger,
		maxPhotoBytes: maxPhotoBytes,
	}
}

func validateSpace(sp *Space) error {
	if strings.TrimSpace(sp.Name) == "" {
		return ErrNameRequired
	}
	if sp.Capacity <= 0 {
		return ErrCapacityInvalid
	}
	return nil
}

// canManage reports whether p may change the space's data or photo.
func canManage(sp *Space, p auth.Principal) bool {
	return p.IsAdmin() || sp.IsResponsible(p.UserID)
}

func (s *service) Create(ctx context.Context, req CreateRequest, p auth.Principal) (*Space, error) {
	if !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	sp := &Space{
		Name:      strings.TrimSpace(req.Name),
		Capacity:  req.Capacity,
		Location:  strings.TrimSpace(req.Location),
		Available: req.Available,
		CreatedBy: p.UserID,
	}
	if err := validateSpace(sp); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Space, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Space, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest, p auth.Principal) (*Space, error) {
	sp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(sp, p) {
		return nil, ErrPermissionDenied
	}

	if req.Name != nil {
		sp.Name = strings.TrimSpace(*req.Name)
	}
	if req.Capacity != nil {
		sp.Capacity = *req.Capacity
	}
	if req.Location != nil {
		sp.Location = strings.TrimSpace(*req.Location)
	}
	if req.Available != nil {
		sp.Available = *req.Available
	}
	if err := validateSpace(sp); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *service) Delete(ctx context.Context, id string, p auth.Principal) error {
	if !p.IsAdmin() {
		return ErrPermissionDenied
	}
	sp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removePhotoFiles(ctx, sp)
	return nil
}

// GrantResponsible adds a user to the space's responsibility set.
// Only admins and the space creator may grant.
func (s *service) GrantResponsible(ctx context.Context, spaceID, userID string, p auth.Principal) (*Space, error) {
	sp, err := s.repo.GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && sp.CreatedBy != p.UserID {
		return nil, ErrPermissionDenied
	}
	if userID == sp.CreatedBy {
		return sp, nil
	}

	if err := s.repo.AddResponsible(ctx, spaceID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, spaceID)
}

func (s *service) RevokeResponsible(ctx context.Context, spaceID, userID string, p auth.Principal) (*Space, error) {
	sp, err := s.repo.GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && sp.CreatedBy != p.UserID {
		return nil, ErrPermissionDenied
	}

	if err := s.repo.RemoveResponsible(ctx, spaceID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, spaceID)
}

// UploadPhoto stores a resized JPEG of the photo and its thumbnail, replacing any previous photo.
func (s *service) UploadPhoto(ctx context.Context, id string, content io.Reader, p auth.Principal) (*Space, error) {
	sp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(sp, p) {
		return nil, ErrPermissionDenied
	}

	// Read one byte past the limit to detect oversized uploads.
	raw, err := io.ReadAll(io.LimitReader(content, s.maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if int64(len(raw)) > s.maxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}

	photo, err := s.imgProc.Fit(bytes.NewReader(raw), photoMaxSide, photoMaxSide)
	if err != nil {
		return nil, ErrInvalidPhoto
	}
	thumb, err := s.imgProc.GenerateThumbnail(bytes.NewReader(raw), thumbnailMaxSide, thumbnailMaxSide)
	if err != nil {
		return nil, ErrInvalidPhoto
	}

	fileID := uuid.New().String()
	shard := fileID[:2]
	photoPath := fmt.Sprintf("espacos/%s/%s.jpg", shard, fileID)
	thumbPath := fmt.Sprintf("espacos/%s/%s_thumb.jpg", shard, fileID)

	if err := s.storage.Save(ctx, photoPath, photo); err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	if err := s.storage.Save(ctx, thumbPath, thumb); err != nil {
		_ = s.storage.Delete(ctx, photoPath)
		return nil, fmt.Errorf("failed to save thumbnail: %w", err)
	}

	if err := s.repo.SetPhoto(ctx, id, &photoPath, &thumbPath); err != nil {
		_ = s.storage.Delete(ctx, photoPath)
		_ = s.storage.Delete(ctx, thumbPath)
		return nil, err
	}

	s.removePhotoFiles(ctx, sp)
	sp.PhotoPath, sp.ThumbnailPath = &photoPath, &thumbPath
	return sp, nil
}

func (s *service) Photo(ctx context.Context, id string, thumbnail bool) (io.ReadCloser, error) {
	sp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path := sp.PhotoPath
	if thumbnail {
		path = sp.ThumbnailPath
	}
	if path == nil {
		return nil, ErrNoPhoto
	}
	rc, err := s.storage.Get(ctx, *path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoPhoto
	}
	return rc, err
}

// removePhotoFiles deletes the stored files of sp, best effort.
func (s *service) removePhotoFiles(ctx context.Context, sp *Space) {
	for _, path := range []*string{sp.PhotoPath, sp.ThumbnailPath} {
		if path == nil {
			continue
		}
		if err := s.storage.Delete(ctx, *path); err != nil {
			logging.Resolve(ctx, s.logger).Warn("failed to delete space photo file",
				"space_id", sp.ID, "path", *path, "error", err)
		}
	}
}
