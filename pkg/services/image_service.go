package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labelforge/labelforge-engine/pkg/repositories"
	"github.com/labelforge/labelforge-engine/pkg/storage"
)

// ImageService handles image lifecycle operations that touch remote storage.
type ImageService interface {
	// Delete removes the image row (annotations cascade), then enqueues
	// removal of the stored bytes. Returns the cleanup job ID.
	Delete(ctx context.Context, projectID, id uuid.UUID) (string, error)
}

type imageService struct {
	images repositories.ImageRepository
	store  storage.ObjectStore
	urls   URLCache
	jobs   JobSubmitter
	logger *zap.Logger
}

// NewImageService creates a new image service.
func NewImageService(
	images repositories.ImageRepository,
	store storage.ObjectStore,
	urls URLCache,
	jobs JobSubmitter,
	logger *zap.Logger,
) ImageService {
	return &imageService{
		images: images,
		store:  store,
		urls:   urls,
		jobs:   jobs,
		logger: logger.Named("images"),
	}
}

func (s *imageService) Delete(ctx context.Context, projectID, id uuid.UUID) (string, error) {
	img, err := s.images.Get(ctx, projectID, id)
	if err != nil {
		return "", err
	}

	if err := s.images.Delete(ctx, projectID, id); err != nil {
		return "", err
	}
	s.urls.Invalidate(ctx, URLKindImage, id.String())

	jobID, err := s.jobs.Submit(NewCleanupTask(s.store, img.StoragePath, s.logger))
	if err != nil {
		return "", fmt.Errorf("enqueue image cleanup: %w", err)
	}

	s.logger.Info("Image deleted",
		zap.String("project_id", projectID.String()),
		zap.String("image_id", id.String()),
		zap.String("cleanup_job_id", jobID))
	return jobID, nil
}

// Ensure imageService implements ImageService at compile time.
var _ ImageService = (*imageService)(nil)
