package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labelforge/labelforge-engine/pkg/apperrors"
	"github.com/labelforge/labelforge-engine/pkg/models"
	"github.com/labelforge/labelforge-engine/pkg/repositories"
	"github.com/labelforge/labelforge-engine/pkg/services/jobqueue"
	"github.com/labelforge/labelforge-engine/pkg/storage"
)

// JobSubmitter enqueues background jobs. Satisfied by jobqueue.Queue.
type JobSubmitter interface {
	Submit(job jobqueue.Job) (string, error)
}

// DatasetWithURL is a dataset row enriched with a presigned download URL.
type DatasetWithURL struct {
	*models.Dataset
	ZipURL string `json:"zip_url"`
}

// DatasetService handles dataset export orchestration and dataset lifecycle.
type DatasetService interface {
	// Export validates the ratios and enqueues an export job for the project.
	// Returns apperrors.ErrInvalidSplit for bad ratios and
	// apperrors.ErrNotFound for an unknown project.
	Export(ctx context.Context, projectID uuid.UUID, ratios models.SplitRatios) (string, error)
	// List returns the project's dataset versions, newest first, each with a
	// presigned archive URL.
	List(ctx context.Context, projectID uuid.UUID) ([]*DatasetWithURL, error)
	// Get returns one dataset version with a presigned archive URL.
	Get(ctx context.Context, projectID, id uuid.UUID) (*DatasetWithURL, error)
	// Delete removes the dataset row, then enqueues removal of its archive.
	// Returns the cleanup job ID.
	Delete(ctx context.Context, projectID, id uuid.UUID) (string, error)
}

type datasetService struct {
	projects     repositories.ProjectRepository
	images       repositories.ImageRepository
	annotations  repositories.AnnotationRepository
	datasets     repositories.DatasetRepository
	store        storage.ObjectStore
	urls         URLCache
	jobs         JobSubmitter
	signedURLTTL time.Duration
	logger       *zap.Logger
}

// NewDatasetService creates a new dataset service.
func NewDatasetService(
	projects repositories.ProjectRepository,
	images repositories.ImageRepository,
	annotations repositories.AnnotationRepository,
	datasets repositories.DatasetRepository,
	store storage.ObjectStore,
	urls URLCache,
	jobs JobSubmitter,
	signedURLTTL time.Duration,
	logger *zap.Logger,
) DatasetService {
	return &datasetService{
		projects:     projects,
		images:       images,
		annotations:  annotations,
		datasets:     datasets,
		store:        store,
		urls:         urls,
		jobs:         jobs,
		signedURLTTL: signedURLTTL,
		logger:       logger.Named("datasets"),
	}
}

func (s *datasetService) Export(ctx context.Context, projectID uuid.UUID, ratios models.SplitRatios) (string, error) {
	if !ratios.Valid() {
		return "", fmt.Errorf("train=%v val=%v test=%v: %w",
			ratios.Train, ratios.Val, ratios.Test, apperrors.ErrInvalidSplit)
	}

	// Reject unknown projects at submission time; the job re-checks because
	// the project can disappear between enqueue and execution.
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return "", err
	}

	task := NewExportTask(
		s.projects,
		s.images,
		s.annotations,
		s.datasets,
		s.store,
		projectID,
		ratios,
		s.signedURLTTL,
		s.logger,
	)
	jobID, err := s.jobs.Submit(task)
	if err != nil {
		return "", fmt.Errorf("enqueue export: %w", err)
	}

	s.logger.Info("Export job enqueued",
		zap.String("project_id", projectID.String()),
		zap.String("job_id", jobID))
	return jobID, nil
}

func (s *datasetService) List(ctx context.Context, projectID uuid.UUID) ([]*DatasetWithURL, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	datasets, err := s.datasets.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := make([]*DatasetWithURL, 0, len(datasets))
	for _, d := range datasets {
		url, err := s.urls.SignedURL(ctx, URLKindDataset, d.ID.String(), d.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("sign URL for dataset %s: %w", d.ID, err)
		}
		out = append(out, &DatasetWithURL{Dataset: d, ZipURL: url})
	}
	return out, nil
}

func (s *datasetService) Get(ctx context.Context, projectID, id uuid.UUID) (*DatasetWithURL, error) {
	dataset, err := s.datasets.Get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}

	url, err := s.urls.SignedURL(ctx, URLKindDataset, dataset.ID.String(), dataset.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("sign URL for dataset %s: %w", dataset.ID, err)
	}
	return &DatasetWithURL{Dataset: dataset, ZipURL: url}, nil
}

func (s *datasetService) Delete(ctx context.Context, projectID, id uuid.UUID) (string, error) {
	dataset, err := s.datasets.Get(ctx, projectID, id)
	if err != nil {
		return "", err
	}

	if err := s.datasets.Delete(ctx, projectID, id); err != nil {
		return "", err
	}
	s.urls.Invalidate(ctx, URLKindDataset, id.String())

	// The archive is removed only after the row is gone, so a failed delete
	// never leaves a dangling record pointing at missing bytes.
	jobID, err := s.jobs.Submit(NewCleanupTask(s.store, dataset.ArchivePath, s.logger))
	if err != nil {
		return "", fmt.Errorf("enqueue archive cleanup: %w", err)
	}

	s.logger.Info("Dataset deleted",
		zap.String("project_id", projectID.String()),
		zap.String("dataset_id", id.String()),
		zap.String("cleanup_job_id", jobID))
	return jobID, nil
}

// Ensure datasetService implements DatasetService at compile time.
var _ DatasetService = (*datasetService)(nil)
