package services

import (
	"context"
	"errors"
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

const archiveContentType = "application/zip"

// ExportTask is the dataset export job: it partitions a project's annotated
// images into train/val/test, streams image bytes and generated label files
// into a ZIP archive feeding a chunked upload, assigns the next version
// number, and persists the dataset record. Progress is reported after every
// image and before the upload hand-off.
//
// Any failure aborts the whole export: no dataset row is written and the
// structured error result carries the message. A partial remote object may
// remain unreferenced in storage; it is not cleaned up automatically.
type ExportTask struct {
	projects    repositories.ProjectRepository
	images      repositories.ImageRepository
	annotations repositories.AnnotationRepository
	datasets    repositories.DatasetRepository
	store       storage.ObjectStore
	logger      *zap.Logger

	projectID    uuid.UUID
	ratios       models.SplitRatios
	signedURLTTL time.Duration
}

// NewExportTask creates a new dataset export job for one project.
func NewExportTask(
	projects repositories.ProjectRepository,
	images repositories.ImageRepository,
	annotations repositories.AnnotationRepository,
	datasets repositories.DatasetRepository,
	store storage.ObjectStore,
	projectID uuid.UUID,
	ratios models.SplitRatios,
	signedURLTTL time.Duration,
	logger *zap.Logger,
) *ExportTask {
	return &ExportTask{
		projects:     projects,
		images:       images,
		annotations:  annotations,
		datasets:     datasets,
		store:        store,
		projectID:    projectID,
		ratios:       ratios,
		signedURLTTL: signedURLTTL,
		logger:       logger.Named("export"),
	}
}

// Name implements jobqueue.Job.
func (t *ExportTask) Name() string {
	return "Export dataset"
}

// Execute implements jobqueue.Job.
func (t *ExportTask) Execute(ctx context.Context, report jobqueue.ProgressFunc) (any, error) {
	project, err := t.projects.Get(ctx, t.projectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errors.New("Project not found")
		}
		return nil, fmt.Errorf("load project: %w", err)
	}

	images, err := t.images.ListAnnotated(ctx, t.projectID)
	if err != nil {
		return nil, fmt.Errorf("list annotated images: %w", err)
	}
	if len(images) == 0 {
		return nil, apperrors.ErrNoAnnotatedImages
	}
	total := len(images)

	report(&models.ExportProgress{
		Total:   total,
		Phase:   "Partitioning",
		Message: "Shuffling images into splits...",
	})
	splits := PartitionImages(images, t.ratios)

	// The class index spans the whole project, not just the exported subset,
	// so class IDs stay stable regardless of the shuffle.
	allAnnotations, err := t.annotations.ListByProject(ctx, t.projectID)
	if err != nil {
		return nil, fmt.Errorf("list project annotations: %w", err)
	}
	classes := BuildClassMap(allAnnotations)

	maxVersion, err := t.datasets.MaxVersion(ctx, t.projectID)
	if err != nil {
		return nil, fmt.Errorf("read dataset version: %w", err)
	}
	version := maxVersion + 1
	archivePath := storage.DatasetArchivePath(project.OwnerID.String(), project.Name, version)

	t.logger.Info("Starting dataset export",
		zap.String("project_id", t.projectID.String()),
		zap.Int("version", version),
		zap.Int("total_images", total),
		zap.Int("classes", classes.Len()))

	// The upload consumes the archive stream while entries are still being
	// produced; the pipe is the back-pressure between the two.
	aw := NewArchiveWriter()
	uploadDone := make(chan error, 1)
	go func() {
		err := t.store.Put(ctx, archivePath, aw.Reader(), -1, archiveContentType)
		if err != nil {
			// The upload stopped consuming the stream; unblock any pending
			// entry write so the job fails instead of stalling on the pipe.
			aw.Fail(err)
		}
		uploadDone <- err
	}()

	if err := t.writeSplits(ctx, aw, splits, classes, report); err != nil {
		aw.Abort(err)
		<-uploadDone
		return nil, err
	}

	manifest, err := DataYAML(classes.Names())
	if err != nil {
		aw.Abort(err)
		<-uploadDone
		return nil, err
	}
	if err := aw.AddBytes("data.yaml", manifest); err != nil {
		aw.Abort(err)
		<-uploadDone
		return nil, err
	}

	report(&models.ExportProgress{
		Current: total,
		Total:   total,
		Phase:   "Uploading",
		Message: "Uploading dataset to cloud...",
	})

	if err := aw.Close(); err != nil {
		<-uploadDone
		return nil, err
	}
	if err := <-uploadDone; err != nil {
		return nil, fmt.Errorf("upload archive: %w", err)
	}

	dataset := &models.Dataset{
		ProjectID:   t.projectID,
		Version:     version,
		ArchivePath: archivePath,
		Classes:     classes.Names(),
		TrainSplit:  t.ratios.Train,
		ValSplit:    t.ratios.Val,
		TestSplit:   t.ratios.Test,
	}
	if err := t.datasets.Create(ctx, dataset); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("persist dataset: %w", err)
		}
		// A concurrent export of the same project took this version number.
		// Re-read max, move the archive to the new version's path, retry once.
		if dataset, err = t.retryPersist(ctx, project, dataset); err != nil {
			return nil, err
		}
	}

	signedURL, err := t.store.SignedURL(ctx, dataset.ArchivePath, t.signedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign archive URL: %w", err)
	}

	t.logger.Info("Dataset export completed",
		zap.String("project_id", t.projectID.String()),
		zap.String("dataset_id", dataset.ID.String()),
		zap.Int("version", dataset.Version),
		zap.Int("total_images", total))

	return models.ExportSuccess(dataset.ID, dataset.Version, signedURL, classes.Names(), total), nil
}

// writeSplits streams each split's images and label files into the archive,
// reporting progress after every image.
func (t *ExportTask) writeSplits(
	ctx context.Context,
	aw *ArchiveWriter,
	splits SplitSet,
	classes *ClassMap,
	report jobqueue.ProgressFunc,
) error {
	total := splits.Total()
	processed := 0

	for _, split := range splits.Ordered() {
		phase := "Processing " + split.Name
		for _, img := range split.Images {
			if err := t.writeImage(ctx, aw, split.Name, img, classes); err != nil {
				return err
			}
			processed++
			report(&models.ExportProgress{
				Current: processed,
				Total:   total,
				Phase:   phase,
				Message: fmt.Sprintf("Processing %s...", img.Filename),
			})
		}
	}

	return nil
}

// writeImage adds one image entry (streamed from the object store) and its
// sibling label entry to the archive.
func (t *ExportTask) writeImage(
	ctx context.Context,
	aw *ArchiveWriter,
	splitName string,
	img *models.Image,
	classes *ClassMap,
) error {
	rc, err := t.store.Get(ctx, img.StoragePath)
	if err != nil {
		return fmt.Errorf("read image %s: %w", img.Filename, err)
	}
	copyErr := aw.AddStream("images/"+splitName+"/"+img.Filename, rc)
	if closeErr := rc.Close(); copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("close image %s: %w", img.Filename, closeErr)
	}
	if copyErr != nil {
		return copyErr
	}

	annotations, err := t.annotations.ListByImage(ctx, img.ID)
	if err != nil {
		return fmt.Errorf("list annotations for %s: %w", img.Filename, err)
	}
	lines, err := LabelLines(annotations, classes)
	if err != nil {
		return err
	}

	return aw.AddBytes("labels/"+splitName+"/"+LabelEntryName(img.Filename), []byte(lines))
}

// retryPersist handles a (project, version) uniqueness conflict: it re-reads
// the current max version, relocates the uploaded archive to the path of the
// new version so path and row stay consistent, and retries the insert once.
func (t *ExportTask) retryPersist(
	ctx context.Context,
	project *models.Project,
	dataset *models.Dataset,
) (*models.Dataset, error) {
	maxVersion, err := t.datasets.MaxVersion(ctx, t.projectID)
	if err != nil {
		return nil, fmt.Errorf("re-read dataset version: %w", err)
	}
	newVersion := maxVersion + 1
	newPath := storage.DatasetArchivePath(project.OwnerID.String(), project.Name, newVersion)

	rc, err := t.store.Get(ctx, dataset.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("reopen archive for relocation: %w", err)
	}
	putErr := t.store.Put(ctx, newPath, rc, -1, archiveContentType)
	_ = rc.Close()
	if putErr != nil {
		return nil, fmt.Errorf("relocate archive: %w", putErr)
	}
	if err := t.store.Delete(ctx, dataset.ArchivePath); err != nil {
		t.logger.Warn("Failed to remove superseded archive",
			zap.String("path", dataset.ArchivePath),
			zap.Error(err))
	}

	t.logger.Warn("Dataset version conflict, retrying with next version",
		zap.String("project_id", t.projectID.String()),
		zap.Int("conflicting_version", dataset.Version),
		zap.Int("new_version", newVersion))

	dataset.Version = newVersion
	dataset.ArchivePath = newPath
	if err := t.datasets.Create(ctx, dataset); err != nil {
		return nil, fmt.Errorf("persist dataset after version conflict: %w", err)
	}
	return dataset, nil
}

// Ensure ExportTask implements jobqueue.Job at compile time.
var _ jobqueue.Job = (*ExportTask)(nil)
