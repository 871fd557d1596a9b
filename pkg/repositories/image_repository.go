package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/labelforge/labelforge-engine/pkg/apperrors"
	"github.com/labelforge/labelforge-engine/pkg/database"
	"github.com/labelforge/labelforge-engine/pkg/models"
)

// ImageRepository defines the interface for image data access.
type ImageRepository interface {
	Get(ctx context.Context, projectID, id uuid.UUID) (*models.Image, error)
	ListAnnotated(ctx context.Context, projectID uuid.UUID) ([]*models.Image, error)
	Delete(ctx context.Context, projectID, id uuid.UUID) error
}

// imageRepository implements ImageRepository using PostgreSQL.
type imageRepository struct {
	db *database.DB
}

// NewImageRepository creates a new image repository.
func NewImageRepository(db *database.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Get retrieves an image by ID within a project.
func (r *imageRepository) Get(ctx context.Context, projectID, id uuid.UUID) (*models.Image, error) {
	query := `
		SELECT id, project_id, filename, storage_path, annotated, uploaded_at
		FROM images
		WHERE id = $1 AND project_id = $2`

	var img models.Image
	err := r.db.QueryRow(ctx, query, id, projectID).Scan(
		&img.ID,
		&img.ProjectID,
		&img.Filename,
		&img.StoragePath,
		&img.Annotated,
		&img.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return &img, nil
}

// ListAnnotated returns all annotated images for a project in upload order.
func (r *imageRepository) ListAnnotated(ctx context.Context, projectID uuid.UUID) ([]*models.Image, error) {
	query := `
		SELECT id, project_id, filename, storage_path, annotated, uploaded_at
		FROM images
		WHERE project_id = $1 AND annotated = TRUE
		ORDER BY uploaded_at, id`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotated images: %w", err)
	}
	defer rows.Close()

	var images []*models.Image
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(
			&img.ID,
			&img.ProjectID,
			&img.Filename,
			&img.StoragePath,
			&img.Annotated,
			&img.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, &img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read images: %w", err)
	}

	return images, nil
}

// Delete removes an image by ID. Annotations are removed via CASCADE.
func (r *imageRepository) Delete(ctx context.Context, projectID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM images WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Ensure imageRepository implements ImageRepository at compile time.
var _ ImageRepository = (*imageRepository)(nil)
