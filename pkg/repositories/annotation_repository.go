package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/labelforge/labelforge-engine/pkg/database"
	"github.com/labelforge/labelforge-engine/pkg/models"
)

// AnnotationRepository defines the interface for annotation data access.
type AnnotationRepository interface {
	// ListByProject returns every annotation across all images of a project.
	// Used to build the project-wide class index at export time.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Annotation, error)
	ListByImage(ctx context.Context, imageID uuid.UUID) ([]*models.Annotation, error)
}

// annotationRepository implements AnnotationRepository using PostgreSQL.
type annotationRepository struct {
	db *database.DB
}

// NewAnnotationRepository creates a new annotation repository.
func NewAnnotationRepository(db *database.DB) AnnotationRepository {
	return &annotationRepository{db: db}
}

func (r *annotationRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Annotation, error) {
	query := `
		SELECT a.id, a.image_id, a.x, a.y, a.w, a.h, a.tag, a.created_at
		FROM annotations a
		JOIN images i ON i.id = a.image_id
		WHERE i.project_id = $1`

	return r.list(ctx, query, projectID)
}

func (r *annotationRepository) ListByImage(ctx context.Context, imageID uuid.UUID) ([]*models.Annotation, error) {
	query := `
		SELECT id, image_id, x, y, w, h, tag, created_at
		FROM annotations
		WHERE image_id = $1
		ORDER BY created_at, id`

	return r.list(ctx, query, imageID)
}

func (r *annotationRepository) list(ctx context.Context, query string, arg any) ([]*models.Annotation, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	defer rows.Close()

	var annotations []*models.Annotation
	for rows.Next() {
		var a models.Annotation
		if err := rows.Scan(&a.ID, &a.ImageID, &a.X, &a.Y, &a.W, &a.H, &a.Tag, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		annotations = append(annotations, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	return annotations, nil
}

// Ensure annotationRepository implements AnnotationRepository at compile time.
var _ AnnotationRepository = (*annotationRepository)(nil)
