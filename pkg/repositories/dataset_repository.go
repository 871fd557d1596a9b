package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/labelforge/labelforge-engine/pkg/apperrors"
	"github.com/labelforge/labelforge-engine/pkg/database"
	"github.com/labelforge/labelforge-engine/pkg/models"
)

// DatasetRepository defines the interface for dataset version data access.
type DatasetRepository interface {
	// MaxVersion returns the highest version recorded for a project, or 0 if
	// the project has no dataset rows. Deleted versions still count toward the
	// historical maximum only while newer rows exist; the uniqueness
	// constraint on (project_id, version) is what prevents reuse under races.
	MaxVersion(ctx context.Context, projectID uuid.UUID) (int, error)
	// Create inserts a dataset row. Returns apperrors.ErrConflict when the
	// (project_id, version) pair is already taken by a concurrent export.
	Create(ctx context.Context, dataset *models.Dataset) error
	Get(ctx context.Context, projectID, id uuid.UUID) (*models.Dataset, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Dataset, error)
	Delete(ctx context.Context, projectID, id uuid.UUID) error
}

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// datasetRepository implements DatasetRepository using PostgreSQL.
type datasetRepository struct {
	db *database.DB
}

// NewDatasetRepository creates a new dataset repository.
func NewDatasetRepository(db *database.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

func (r *datasetRepository) MaxVersion(ctx context.Context, projectID uuid.UUID) (int, error) {
	var max int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM datasets WHERE project_id = $1`,
		projectID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max dataset version: %w", err)
	}
	return max, nil
}

func (r *datasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	if dataset.ID == uuid.Nil {
		dataset.ID = uuid.New()
	}
	if dataset.CreatedAt.IsZero() {
		dataset.CreatedAt = time.Now()
	}

	classes, err := json.Marshal(dataset.Classes)
	if err != nil {
		return fmt.Errorf("failed to marshal classes: %w", err)
	}

	query := `
		INSERT INTO datasets (id, project_id, version, archive_path, classes, train_split, val_split, test_split, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.Exec(ctx, query,
		dataset.ID,
		dataset.ProjectID,
		dataset.Version,
		dataset.ArchivePath,
		classes,
		dataset.TrainSplit,
		dataset.ValSplit,
		dataset.TestSplit,
		dataset.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("dataset version %d already exists for project %s: %w",
				dataset.Version, dataset.ProjectID, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	return nil
}

func (r *datasetRepository) Get(ctx context.Context, projectID, id uuid.UUID) (*models.Dataset, error) {
	query := `
		SELECT id, project_id, version, archive_path, classes, train_split, val_split, test_split, created_at
		FROM datasets
		WHERE id = $1 AND project_id = $2`

	dataset, err := r.scanOne(r.db.QueryRow(ctx, query, id, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return dataset, nil
}

func (r *datasetRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Dataset, error) {
	query := `
		SELECT id, project_id, version, archive_path, classes, train_split, val_split, test_split, created_at
		FROM datasets
		WHERE project_id = $1
		ORDER BY version DESC`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*models.Dataset
	for rows.Next() {
		dataset, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, dataset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read datasets: %w", err)
	}

	return datasets, nil
}

func (r *datasetRepository) Delete(ctx context.Context, projectID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM datasets WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *datasetRepository) scanOne(row pgx.Row) (*models.Dataset, error) {
	var dataset models.Dataset
	var classes []byte
	err := row.Scan(
		&dataset.ID,
		&dataset.ProjectID,
		&dataset.Version,
		&dataset.ArchivePath,
		&classes,
		&dataset.TrainSplit,
		&dataset.ValSplit,
		&dataset.TestSplit,
		&dataset.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(classes, &dataset.Classes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classes: %w", err)
	}
	return &dataset, nil
}

// Ensure datasetRepository implements DatasetRepository at compile time.
var _ DatasetRepository = (*datasetRepository)(nil)
