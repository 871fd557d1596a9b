package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/labelforge/labelforge-engine/pkg/apperrors"
	"github.com/labelforge/labelforge-engine/pkg/models"
	"github.com/labelforge/labelforge-engine/pkg/services/jobqueue"
)

// fakeProjectRepo is an in-memory ProjectRepository for tests.
type fakeProjectRepo struct {
	projects map[uuid.UUID]*models.Project
}

func newFakeProjectRepo(projects ...*models.Project) *fakeProjectRepo {
	repo := &fakeProjectRepo{projects: make(map[uuid.UUID]*models.Project)}
	for _, p := range projects {
		repo.projects[p.ID] = p
	}
	return repo
}

func (f *fakeProjectRepo) Create(_ context.Context, project *models.Project) error {
	f.projects[project.ID] = project
	return nil
}

func (f *fakeProjectRepo) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

// fakeImageRepo is an in-memory ImageRepository for tests.
type fakeImageRepo struct {
	images  []*models.Image
	deleted []uuid.UUID
}

func (f *fakeImageRepo) Get(_ context.Context, projectID, id uuid.UUID) (*models.Image, error) {
	for _, img := range f.images {
		if img.ID == id && img.ProjectID == projectID {
			return img, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeImageRepo) ListAnnotated(_ context.Context, projectID uuid.UUID) ([]*models.Image, error) {
	var out []*models.Image
	for _, img := range f.images {
		if img.ProjectID == projectID && img.Annotated {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeImageRepo) Delete(_ context.Context, projectID, id uuid.UUID) error {
	for i, img := range f.images {
		if img.ID == id && img.ProjectID == projectID {
			f.images = append(f.images[:i], f.images[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// fakeAnnotationRepo is an in-memory AnnotationRepository for tests.
type fakeAnnotationRepo struct {
	byImage map[uuid.UUID][]*models.Annotation
}

func newFakeAnnotationRepo() *fakeAnnotationRepo {
	return &fakeAnnotationRepo{byImage: make(map[uuid.UUID][]*models.Annotation)}
}

func (f *fakeAnnotationRepo) add(imageID uuid.UUID, tag string, coords ...float64) {
	a := &models.Annotation{ID: uuid.New(), ImageID: imageID, Tag: tag}
	if len(coords) == 4 {
		a.X, a.Y, a.W, a.H = coords[0], coords[1], coords[2], coords[3]
	}
	f.byImage[imageID] = append(f.byImage[imageID], a)
}

func (f *fakeAnnotationRepo) ListByProject(context.Context, uuid.UUID) ([]*models.Annotation, error) {
	var out []*models.Annotation
	for _, anns := range f.byImage {
		out = append(out, anns...)
	}
	return out, nil
}

func (f *fakeAnnotationRepo) ListByImage(_ context.Context, imageID uuid.UUID) ([]*models.Annotation, error) {
	return f.byImage[imageID], nil
}

// fakeDatasetRepo is an in-memory DatasetRepository for tests. Setting
// conflictsLeft forces that many Create calls to fail with ErrConflict, each
// time inserting a competing row at the contested version as if another
// export won the race.
type fakeDatasetRepo struct {
	mu            sync.Mutex
	rows          []*models.Dataset
	conflictsLeft int
}

func (f *fakeDatasetRepo) MaxVersion(_ context.Context, projectID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, d := range f.rows {
		if d.ProjectID == projectID && d.Version > max {
			max = d.Version
		}
	}
	return max, nil
}

func (f *fakeDatasetRepo) Create(_ context.Context, dataset *models.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		f.rows = append(f.rows, &models.Dataset{
			ID:        uuid.New(),
			ProjectID: dataset.ProjectID,
			Version:   dataset.Version,
		})
		return fmt.Errorf("dataset version %d already exists: %w", dataset.Version, apperrors.ErrConflict)
	}
	for _, d := range f.rows {
		if d.ProjectID == dataset.ProjectID && d.Version == dataset.Version {
			return fmt.Errorf("dataset version %d already exists: %w", dataset.Version, apperrors.ErrConflict)
		}
	}
	if dataset.ID == uuid.Nil {
		dataset.ID = uuid.New()
	}
	stored := *dataset
	f.rows = append(f.rows, &stored)
	return nil
}

func (f *fakeDatasetRepo) Get(_ context.Context, projectID, id uuid.UUID) (*models.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.rows {
		if d.ID == id && d.ProjectID == projectID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeDatasetRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*models.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Dataset
	for _, d := range f.rows {
		if d.ProjectID == projectID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeDatasetRepo) Delete(_ context.Context, projectID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.rows {
		if d.ID == id && d.ProjectID == projectID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// fakeStore is an in-memory ObjectStore for tests.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// existsErrs is a queue of errors returned by successive Exists calls;
	// nil entries mean success.
	existsErrs []error

	// putErr, when set, fails every Put without consuming the stream, the
	// way a client errors out on a broken connection.
	putErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(_ context.Context, path string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = data
	return nil
}

func (f *fakeStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("object %s: not found", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, path)
	return nil
}

func (f *fakeStore) Exists(_ context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.existsErrs) > 0 {
		err := f.existsErrs[0]
		f.existsErrs = f.existsErrs[1:]
		if err != nil {
			return false, err
		}
	}
	_, ok := f.objects[path]
	return ok, nil
}

func (f *fakeStore) SignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://storage.test/" + path + "?signed=1", nil
}

func (f *fakeStore) has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[path]
	return ok
}

// fakeSubmitter records submitted jobs without running them.
type fakeSubmitter struct {
	jobs []jobqueue.Job
}

func (f *fakeSubmitter) Submit(job jobqueue.Job) (string, error) {
	f.jobs = append(f.jobs, job)
	return fmt.Sprintf("job-%d", len(f.jobs)), nil
}
