package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/labelforge/labelforge-engine/pkg/models"
	"github.com/labelforge/labelforge-engine/pkg/services"
	"github.com/labelforge/labelforge-engine/pkg/services/jobqueue"
)

// mockDatasetService is a configurable mock for handler tests.
type mockDatasetService struct {
	jobID    string
	datasets []*services.DatasetWithURL
	err      error

	exportProjectID uuid.UUID
	exportRatios    models.SplitRatios
	deletedID       uuid.UUID
}

func (m *mockDatasetService) Export(_ context.Context, projectID uuid.UUID, ratios models.SplitRatios) (string, error) {
	m.exportProjectID = projectID
	m.exportRatios = ratios
	if m.err != nil {
		return "", m.err
	}
	return m.jobID, nil
}

func (m *mockDatasetService) List(context.Context, uuid.UUID) ([]*services.DatasetWithURL, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.datasets, nil
}

func (m *mockDatasetService) Get(_ context.Context, _, id uuid.UUID) (*services.DatasetWithURL, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, d := range m.datasets {
		if d.ID == id {
			return d, nil
		}
	}
	return &services.DatasetWithURL{Dataset: &models.Dataset{ID: id}}, nil
}

func (m *mockDatasetService) Delete(_ context.Context, _, id uuid.UUID) (string, error) {
	m.deletedID = id
	if m.err != nil {
		return "", m.err
	}
	return m.jobID, nil
}

// mockImageService is a configurable mock for handler tests.
type mockImageService struct {
	jobID     string
	err       error
	deletedID uuid.UUID
}

func (m *mockImageService) Delete(_ context.Context, _, id uuid.UUID) (string, error) {
	m.deletedID = id
	if m.err != nil {
		return "", m.err
	}
	return m.jobID, nil
}

// mockJobStatus serves canned job statuses in submission order, repeating the
// last one once the sequence is exhausted.
type mockJobStatus struct {
	statuses []*jobqueue.Status
	err      error
	calls    int
}

func (m *mockJobStatus) Status(context.Context, string) (*jobqueue.Status, error) {
	if m.err != nil {
		return nil, m.err
	}
	idx := m.calls
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	m.calls++
	return m.statuses[idx], nil
}
