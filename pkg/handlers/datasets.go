package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labelforge/labelforge-engine/pkg/apperrors"
	"github.com/labelforge/labelforge-engine/pkg/models"
	"github.com/labelforge/labelforge-engine/pkg/services"
)

// Default split ratios when the export request does not specify them.
const (
	DefaultTrainSplit = 0.7
	DefaultValSplit   = 0.15
	DefaultTestSplit  = 0.15
)

// ExportResponse is the response for a successfully enqueued export.
type ExportResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// DeleteDatasetResponse is the response for a dataset deletion.
type DeleteDatasetResponse struct {
	Message     string `json:"message"`
	DatasetID   string `json:"dataset_id"`
	DeleteJobID string `json:"delete_job_id"`
}

// DatasetsHandler handles dataset export and lifecycle HTTP requests.
type DatasetsHandler struct {
	datasetService services.DatasetService
	logger         *zap.Logger
}

// NewDatasetsHandler creates a new datasets handler.
func NewDatasetsHandler(datasetService services.DatasetService, logger *zap.Logger) *DatasetsHandler {
	return &DatasetsHandler{
		datasetService: datasetService,
		logger:         logger,
	}
}

// RegisterRoutes registers the datasets handler's routes on the given mux.
func (h *DatasetsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/datasets/export", h.Export)
	mux.HandleFunc("GET /api/projects/{pid}/datasets", h.List)
	mux.HandleFunc("GET /api/projects/{pid}/datasets/{id}", h.Get)
	mux.HandleFunc("DELETE /api/projects/{pid}/datasets/{id}", h.Delete)
}

// Export handles POST /api/projects/{pid}/datasets/export
// Enqueues a dataset export job and returns its ID. Split ratios come from
// the train/val/test query parameters and default to 0.7/0.15/0.15.
func (h *DatasetsHandler) Export(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.parseProjectID(w, r)
	if !ok {
		return
	}

	ratios, err := parseSplitRatios(r)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_split", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	jobID, err := h.datasetService.Export(r.Context(), projectID, ratios)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidSplit) {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_split", "Split ratios must sum to 1.0"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Project not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to enqueue export",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to start export"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ExportResponse{
		JobID:   jobID,
		Message: fmt.Sprintf("Export started. Poll /api/jobs/%s for progress.", jobID),
	}
	if err := WriteJSON(w, http.StatusAccepted, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects/{pid}/datasets
// Returns the project's dataset versions, newest first, with download URLs.
func (h *DatasetsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.parseProjectID(w, r)
	if !ok {
		return
	}

	datasets, err := h.datasetService.List(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Project not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to list datasets",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list datasets"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"datasets": datasets}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/projects/{pid}/datasets/{id}
// Returns one dataset version with a download URL.
func (h *DatasetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.parseProjectID(w, r)
	if !ok {
		return
	}
	datasetID, ok := h.parseDatasetID(w, r)
	if !ok {
		return
	}

	dataset, err := h.datasetService.Get(r.Context(), projectID, datasetID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Dataset not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get dataset",
			zap.String("dataset_id", datasetID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get dataset"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, dataset); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/projects/{pid}/datasets/{id}
// Removes the dataset record and schedules archive cleanup.
func (h *DatasetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.parseProjectID(w, r)
	if !ok {
		return
	}
	datasetID, ok := h.parseDatasetID(w, r)
	if !ok {
		return
	}

	cleanupJobID, err := h.datasetService.Delete(r.Context(), projectID, datasetID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Dataset not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete dataset",
			zap.String("dataset_id", datasetID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete dataset"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := DeleteDatasetResponse{
		Message:     "Dataset deleted. Archive removal scheduled.",
		DatasetID:   datasetID.String(),
		DeleteJobID: cleanupJobID,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *DatasetsHandler) parseProjectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	projectID, err := uuid.Parse(r.PathValue("pid"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return projectID, true
}

func (h *DatasetsHandler) parseDatasetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	datasetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_dataset_id", "Invalid dataset ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return datasetID, true
}

// parseSplitRatios reads the train/val/test query parameters, applying the
// defaults for absent ones.
func parseSplitRatios(r *http.Request) (models.SplitRatios, error) {
	ratios := models.SplitRatios{
		Train: DefaultTrainSplit,
		Val:   DefaultValSplit,
		Test:  DefaultTestSplit,
	}

	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"train", &ratios.Train},
		{"val", &ratios.Val},
		{"test", &ratios.Test},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.SplitRatios{}, fmt.Errorf("invalid %s ratio %q", p.name, raw)
		}
		*p.dst = v
	}

	return ratios, nil
}
