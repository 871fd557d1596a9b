package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/labelforge/labelforge-engine/pkg/apperrors"
	"github.com/labelforge/labelforge-engine/pkg/services/jobqueue"
)

// streamPollInterval is how often the SSE stream re-reads job status.
const streamPollInterval = time.Second

// JobStatusProvider exposes job status lookups. Satisfied by jobqueue.Queue.
type JobStatusProvider interface {
	Status(ctx context.Context, jobID string) (*jobqueue.Status, error)
}

// JobsHandler handles job status polling and streaming HTTP requests.
type JobsHandler struct {
	jobs         JobStatusProvider
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(jobs JobStatusProvider, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{
		jobs:         jobs,
		pollInterval: streamPollInterval,
		logger:       logger,
	}
}

// RegisterRoutes registers the jobs handler's routes on the given mux.
func (h *JobsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/jobs/{id}", h.Get)
	mux.HandleFunc("GET /api/jobs/{id}/stream", h.Stream)
}

// Get handles GET /api/jobs/{id}
// Returns the current status snapshot of a job.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	status, err := h.jobs.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Job not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get job status",
			zap.String("job_id", jobID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get job status"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, status); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Stream handles GET /api/jobs/{id}/stream
// Emits job status as server-sent events once per second until the job
// reaches a terminal state or the client disconnects. The terminal status is
// always the last event sent.
func (h *JobsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		if err := ErrorResponse(w, http.StatusInternalServerError, "streaming_unsupported", "Streaming not supported"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	// Resolve the first snapshot before committing to the event stream so an
	// unknown job still gets a proper 404.
	status, err := h.jobs.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Job not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get job status",
			zap.String("job_id", jobID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get job status"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		if err := writeEvent(w, status); err != nil {
			return
		}
		flusher.Flush()

		if status.State.Terminal() {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		status, err = h.jobs.Status(r.Context(), jobID)
		if err != nil {
			// Status expired mid-stream (retention TTL) or the tracker went
			// away. Nothing more to report.
			h.logger.Warn("Job status unavailable mid-stream",
				zap.String("job_id", jobID),
				zap.Error(err))
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, status *jobqueue.Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
