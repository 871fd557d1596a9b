package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labelforge/labelforge-engine/pkg/apperrors"
	"github.com/labelforge/labelforge-engine/pkg/services"
)

// DeleteImageResponse is the response for an image deletion.
type DeleteImageResponse struct {
	Message     string `json:"message"`
	ImageID     string `json:"image_id"`
	DeleteJobID string `json:"delete_job_id"`
}

// ImagesHandler handles image lifecycle HTTP requests.
type ImagesHandler struct {
	imageService services.ImageService
	logger       *zap.Logger
}

// NewImagesHandler creates a new images handler.
func NewImagesHandler(imageService services.ImageService, logger *zap.Logger) *ImagesHandler {
	return &ImagesHandler{
		imageService: imageService,
		logger:       logger,
	}
}

// RegisterRoutes registers the images handler's routes on the given mux.
func (h *ImagesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("DELETE /api/projects/{pid}/images/{id}", h.Delete)
}

// Delete handles DELETE /api/projects/{pid}/images/{id}
// Removes the image record and its annotations, then schedules removal of the
// stored bytes.
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("pid"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	imageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_image_id", "Invalid image ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	cleanupJobID, err := h.imageService.Delete(r.Context(), projectID, imageID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Image not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete image",
			zap.String("image_id", imageID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete image"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := DeleteImageResponse{
		Message:     "Image deleted. Storage removal scheduled.",
		ImageID:     imageID.String(),
		DeleteJobID: cleanupJobID,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
