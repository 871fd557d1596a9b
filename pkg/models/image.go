package models

import (
	"time"

	"github.com/google/uuid"
)

// Image is an uploaded image belonging to a project. Only images with
// Annotated set are eligible for dataset export.
type Image struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path"`
	Annotated   bool      `json:"annotated"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
