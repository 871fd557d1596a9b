package models

import (
	"time"

	"github.com/google/uuid"
)

// Annotation is one labeled bounding box on an image. Geometry is normalized
// to image-relative units: center x, center y, width, height, each in [0, 1].
type Annotation struct {
	ID        uuid.UUID `json:"id"`
	ImageID   uuid.UUID `json:"image_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	W         float64   `json:"w"`
	H         float64   `json:"h"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}
