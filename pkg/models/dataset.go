package models

import (
	"time"

	"github.com/google/uuid"
)

// Dataset is one immutable record of a completed export. Version numbers are
// monotonically increasing per project, starting at 1, and are never reused
// even after deletion.
type Dataset struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Version     int       `json:"version"`
	ArchivePath string    `json:"archive_path"`
	Classes     []string  `json:"classes"`
	TrainSplit  float64   `json:"train_split"`
	ValSplit    float64   `json:"val_split"`
	TestSplit   float64   `json:"test_split"`
	CreatedAt   time.Time `json:"created_at"`
}
