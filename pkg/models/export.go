package models

import "github.com/google/uuid"

// SplitRatios holds the requested train/val/test proportions.
type SplitRatios struct {
	Train float64 `json:"train_split"`
	Val   float64 `json:"val_split"`
	Test  float64 `json:"test_split"`
}

// SplitTolerance is how far the ratio sum may deviate from 1.0.
const SplitTolerance = 0.01

// Valid reports whether the ratios sum to 1.0 within tolerance.
func (r SplitRatios) Valid() bool {
	sum := r.Train + r.Val + r.Test
	diff := sum - 1.0
	if diff < 0 {
		diff = -diff
	}
	return diff <= SplitTolerance
}

// ExportProgress is the mid-run progress payload of an export job.
type ExportProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// ExportResult is the terminal payload of an export job. Status is "success"
// or "error"; on error only Message is set.
type ExportResult struct {
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	DatasetID   uuid.UUID `json:"dataset_id,omitempty"`
	Version     int       `json:"version,omitempty"`
	ZipURL      string    `json:"zip_url,omitempty"`
	Classes     []string  `json:"classes,omitempty"`
	TotalImages int       `json:"total_images,omitempty"`
}

// ExportSuccess builds a success result payload.
func ExportSuccess(datasetID uuid.UUID, version int, zipURL string, classes []string, totalImages int) *ExportResult {
	return &ExportResult{
		Status:      "success",
		DatasetID:   datasetID,
		Version:     version,
		ZipURL:      zipURL,
		Classes:     classes,
		TotalImages: totalImages,
	}
}

// ExportError builds an error result payload.
func ExportError(message string) *ExportResult {
	return &ExportResult{Status: "error", Message: message}
}
