package apperrors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidSplit = errors.New("split ratios must sum to 1.0")

	// ErrNoAnnotatedImages is returned by export jobs for projects with no
	// exportable images. Its text is the user-facing failure message.
	ErrNoAnnotatedImages = errors.New("No annotated images found")
)
