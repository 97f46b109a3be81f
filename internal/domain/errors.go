package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFileType signals a declared MIME type outside the allow-list.
	ErrInvalidFileType = errors.New("unsupported file type")
	// ErrFileTooLarge signals a declared or actual payload over the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrValidation signals a malformed request, e.g. a missing upload part.
	ErrValidation = errors.New("validation failed")
	// ErrProcessing signals an OCR engine or PDF library failure.
	ErrProcessing = errors.New("processing failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// ProcessingError wraps ErrProcessing with the failing stage and the collaborator error.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap exposes both the sentinel and the collaborator error to errors.Is/As.
func (e *ProcessingError) Unwrap() []error { return []error{ErrProcessing, e.Err} }

// NewProcessingError creates a processing error for the given stage.
func NewProcessingError(stage string, err error) error {
	return &ProcessingError{Stage: stage, Err: err}
}
