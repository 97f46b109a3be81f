package billocr

import "github.com/kailas-cloud/billocr/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidFileType = domain.ErrInvalidFileType
	ErrFileTooLarge    = domain.ErrFileTooLarge
	ErrValidation      = domain.ErrValidation
	ErrProcessing      = domain.ErrProcessing
)
