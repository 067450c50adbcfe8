package pagesight

import "github.com/pagesight/pagesight/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrNotFound
	ErrConflict           = domain.ErrConflict
	ErrValidation         = domain.ErrValidation
	ErrMissingSource      = domain.ErrMissingSource
	ErrDocumentTooLarge   = domain.ErrDocumentTooLarge
	ErrUnsupportedFormat  = domain.ErrUnsupportedFormat
	ErrFetchFailed        = domain.ErrFetchFailed
	ErrConversionFailed   = domain.ErrConversionFailed
	ErrRasterizeFailed    = domain.ErrRasterizeFailed
	ErrEmbeddingFailed    = domain.ErrEmbeddingFailed
	ErrServiceUnavailable = domain.ErrServiceUnavailable
)
