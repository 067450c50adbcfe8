package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a duplicate collection or document name.
	ErrConflict = errors.New("already exists")
	// ErrValidation signals rejected input (bad filter shape, malformed base64, bad URL).
	ErrValidation = errors.New("validation failed")
	// ErrDocumentTooLarge signals a payload over the ingestion size limit.
	ErrDocumentTooLarge = errors.New("document too large")
	// ErrUnsupportedFormat signals a disallowed or undetermined file extension.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrMissingSource signals a document with neither URL, payload nor blob reference.
	ErrMissingSource = errors.New("document source missing")
	// ErrFetchFailed signals a non-success status while fetching a source URL.
	ErrFetchFailed = errors.New("document fetch failed")
	// ErrConversionFailed signals a conversion-service failure.
	ErrConversionFailed = errors.New("document conversion failed")
	// ErrRasterizeFailed signals a corrupt or unrasterizable PDF.
	ErrRasterizeFailed = errors.New("pdf rasterization failed")
	// ErrEmbeddingFailed signals an embedding-service failure or malformed response.
	ErrEmbeddingFailed = errors.New("embedding service error")
	// ErrServiceUnavailable signals a search that could not reach the embedding service.
	ErrServiceUnavailable = errors.New("embedding service unavailable")
	// ErrIngestFailed wraps any terminal ingestion failure after rollback.
	ErrIngestFailed = errors.New("document ingestion failed")
)

// SizeLimitError wraps ErrDocumentTooLarge with the observed and allowed sizes.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("%s: %d bytes exceeds limit of %d", ErrDocumentTooLarge.Error(), e.Size, e.Limit)
}

func (e *SizeLimitError) Unwrap() error { return ErrDocumentTooLarge }

// NewSizeLimit creates a size limit error.
func NewSizeLimit(size, limit int64) error {
	return &SizeLimitError{Size: size, Limit: limit}
}
