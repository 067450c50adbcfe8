package domain

import (
	"fmt"
	"time"
)

// EmbeddingDim is the fixed per-vector dimension of the visual embedding
// model (one vector per image patch, 128 floats each).
const EmbeddingDim = 128

// VectorSet is the ordered multi-vector representation of one page or one
// query. Its length varies with the content; each vector is EmbeddingDim wide.
type VectorSet [][]float32

// Validate checks that the set is non-empty and every vector has the model
// dimension. Shape mismatches are hard failures, never coerced.
func (v VectorSet) Validate() error {
	if len(v) == 0 {
		return fmt.Errorf("empty vector set: %w", ErrEmbeddingFailed)
	}
	for i, vec := range v {
		if len(vec) != EmbeddingDim {
			return fmt.Errorf("vector %d has %d floats, want %d: %w",
				i, len(vec), EmbeddingDim, ErrEmbeddingFailed)
		}
	}
	return nil
}

// Page is one rasterized page of a document. PageNumber is 1-indexed and
// contiguous per document. Content is reserved for extracted text (OCR) and
// plays no part in scoring.
type Page struct {
	ID         int64
	DocumentID int64
	PageNumber int
	ImageB64   string
	Content    string
	CreatedAt  time.Time
}

// EmbeddedPage pairs a page with its multi-vector embedding while a document
// moves through ingestion.
type EmbeddedPage struct {
	Page    Page
	Vectors VectorSet
}

// ScoredPage is a search hit: a page with its raw MaxSim score, the
// query-length-normalized score, and the owning document/collection context.
type ScoredPage struct {
	Page               Page
	DocumentID         int64
	DocumentName       string
	DocumentMetadata   map[string]any
	CollectionID       int64
	CollectionName     string
	CollectionMetadata map[string]any
	RawScore           float64
	NormalizedScore    float64
}
