package search

import (
	"context"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/domain/filter"
)

// Embedder turns a text or image query into its multi-vector representation.
type Embedder interface {
	EmbedQuery(ctx context.Context, query string) (domain.VectorSet, error)
	EmbedImageQuery(ctx context.Context, imageB64 string) (domain.VectorSet, error)
}

// CollectionRepository verifies that a named search scope exists.
type CollectionRepository interface {
	GetByName(ctx context.Context, ownerID, name string) (domain.Collection, error)
}

// Repository runs the scored page search.
type Repository interface {
	SearchMaxSim(ctx context.Context, ownerID, collectionName string, vectors domain.VectorSet, f filter.Filter, topK int) ([]domain.ScoredPage, error)
}
