// Package search runs a retrieval query: embed the text once, score pages in
// the store with late interaction, normalize the scores by query length.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/domain/filter"
)

// DefaultTopK is the result count when the request does not ask for one.
const DefaultTopK = 3

// MaxTopK caps the result count per query.
const MaxTopK = 100

// Request is one search query. Exactly one of Query and ImageB64 must be
// set; an image query retrieves pages that look like the given image.
type Request struct {
	OwnerID string
	// CollectionName scopes the search. Empty or domain.AllCollections
	// searches every collection of the owner.
	CollectionName string
	Query          string
	ImageB64       string
	TopK           int
	Filter         filter.Filter
}

// Service executes search requests.
type Service struct {
	embedder    Embedder
	collections CollectionRepository
	pages       Repository
	logger      *zap.Logger
}

// New creates a search service.
func New(embedder Embedder, collections CollectionRepository, pages Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{embedder: embedder, collections: collections, pages: pages, logger: log}
}

// Search returns the best-matching pages for the query. An unreachable
// embedding service maps to domain.ErrServiceUnavailable; the caller should
// retry later rather than treat it as a bad request.
func (s *Service) Search(ctx context.Context, req Request) ([]domain.ScoredPage, error) {
	if req.Query == "" && req.ImageB64 == "" {
		return nil, fmt.Errorf("query must not be empty: %w", domain.ErrValidation)
	}
	if req.Query != "" && req.ImageB64 != "" {
		return nil, fmt.Errorf("query and image query are mutually exclusive: %w", domain.ErrValidation)
	}
	if req.TopK == 0 {
		req.TopK = DefaultTopK
	}
	if req.TopK < 0 || req.TopK > MaxTopK {
		return nil, fmt.Errorf("top_k must be between 1 and %d: %w", MaxTopK, domain.ErrValidation)
	}

	scope := req.CollectionName
	if scope == "" {
		scope = domain.AllCollections
	}
	if scope != domain.AllCollections {
		if _, err := s.collections.GetByName(ctx, req.OwnerID, scope); err != nil {
			return nil, fmt.Errorf("resolve search scope: %w", err)
		}
	}

	start := time.Now()
	var vectors domain.VectorSet
	var err error
	if req.ImageB64 != "" {
		vectors, err = s.embedder.EmbedImageQuery(ctx, req.ImageB64)
	} else {
		vectors, err = s.embedder.EmbedQuery(ctx, req.Query)
	}
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrServiceUnavailable, err)
	}

	hits, err := s.pages.SearchMaxSim(ctx, req.OwnerID, scope, vectors, req.Filter, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("score pages: %w", err)
	}

	for i := range hits {
		hits[i].NormalizedScore = domain.NormalizeScore(hits[i].RawScore, len(vectors))
	}

	s.logger.Info("search completed",
		zap.String("owner", req.OwnerID),
		zap.String("scope", scope),
		zap.Int("hits", len(hits)),
		zap.Duration("took", time.Since(start)))
	return hits, nil
}
