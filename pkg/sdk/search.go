package pagesight

import (
	"context"
	"fmt"

	searchuc "github.com/pagesight/pagesight/internal/usecase/search"
)

// SearchOption narrows a search.
type SearchOption func(*searchConfig)

type searchConfig struct {
	collection string
	topK       int
	filter     *Filter
	imageB64   string
}

// InCollection scopes the search to one collection. The default searches
// every collection of the owner.
func InCollection(name string) SearchOption {
	return func(c *searchConfig) { c.collection = name }
}

// WithTopK sets the number of hits to return.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) { c.topK = k }
}

// WithFilter restricts hits by collection or document metadata.
func WithFilter(f Filter) SearchOption {
	return func(c *searchConfig) { c.filter = &f }
}

// ByImage searches with a base64 PNG image instead of text. The query string
// must be empty when this option is used.
func ByImage(imageB64 string) SearchOption {
	return func(c *searchConfig) { c.imageB64 = imageB64 }
}

// Search returns the best-matching pages for the query, best first.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) ([]SearchHit, error) {
	cfg := &searchConfig{}
	for _, o := range opts {
		o(cfg)
	}

	f, err := toInternalFilter(cfg.filter)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits, err := c.searchSvc.Search(ctx, searchuc.Request{
		OwnerID:        c.owner,
		CollectionName: cfg.collection,
		Query:          query,
		ImageB64:       cfg.imageB64,
		TopK:           cfg.topK,
		Filter:         f,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]SearchHit, len(hits))
	for i := range hits {
		out[i] = fromInternalHit(hits[i])
	}
	return out, nil
}
