package pagesight

import (
	"context"
	"fmt"

	ingestuc "github.com/pagesight/pagesight/internal/usecase/ingest"
)

// DocumentService manages documents within a single collection.
type DocumentService struct {
	owner      string
	collection string
	docSvc     documentUseCase
	ingestSvc  ingestUseCase
}

// Upsert ingests the source as the named document: normalize, rasterize,
// embed, persist. Re-ingesting an existing name replaces its pages. The call
// blocks for the full pipeline.
func (s *DocumentService) Upsert(ctx context.Context, name string, src Source, metadata map[string]any) (DocumentInfo, error) {
	doc, err := s.ingestSvc.Ingest(ctx, ingestuc.Request{
		OwnerID:        s.owner,
		CollectionName: s.collection,
		DocumentName:   name,
		Metadata:       metadata,
		Source:         toInternalSource(src),
	})
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("upsert document: %w", err)
	}
	return fromInternalDocument(doc, nil), nil
}

// Get retrieves a document by name.
func (s *DocumentService) Get(ctx context.Context, name string) (DocumentInfo, error) {
	doc, _, err := s.docSvc.Get(ctx, s.owner, s.collection, name, false)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(doc, nil), nil
}

// GetWithPages retrieves a document with its rasterized page images.
func (s *DocumentService) GetWithPages(ctx context.Context, name string) (DocumentInfo, error) {
	doc, pages, err := s.docSvc.Get(ctx, s.owner, s.collection, name, true)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(doc, pages), nil
}

// List returns all documents in the collection.
func (s *DocumentService) List(ctx context.Context) ([]DocumentInfo, error) {
	docs, err := s.docSvc.List(ctx, s.owner, s.collection)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]DocumentInfo, len(docs))
	for i, d := range docs {
		out[i] = fromInternalDocument(d, nil)
	}
	return out, nil
}

// Delete removes a document with its pages, embeddings and stored original.
func (s *DocumentService) Delete(ctx context.Context, name string) error {
	if err := s.docSvc.Delete(ctx, s.owner, s.collection, name); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
