// Package document handles read and delete operations on ingested documents.
// Writes go through the ingest service, which owns the full pipeline.
package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/domain"
)

// Service handles document retrieval and deletion.
type Service struct {
	collections CollectionRepository
	docs        Repository
	pages       PageRepository
	blobs       BlobStore
	logger      *zap.Logger
}

// New creates a document service.
func New(collections CollectionRepository, docs Repository, pages PageRepository, blobs BlobStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{collections: collections, docs: docs, pages: pages, blobs: blobs, logger: log}
}

// Get returns a document by collection and name. With withPages set, the
// stored page images come along.
func (s *Service) Get(ctx context.Context, ownerID, collectionName, name string, withPages bool) (domain.Document, []domain.Page, error) {
	col, err := s.collections.GetByName(ctx, ownerID, collectionName)
	if err != nil {
		return domain.Document{}, nil, fmt.Errorf("get collection: %w", err)
	}

	doc, err := s.docs.GetByName(ctx, col.ID, name)
	if err != nil {
		return domain.Document{}, nil, fmt.Errorf("get document: %w", err)
	}

	if !withPages {
		return doc, nil, nil
	}

	pages, err := s.pages.GetPages(ctx, doc.ID)
	if err != nil {
		return domain.Document{}, nil, fmt.Errorf("get pages: %w", err)
	}
	return doc, pages, nil
}

// List returns all documents of a collection, without page payloads.
func (s *Service) List(ctx context.Context, ownerID, collectionName string) ([]domain.Document, error) {
	col, err := s.collections.GetByName(ctx, ownerID, collectionName)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	docs, err := s.docs.List(ctx, col.ID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document with its pages and embeddings. A stored original
// blob is cleaned up best-effort after the database delete succeeds.
func (s *Service) Delete(ctx context.Context, ownerID, collectionName, name string) error {
	col, err := s.collections.GetByName(ctx, ownerID, collectionName)
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}

	doc, err := s.docs.GetByName(ctx, col.ID, name)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	if err := s.docs.Delete(ctx, col.ID, name); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if doc.BlobPath != "" {
		if err := s.blobs.Delete(ctx, doc.BlobPath); err != nil {
			s.logger.Warn("blob cleanup failed",
				zap.String("path", doc.BlobPath), zap.Error(err))
		}
	}
	return nil
}
