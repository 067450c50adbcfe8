package document

import (
	"context"

	"github.com/pagesight/pagesight/internal/domain"
)

// CollectionRepository resolves the collection a document lives in.
type CollectionRepository interface {
	GetByName(ctx context.Context, ownerID, name string) (domain.Collection, error)
}

// Repository defines the storage contract for documents.
type Repository interface {
	GetByName(ctx context.Context, collectionID int64, name string) (domain.Document, error)
	List(ctx context.Context, collectionID int64) ([]domain.Document, error)
	Delete(ctx context.Context, collectionID int64, name string) error
}

// PageRepository loads a document's stored pages.
type PageRepository interface {
	GetPages(ctx context.Context, documentID int64) ([]domain.Page, error)
}

// BlobStore removes stored originals when their document goes away.
type BlobStore interface {
	Delete(ctx context.Context, path string) error
}
