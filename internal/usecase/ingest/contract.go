package ingest

import (
	"context"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/notify"
)

// Normalizer turns a document source into base64 PNG page images.
type Normalizer interface {
	Pages(ctx context.Context, src domain.Source) ([]string, error)
}

// Embedder embeds page images, one vector set per image, in input order.
type Embedder interface {
	EmbedImages(ctx context.Context, images []string) ([]domain.VectorSet, error)
}

// CollectionRepository resolves and lazily creates target collections.
type CollectionRepository interface {
	GetByName(ctx context.Context, ownerID, name string) (domain.Collection, error)
	Create(ctx context.Context, c *domain.Collection) error
}

// DocumentRepository commits a fully embedded document atomically.
type DocumentRepository interface {
	CommitWithPages(ctx context.Context, doc *domain.Document, pages []domain.EmbeddedPage) error
}

// BlobStore persists inline payloads so re-ingestion can re-read them.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
}

// Notifier reports the terminal outcome of an async ingestion.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}
