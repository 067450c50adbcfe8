// Package ingest orchestrates the document pipeline: normalize the source
// into page images, embed every page, and commit document, pages, and
// vectors in one transaction. A failure at any stage leaves the store
// exactly as it was before the request.
package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/blob"
	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/metrics"
)

// DefaultCollection receives documents whose request names no collection.
const DefaultCollection = "default_collection"

// Request describes one document to ingest.
type Request struct {
	OwnerID        string
	CollectionName string
	DocumentName   string
	Metadata       map[string]any
	Source         domain.Source
}

// Service runs the ingestion pipeline.
type Service struct {
	normalizer  Normalizer
	embedder    Embedder
	collections CollectionRepository
	docs        DocumentRepository
	blobs       BlobStore
	logger      *zap.Logger
}

// New creates an ingest service.
func New(normalizer Normalizer, embedder Embedder, collections CollectionRepository, docs DocumentRepository, blobs BlobStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		normalizer:  normalizer,
		embedder:    embedder,
		collections: collections,
		docs:        docs,
		blobs:       blobs,
		logger:      log,
	}
}

// Ingest runs the pipeline synchronously and returns the persisted document.
// Re-ingesting an existing name replaces that document's pages in place.
func (s *Service) Ingest(ctx context.Context, req Request) (domain.Document, error) {
	return s.run(ctx, req, "sync")
}

func (s *Service) run(ctx context.Context, req Request, mode string) (domain.Document, error) {
	start := time.Now()
	doc, err := s.pipeline(ctx, req)

	status := string(domain.IngestPersisted)
	if err != nil {
		status = string(domain.IngestFailed)
	}
	metrics.IngestDocumentsTotal.WithLabelValues(mode, status).Inc()
	metrics.IngestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("ingestion failed",
			zap.String("owner", req.OwnerID),
			zap.String("document", req.DocumentName),
			zap.Error(err))
		return domain.Document{}, err
	}

	metrics.IngestPagesPerDocument.Observe(float64(doc.NumPages))
	s.logger.Info("document ingested",
		zap.String("owner", req.OwnerID),
		zap.String("collection", req.CollectionName),
		zap.String("document", doc.Name),
		zap.Int("pages", doc.NumPages),
		zap.Duration("took", time.Since(start)))
	return doc, nil
}

func (s *Service) pipeline(ctx context.Context, req Request) (domain.Document, error) {
	if strings.TrimSpace(req.DocumentName) == "" {
		return domain.Document{}, fmt.Errorf("document name must not be empty: %w", domain.ErrValidation)
	}
	if req.CollectionName == "" {
		req.CollectionName = DefaultCollection
	}
	if err := domain.ValidateCollectionName(req.CollectionName); err != nil {
		return domain.Document{}, fmt.Errorf("collection name %q: %w", req.CollectionName, err)
	}
	if err := req.Source.Validate(); err != nil {
		return domain.Document{}, err
	}

	col, err := s.getOrCreateCollection(ctx, req.OwnerID, req.CollectionName)
	if err != nil {
		return domain.Document{}, err
	}

	images, err := s.normalizer.Pages(ctx, req.Source)
	if err != nil {
		return domain.Document{}, fmt.Errorf("normalize document: %w", err)
	}

	// Inline payloads are kept in blob storage so the original can be
	// re-served and re-ingested later. URL and blob sources already have a
	// durable home.
	var blobPath string
	var blobWritten bool
	switch {
	case req.Source.Base64 != "":
		data, derr := base64.StdEncoding.DecodeString(req.Source.Base64)
		if derr != nil {
			return domain.Document{}, fmt.Errorf("decode payload: %w", domain.ErrValidation)
		}
		blobPath = blob.Path(req.OwnerID, req.CollectionName, req.DocumentName, sourceExt(req.Source))
		if perr := s.blobs.Put(ctx, blobPath, data); perr != nil {
			return domain.Document{}, fmt.Errorf("store payload: %w", perr)
		}
		blobWritten = true
	case req.Source.BlobPath != "":
		blobPath = req.Source.BlobPath
	}

	doc, err := s.embedAndCommit(ctx, req, col, images, blobPath)
	if err != nil && blobWritten {
		if derr := s.blobs.Delete(ctx, blobPath); derr != nil {
			s.logger.Warn("blob rollback failed", zap.String("path", blobPath), zap.Error(derr))
		}
	}
	return doc, err
}

func (s *Service) embedAndCommit(ctx context.Context, req Request, col domain.Collection, images []string, blobPath string) (domain.Document, error) {
	vectors, err := s.embedder.EmbedImages(ctx, images)
	if err != nil {
		return domain.Document{}, fmt.Errorf("embed pages: %w", err)
	}
	if len(vectors) != len(images) {
		return domain.Document{}, fmt.Errorf("embedded %d of %d pages: %w",
			len(vectors), len(images), domain.ErrEmbeddingFailed)
	}

	pages := make([]domain.EmbeddedPage, len(images))
	for i, img := range images {
		pages[i] = domain.EmbeddedPage{
			Page:    domain.Page{PageNumber: i + 1, ImageB64: img},
			Vectors: vectors[i],
		}
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	doc := domain.Document{
		CollectionID: col.ID,
		Name:         req.DocumentName,
		URL:          req.Source.URL,
		BlobPath:     blobPath,
		Metadata:     metadata,
		NumPages:     len(pages),
	}
	if err := s.docs.CommitWithPages(ctx, &doc, pages); err != nil {
		return domain.Document{}, fmt.Errorf("commit document: %w", err)
	}
	return doc, nil
}

// getOrCreateCollection resolves the target collection, creating it on first
// use. A create that loses a race to a concurrent ingest falls back to the
// winner's row.
func (s *Service) getOrCreateCollection(ctx context.Context, ownerID, name string) (domain.Collection, error) {
	col, err := s.collections.GetByName(ctx, ownerID, name)
	if err == nil {
		return col, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Collection{}, fmt.Errorf("get collection: %w", err)
	}

	col = domain.Collection{OwnerID: ownerID, Name: name, Metadata: map[string]any{}}
	cerr := s.collections.Create(ctx, &col)
	if cerr == nil {
		return col, nil
	}
	if errors.Is(cerr, domain.ErrConflict) {
		col, err = s.collections.GetByName(ctx, ownerID, name)
		if err != nil {
			return domain.Collection{}, fmt.Errorf("get collection after race: %w", err)
		}
		return col, nil
	}
	return domain.Collection{}, fmt.Errorf("create collection: %w", cerr)
}

func sourceExt(src domain.Source) string {
	ext := strings.TrimPrefix(filepath.Ext(src.Filename), ".")
	if ext == "" {
		return "bin"
	}
	return ext
}
