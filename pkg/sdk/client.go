package pagesight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/blob"
	"github.com/pagesight/pagesight/internal/db"
	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/normalize"
	collectionrepo "github.com/pagesight/pagesight/internal/repository/collection"
	documentrepo "github.com/pagesight/pagesight/internal/repository/document"
	pagerepo "github.com/pagesight/pagesight/internal/repository/page"
	"github.com/pagesight/pagesight/internal/transport/colpali"
	"github.com/pagesight/pagesight/internal/transport/gotenberg"
	collectionuc "github.com/pagesight/pagesight/internal/usecase/collection"
	documentuc "github.com/pagesight/pagesight/internal/usecase/document"
	healthuc "github.com/pagesight/pagesight/internal/usecase/health"
	ingestuc "github.com/pagesight/pagesight/internal/usecase/ingest"
	searchuc "github.com/pagesight/pagesight/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces so tests can substitute the services.
type collectionUseCase interface {
	Create(ctx context.Context, ownerID, name string, metadata map[string]any) (domain.Collection, error)
	Get(ctx context.Context, ownerID, name string) (domain.Collection, error)
	List(ctx context.Context, ownerID string) ([]domain.Collection, error)
	Update(ctx context.Context, ownerID, name string, newName *string, metadata map[string]any) (domain.Collection, error)
	Delete(ctx context.Context, ownerID, name string) error
}

type documentUseCase interface {
	Get(ctx context.Context, ownerID, collectionName, name string, withPages bool) (domain.Document, []domain.Page, error)
	List(ctx context.Context, ownerID, collectionName string) ([]domain.Document, error)
	Delete(ctx context.Context, ownerID, collectionName, name string) error
}

type ingestUseCase interface {
	Ingest(ctx context.Context, req ingestuc.Request) (domain.Document, error)
}

type searchUseCase interface {
	Search(ctx context.Context, req searchuc.Request) ([]domain.ScoredPage, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the pagesight SDK entry point. All operations run under one
// owner scope.
type Client struct {
	owner string

	bdb interface{ Close() error }

	collSvc   collectionUseCase
	docSvc    documentUseCase
	ingestSvc ingestUseCase
	searchSvc searchUseCase
	healthSvc healthUseCase
}

// New creates a pagesight Client, connects to Postgres and applies the
// schema. The provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		owner:   "default",
		blobDir: "data/blobs",
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.dsn == "" {
		return nil, errors.New("pagesight: postgres dsn required (use WithPostgres)")
	}
	if cfg.embeddingURL == "" {
		return nil, errors.New("pagesight: embedding service url required (use WithEmbeddingService)")
	}

	bdb := db.Connect(db.Config{DSN: cfg.dsn, Debug: cfg.dbDebug})
	if err := db.WaitForReady(ctx, bdb, defaultReadinessTimeout, cfg.logger); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("pagesight: database not ready: %w", err)
	}
	if err := db.InitSchema(ctx, bdb); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("pagesight: apply schema: %w", err)
	}

	blobs := blob.NewOsFS(cfg.blobDir)
	embedder := colpali.New(colpali.Config{
		URL:    cfg.embeddingURL,
		Token:  cfg.embeddingToken,
		Logger: cfg.logger,
	})
	converter := gotenberg.New(gotenberg.Config{
		URL:    cfg.conversionURL,
		Logger: cfg.logger,
	})

	normalizer, err := normalize.New(normalize.Config{
		MaxDocumentBytes: cfg.maxDocumentBytes,
		ProxyURL:         cfg.proxyURL,
		FetchTimeout:     cfg.fetchTimeout,
	}, converter, blobs, cfg.logger)
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("pagesight: %w", err)
	}

	collRepo := collectionrepo.New(bdb)
	docRepo := documentrepo.New(bdb)
	pageRepo := pagerepo.New(bdb)

	return &Client{
		owner:     cfg.owner,
		bdb:       bdb,
		collSvc:   collectionuc.New(collRepo),
		docSvc:    documentuc.New(collRepo, docRepo, pageRepo, blobs, cfg.logger),
		ingestSvc: ingestuc.New(normalizer, embedder, collRepo, docRepo, blobs, cfg.logger),
		searchSvc: searchuc.New(embedder, collRepo, pageRepo, cfg.logger),
		healthSvc: healthuc.New(bdb, converter),
	}, nil
}

// Close releases the database connection.
func (c *Client) Close() error {
	return c.bdb.Close()
}

// Collections returns the collection management surface.
func (c *Client) Collections() *CollectionService {
	return &CollectionService{owner: c.owner, svc: c.collSvc}
}

// Documents returns the document surface for one collection.
func (c *Client) Documents(collection string) *DocumentService {
	return &DocumentService{
		owner:      c.owner,
		collection: collection,
		docSvc:     c.docSvc,
		ingestSvc:  c.ingestSvc,
	}
}
