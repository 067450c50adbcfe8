package pagesight

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	dsn     string
	dbDebug bool

	embeddingURL   string
	embeddingToken string

	conversionURL string

	blobDir string

	owner string

	maxDocumentBytes int64
	proxyURL         string
	fetchTimeout     time.Duration

	logger *zap.Logger
}

// WithPostgres sets the Postgres DSN. Required.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) { c.dsn = dsn }
}

// WithQueryDebug logs every SQL query.
func WithQueryDebug() Option {
	return func(c *clientConfig) { c.dbDebug = true }
}

// WithEmbeddingService sets the embedding service endpoint. Required.
func WithEmbeddingService(url, token string) Option {
	return func(c *clientConfig) {
		c.embeddingURL = url
		c.embeddingToken = token
	}
}

// WithConversionService sets the gotenberg endpoint used for webpage and
// office-format conversion. Without it only PDF and image sources work.
func WithConversionService(url string) Option {
	return func(c *clientConfig) { c.conversionURL = url }
}

// WithBlobDir sets the directory where original documents are stored.
func WithBlobDir(dir string) Option {
	return func(c *clientConfig) { c.blobDir = dir }
}

// WithOwner scopes all operations to the given owner. Defaults to "default".
func WithOwner(owner string) Option {
	return func(c *clientConfig) { c.owner = owner }
}

// WithMaxDocumentBytes caps the size of ingested documents.
func WithMaxDocumentBytes(n int64) Option {
	return func(c *clientConfig) { c.maxDocumentBytes = n }
}

// WithProxy routes UseProxy fetches through the given proxy URL.
func WithProxy(url string) Option {
	return func(c *clientConfig) { c.proxyURL = url }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
