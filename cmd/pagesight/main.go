package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/blob"
	"github.com/pagesight/pagesight/internal/config"
	"github.com/pagesight/pagesight/internal/db"
	logpkg "github.com/pagesight/pagesight/internal/logger"
	"github.com/pagesight/pagesight/internal/metrics"
	"github.com/pagesight/pagesight/internal/normalize"
	"github.com/pagesight/pagesight/internal/notify"
	collectionrepo "github.com/pagesight/pagesight/internal/repository/collection"
	documentrepo "github.com/pagesight/pagesight/internal/repository/document"
	pagerepo "github.com/pagesight/pagesight/internal/repository/page"
	chiTransport "github.com/pagesight/pagesight/internal/transport/chi"
	"github.com/pagesight/pagesight/internal/transport/colpali"
	"github.com/pagesight/pagesight/internal/transport/gotenberg"
	collectionuc "github.com/pagesight/pagesight/internal/usecase/collection"
	documentuc "github.com/pagesight/pagesight/internal/usecase/document"
	healthuc "github.com/pagesight/pagesight/internal/usecase/health"
	ingestuc "github.com/pagesight/pagesight/internal/usecase/ingest"
	searchuc "github.com/pagesight/pagesight/internal/usecase/search"
	"github.com/pagesight/pagesight/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pagesight API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	// Connect to Postgres and apply the schema
	bdb := db.Connect(db.Config{
		DSN:              cfg.Database.DSN,
		Debug:            cfg.Database.Debug,
		ReadinessTimeout: time.Duration(cfg.Database.ReadinessTimeout) * time.Second,
	})
	defer func() { _ = bdb.Close() }()

	ctx := context.Background()
	if err := db.WaitForReady(ctx, bdb, time.Duration(cfg.Database.ReadinessTimeout)*time.Second, logger); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	if err := db.InitSchema(ctx, bdb); err != nil {
		logger.Fatal("Failed to apply database schema", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init() in the domain packages)
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	// Blob storage for original documents
	blobs := blob.NewOsFS(cfg.Blob.Root)

	// External services
	embedder := colpali.New(colpali.Config{
		URL:          cfg.Embedding.URL,
		Token:        cfg.Embedding.Token,
		BatchSize:    cfg.Embedding.BatchSize,
		BatchDelay:   time.Duration(cfg.Embedding.BatchDelayMS) * time.Millisecond,
		MaxAttempts:  cfg.Embedding.MaxAttempts,
		RetryBackoff: time.Duration(cfg.Embedding.RetryBackoffSec) * time.Second,
		Timeout:      time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:       logger,
	})
	converter := gotenberg.New(gotenberg.Config{
		URL:          cfg.Conversion.URL,
		MaxAttempts:  cfg.Conversion.MaxAttempts,
		RetryBackoff: time.Duration(cfg.Conversion.RetryBackoffSec) * time.Second,
		Timeout:      time.Duration(cfg.Conversion.TimeoutSec) * time.Second,
		Logger:       logger,
	})

	normalizer, err := normalize.New(normalize.Config{
		MaxDocumentBytes: cfg.Ingest.MaxDocumentBytes,
		ProxyURL:         cfg.Ingest.ProxyURL,
	}, converter, blobs, logger)
	if err != nil {
		logger.Fatal("Failed to create normalizer", zap.Error(err))
	}

	// Repositories
	collRepo := collectionrepo.New(bdb)
	docRepo := documentrepo.New(bdb)
	pageRepo := pagerepo.New(bdb)

	// Async-ingestion outcome notifier
	notifier, err := notify.New(cfg.Notify, logger)
	if err != nil {
		logger.Fatal("Failed to create notifier", zap.Error(err))
	}

	// Use case services
	collSvc := collectionuc.New(collRepo)
	docSvc := documentuc.New(collRepo, docRepo, pageRepo, blobs, logger)
	ingestSvc := ingestuc.New(normalizer, embedder, collRepo, docRepo, blobs, logger)
	queue := ingestuc.NewQueue(ingestSvc, notifier, cfg.Ingest.MaxAsyncTasks, 15*time.Minute, logger)
	searchSvc := searchuc.New(embedder, collRepo, pageRepo, logger)
	healthSvc := healthuc.New(bdb, converter)

	server := chiTransport.NewServer(collSvc, docSvc, ingestSvc, queue, searchSvc, healthSvc, cfg.Auth.APIKeys, logger)

	var handler http.Handler = server.Router()
	handler = wideEventMiddleware(logger)(handler)
	handler = chiMiddleware.RequestID(handler)
	handler = jsonRecoverer(logger)(handler)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during HTTP shutdown", zap.Error(err))
	}

	// Let queued ingestions finish so their documents are not lost mid-pipeline.
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ingestion queue did not drain in time", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
