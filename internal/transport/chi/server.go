// Package chi is the HTTP API surface: collection and document CRUD,
// document upsert (sync or queued), and search.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/config"
	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/metrics"
	collectionuc "github.com/pagesight/pagesight/internal/usecase/collection"
	documentuc "github.com/pagesight/pagesight/internal/usecase/document"
	healthuc "github.com/pagesight/pagesight/internal/usecase/health"
	ingestuc "github.com/pagesight/pagesight/internal/usecase/ingest"
	searchuc "github.com/pagesight/pagesight/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecases into HTTP handlers.
type Server struct {
	collections   *collectionuc.Service
	documents     *documentuc.Service
	ingest        *ingestuc.Service
	queue         *ingestuc.Queue
	search        *searchuc.Service
	health        *healthuc.Service
	apiKeys       []config.APIKey
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	collections *collectionuc.Service,
	documents *documentuc.Service,
	ingest *ingestuc.Service,
	queue *ingestuc.Queue,
	search *searchuc.Service,
	health *healthuc.Service,
	apiKeys []config.APIKey,
	logger *zap.Logger,
) *Server {
	s := &Server{
		collections: collections,
		documents:   documents,
		ingest:      ingest,
		queue:       queue,
		search:      search,
		health:      health,
		apiKeys:     apiKeys,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sizeLimitHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrConflict, http.StatusConflict, codeConflict),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, codeUnsupportedFormat),
		sentinelHandler(domain.ErrMissingSource, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrFetchFailed, http.StatusBadRequest, codeFetchFailed),
		sentinelHandler(domain.ErrRasterizeFailed, http.StatusUnprocessableEntity, codeRasterizeFailed),
		sentinelHandler(domain.ErrConversionFailed, http.StatusBadGateway, codeConversionFailed),
		sentinelHandler(domain.ErrServiceUnavailable, http.StatusServiceUnavailable, codeServiceUnavailable),
		sentinelHandler(domain.ErrEmbeddingFailed, http.StatusBadGateway, codeEmbeddingFailed),
	}
	return s
}

// Router builds the HTTP routing tree with metrics and auth middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(s.apiKeys))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/collections", func(r chi.Router) {
			r.Post("/", s.handleCreateCollection)
			r.Get("/", s.handleListCollections)
			r.Route("/{collection}", func(r chi.Router) {
				r.Get("/", s.handleGetCollection)
				r.Patch("/", s.handlePatchCollection)
				r.Delete("/", s.handleDeleteCollection)
				r.Route("/documents", func(r chi.Router) {
					r.Get("/", s.handleListDocuments)
					r.Route("/{document}", func(r chi.Router) {
						r.Put("/", s.handleUpsertDocument)
						r.Get("/", s.handleGetDocument)
						r.Delete("/", s.handleDeleteDocument)
					})
				})
			})
		})
		r.Post("/search", s.handleSearch)
	})

	return r
}

// handleCreateCollection handles POST /api/v1/collections.
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	col, err := s.collections.Create(r.Context(), OwnerFromContext(r.Context()), req.Name, req.Metadata)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, collectionToResponse(col))
}

// handleListCollections handles GET /api/v1/collections.
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]collectionResponse, len(cols))
	for i, c := range cols {
		items[i] = collectionToResponse(c)
	}
	writeJSON(w, http.StatusOK, items)
}

// handleGetCollection handles GET /api/v1/collections/{collection}.
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	col, err := s.collections.Get(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToResponse(col))
}

// handlePatchCollection handles PATCH /api/v1/collections/{collection}.
func (s *Server) handlePatchCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	col, err := s.collections.Update(r.Context(),
		OwnerFromContext(r.Context()), chi.URLParam(r, "collection"), req.Name, req.Metadata)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToResponse(col))
}

// handleDeleteCollection handles DELETE /api/v1/collections/{collection}.
func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.collections.Delete(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "collection")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListDocuments handles GET /api/v1/collections/{collection}/documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]documentResponse, len(docs))
	for i, d := range docs {
		items[i] = documentToResponse(d, nil)
	}
	writeJSON(w, http.StatusOK, items)
}

// handleUpsertDocument handles PUT /api/v1/collections/{collection}/documents/{document}.
// The default queues the ingestion and answers 202; "wait": true runs it
// synchronously and answers 201 with the persisted document.
func (s *Server) handleUpsertDocument(w http.ResponseWriter, r *http.Request) {
	var req upsertDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	ingestReq := ingestuc.Request{
		OwnerID:        OwnerFromContext(r.Context()),
		CollectionName: chi.URLParam(r, "collection"),
		DocumentName:   chi.URLParam(r, "document"),
		Metadata:       req.Metadata,
		Source: domain.Source{
			URL:      req.URL,
			Base64:   req.Base64,
			BlobPath: req.BlobPath,
			Filename: req.Filename,
			UseProxy: req.UseProxy,
		},
	}

	if err := ingestReq.Source.Validate(); err != nil {
		s.handleDomainError(w, err)
		return
	}

	if !req.Wait {
		s.queue.Enqueue(ingestReq)
		writeJSON(w, http.StatusAccepted, acceptedResponse{
			Status:   "accepted",
			Document: ingestReq.DocumentName,
		})
		return
	}

	doc, err := s.ingest.Ingest(r.Context(), ingestReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Location",
		fmt.Sprintf("/api/v1/collections/%s/documents/%s", ingestReq.CollectionName, doc.Name))
	writeJSON(w, http.StatusCreated, documentToResponse(doc, nil))
}

// handleGetDocument handles GET /api/v1/collections/{collection}/documents/{document}.
// ?expand=pages includes the stored page images.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	withPages := r.URL.Query().Get("expand") == "pages"

	doc, pages, err := s.documents.Get(r.Context(),
		OwnerFromContext(r.Context()), chi.URLParam(r, "collection"), chi.URLParam(r, "document"), withPages)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(doc, pages))
}

// handleDeleteDocument handles DELETE /api/v1/collections/{collection}/documents/{document}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	err := s.documents.Delete(r.Context(),
		OwnerFromContext(r.Context()), chi.URLParam(r, "collection"), chi.URLParam(r, "document"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSearch handles POST /api/v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	f, err := filterFromRequest(req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	hits, err := s.search.Search(r.Context(), searchuc.Request{
		OwnerID:        OwnerFromContext(r.Context()),
		CollectionName: req.CollectionName,
		Query:          req.Query,
		ImageB64:       req.ImageB64,
		TopK:           req.TopK,
		Filter:         f,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results := make([]searchResultItem, len(hits))
	for i := range hits {
		results[i] = scoredPageToResponse(hits[i])
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: req.Query, Results: results})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrConflict,
		domain.ErrDocumentTooLarge,
		domain.ErrUnsupportedFormat,
		domain.ErrMissingSource,
		domain.ErrFetchFailed,
		domain.ErrConversionFailed,
		domain.ErrRasterizeFailed,
		domain.ErrEmbeddingFailed,
		domain.ErrServiceUnavailable,
		domain.ErrValidation,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// sizeLimitHandler handles ErrDocumentTooLarge with the observed sizes.
func sizeLimitHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrDocumentTooLarge) {
		return false
	}
	var sle *domain.SizeLimitError
	if errors.As(err, &sle) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
			"code":        codeDocumentTooLarge,
			"message":     msg,
			"size_bytes":  sle.Size,
			"limit_bytes": sle.Limit,
		})
		return true
	}
	writeError(w, http.StatusRequestEntityTooLarge, codeDocumentTooLarge, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
