package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/domain/filter"
	"github.com/pagesight/pagesight/internal/notify"
	collectionuc "github.com/pagesight/pagesight/internal/usecase/collection"
	documentuc "github.com/pagesight/pagesight/internal/usecase/document"
	healthuc "github.com/pagesight/pagesight/internal/usecase/health"
	ingestuc "github.com/pagesight/pagesight/internal/usecase/ingest"
	searchuc "github.com/pagesight/pagesight/internal/usecase/search"
)

// --- Mocks ---

type stubCollections struct {
	createFn func(ctx context.Context, c *domain.Collection) error
	getFn    func(ctx context.Context, ownerID, name string) (domain.Collection, error)
	listFn   func(ctx context.Context, ownerID string) ([]domain.Collection, error)
	updateFn func(ctx context.Context, c *domain.Collection) error
	deleteFn func(ctx context.Context, ownerID, name string) error
}

func (m *stubCollections) Create(ctx context.Context, c *domain.Collection) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, c)
}

func (m *stubCollections) GetByName(ctx context.Context, ownerID, name string) (domain.Collection, error) {
	if m.getFn == nil {
		return domain.Collection{}, domain.ErrNotFound
	}
	return m.getFn(ctx, ownerID, name)
}

func (m *stubCollections) List(ctx context.Context, ownerID string) ([]domain.Collection, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx, ownerID)
}

func (m *stubCollections) Update(ctx context.Context, c *domain.Collection) error {
	if m.updateFn == nil {
		return nil
	}
	return m.updateFn(ctx, c)
}

func (m *stubCollections) Delete(ctx context.Context, ownerID, name string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, ownerID, name)
}

type stubDocuments struct {
	getFn    func(ctx context.Context, collectionID int64, name string) (domain.Document, error)
	listFn   func(ctx context.Context, collectionID int64) ([]domain.Document, error)
	deleteFn func(ctx context.Context, collectionID int64, name string) error
	commitFn func(ctx context.Context, doc *domain.Document, pages []domain.EmbeddedPage) error
}

func (m *stubDocuments) GetByName(ctx context.Context, collectionID int64, name string) (domain.Document, error) {
	if m.getFn == nil {
		return domain.Document{}, domain.ErrNotFound
	}
	return m.getFn(ctx, collectionID, name)
}

func (m *stubDocuments) List(ctx context.Context, collectionID int64) ([]domain.Document, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx, collectionID)
}

func (m *stubDocuments) Delete(ctx context.Context, collectionID int64, name string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, collectionID, name)
}

func (m *stubDocuments) CommitWithPages(ctx context.Context, doc *domain.Document, pages []domain.EmbeddedPage) error {
	if m.commitFn == nil {
		doc.ID = 1
		return nil
	}
	return m.commitFn(ctx, doc, pages)
}

type stubPages struct {
	getPagesFn func(ctx context.Context, documentID int64) ([]domain.Page, error)
	searchFn   func(ctx context.Context, ownerID, collectionName string, vectors domain.VectorSet, f filter.Filter, topK int) ([]domain.ScoredPage, error)
}

func (m *stubPages) GetPages(ctx context.Context, documentID int64) ([]domain.Page, error) {
	if m.getPagesFn == nil {
		return nil, nil
	}
	return m.getPagesFn(ctx, documentID)
}

func (m *stubPages) SearchMaxSim(ctx context.Context, ownerID, collectionName string, vectors domain.VectorSet, f filter.Filter, topK int) ([]domain.ScoredPage, error) {
	if m.searchFn == nil {
		return nil, nil
	}
	return m.searchFn(ctx, ownerID, collectionName, vectors, f, topK)
}

type stubBlobs struct{}

func (stubBlobs) Put(_ context.Context, _ string, _ []byte) error { return nil }
func (stubBlobs) Delete(_ context.Context, _ string) error        { return nil }

type stubNormalizer struct {
	pagesFn func(ctx context.Context, src domain.Source) ([]string, error)
}

func (m *stubNormalizer) Pages(ctx context.Context, src domain.Source) ([]string, error) {
	if m.pagesFn == nil {
		return []string{"cGFnZTE="}, nil
	}
	return m.pagesFn(ctx, src)
}

type stubImageEmbedder struct {
	embedFn func(ctx context.Context, images []string) ([]domain.VectorSet, error)
}

func (m *stubImageEmbedder) EmbedImages(ctx context.Context, images []string) ([]domain.VectorSet, error) {
	if m.embedFn == nil {
		out := make([]domain.VectorSet, len(images))
		for i := range out {
			out[i] = testVectors(4)
		}
		return out, nil
	}
	return m.embedFn(ctx, images)
}

type stubQueryEmbedder struct {
	result domain.VectorSet
	err    error
}

func (m *stubQueryEmbedder) EmbedQuery(_ context.Context, _ string) (domain.VectorSet, error) {
	return m.result, m.err
}

func (m *stubQueryEmbedder) EmbedImageQuery(_ context.Context, _ string) (domain.VectorSet, error) {
	return m.result, m.err
}

type stubNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (m *stubNotifier) Notify(_ context.Context, ev notify.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *stubNotifier) recorded() []notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.Event, len(m.events))
	copy(out, m.events)
	return out
}

type stubPinger struct{ err error }

func (m stubPinger) PingContext(_ context.Context) error { return m.err }

type stubConversion struct{ err error }

func (m stubConversion) Health(_ context.Context) error { return m.err }

func testVectors(n int) domain.VectorSet {
	set := make(domain.VectorSet, n)
	for i := range set {
		set[i] = make([]float32, domain.EmbeddingDim)
	}
	return set
}

// --- Fixture ---

type fixture struct {
	collections *stubCollections
	documents   *stubDocuments
	pages       *stubPages
	normalizer  *stubNormalizer
	imageEmb    *stubImageEmbedder
	queryEmb    *stubQueryEmbedder
	notifier    *stubNotifier
	pinger      stubPinger
	conversion  stubConversion

	queue   *ingestuc.Queue
	handler http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		collections: &stubCollections{},
		documents:   &stubDocuments{},
		pages:       &stubPages{},
		normalizer:  &stubNormalizer{},
		imageEmb:    &stubImageEmbedder{},
		queryEmb:    &stubQueryEmbedder{result: testVectors(4)},
		notifier:    &stubNotifier{},
	}
	return f
}

func (f *fixture) build() http.Handler {
	log := zap.NewNop()
	collSvc := collectionuc.New(f.collections)
	docSvc := documentuc.New(f.collections, f.documents, f.pages, stubBlobs{}, log)
	ingSvc := ingestuc.New(f.normalizer, f.imageEmb, f.collections, f.documents, stubBlobs{}, log)
	f.queue = ingestuc.NewQueue(ingSvc, f.notifier, 2, time.Minute, log)
	searchSvc := searchuc.New(f.queryEmb, f.collections, f.pages, log)
	healthSvc := healthuc.New(f.pinger, f.conversion)

	srv := NewServer(collSvc, docSvc, ingSvc, f.queue, searchSvc, healthSvc, nil, log)
	f.handler = srv.Router()
	return f.handler
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// --- Collections ---

func TestCreateCollection(t *testing.T) {
	f := newFixture()
	f.collections.createFn = func(_ context.Context, c *domain.Collection) error {
		if c.OwnerID != DefaultOwner {
			t.Errorf("owner = %q, want %q", c.OwnerID, DefaultOwner)
		}
		c.ID = 7
		return nil
	}
	f.build()

	rec := f.do(t, http.MethodPost, "/api/v1/collections", collectionRequest{Name: "papers"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["id"] != float64(7) || body["name"] != "papers" {
		t.Fatalf("body = %v", body)
	}
}

func TestCreateCollection_Conflict(t *testing.T) {
	f := newFixture()
	f.collections.createFn = func(_ context.Context, _ *domain.Collection) error {
		return domain.ErrConflict
	}
	f.build()

	rec := f.do(t, http.MethodPost, "/api/v1/collections", collectionRequest{Name: "papers"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != codeConflict {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestCreateCollection_ReservedName(t *testing.T) {
	f := newFixture()
	f.collections.createFn = func(_ context.Context, _ *domain.Collection) error {
		t.Error("repository must not be reached for a reserved name")
		return nil
	}
	f.build()

	rec := f.do(t, http.MethodPost, "/api/v1/collections", collectionRequest{Name: "all"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != codeValidationFailed {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestGetCollection_NotFound(t *testing.T) {
	f := newFixture()
	f.build()

	rec := f.do(t, http.MethodGet, "/api/v1/collections/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != codeNotFound {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestListCollections(t *testing.T) {
	f := newFixture()
	f.collections.listFn = func(_ context.Context, _ string) ([]domain.Collection, error) {
		return []domain.Collection{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, nil
	}
	f.build()

	rec := f.do(t, http.MethodGet, "/api/v1/collections", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []collectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[1].Name != "b" {
		t.Fatalf("items = %v", items)
	}
}

func TestPatchCollection_Rename(t *testing.T) {
	f := newFixture()
	f.collections.getFn = func(_ context.Context, _, name string) (domain.Collection, error) {
		return domain.Collection{ID: 3, Name: name, Metadata: map[string]any{}}, nil
	}
	var updated domain.Collection
	f.collections.updateFn = func(_ context.Context, c *domain.Collection) error {
		updated = *c
		return nil
	}
	f.build()

	newName := "renamed"
	rec := f.do(t, http.MethodPatch, "/api/v1/collections/old", collectionPatchRequest{Name: &newName})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if updated.Name != "renamed" {
		t.Fatalf("updated name = %q", updated.Name)
	}
}

func TestDeleteCollection(t *testing.T) {
	f := newFixture()
	f.collections.getFn = func(_ context.Context, _, name string) (domain.Collection, error) {
		return domain.Collection{ID: 3, Name: name}, nil
	}
	f.build()

	rec := f.do(t, http.MethodDelete, "/api/v1/collections/papers", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

// --- Documents ---

func TestUpsertDocument_Queued(t *testing.T) {
	f := newFixture()
	f.collections.getFn = func(_ context.Context, _, name string) (domain.Collection, error) {
		return domain.Collection{ID: 1, Name: name}, nil
	}
	f.build()

	rec := f.do(t, http.MethodPut, "/api/v1/collections/papers/documents/report",
		upsertDocumentRequest{Base64: "aGVsbG8="})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "accepted" || body["document"] != "report" {
		t.Fatalf("body = %v", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.queue.Shutdown(ctx); err != nil {
		t.Fatalf("queue shutdown: %v", err)
	}

	events := f.notifier.recorded()
	if len(events) != 1 {
		t.Fatalf("notifications = %d, want 1", len(events))
	}
	if events[0].Status != notify.StatusSuccess || events[0].DocumentName != "report" {
		t.Fatalf("event = %+v", events[0])
	}
}

func TestUpsertDocument_MissingSource(t *testing.T) {
	f := newFixture()
	f.build()

	rec := f.do(t, http.MethodPut, "/api/v1/collections/papers/documents/report",
		upsertDocumentRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = f.queue.Shutdown(ctx)
	if got := f.notifier.recorded(); len(got) != 0 {
		t.Fatalf("nothing should be queued, got %d events", len(got))
	}
}

func TestUpsertDocument_Wait(t *testing.T) {
	f := newFixture()
	f.collections.getFn = func(_ context.Context, _, name string) (domain.Collection, error) {
		return domain.Collection{ID: 1, Name: name}, nil
	}
	f.documents.commitFn = func(_ context.Context, doc *domain.Document, pages []domain.EmbeddedPage) error {
		doc.ID = 42
		if len(pages) != 1 {
			t.Errorf("pages = %d, want 1", len(pages))
		}
		return nil
	}
	f.build()

	rec := f.do(t, http.MethodPut, "/api/v1/collections/papers/documents/report",
		upsertDocumentRequest{Base64: "aGVsbG8=", Wait: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/api/v1/collections/papers/documents/report" {
		t.Fatalf("location = %q", loc)
	}
	body := decodeBody(t, rec)
	if body["id"] != float64(42) || body["name"] != "report" {
		t.Fatalf("body = %v", body)
	}
}

func TestUpsertDocument_TooLarge(t *testing.T) {
	f := newFixture()
	f.collections.getFn = func(_ context.Context, _, name string) (domain.Collection, error) {
		return domain.Collection{ID: 1, Name: name}, nil
	}
	f.normalizer.pagesFn = func(_ context.Context, _ domain.Source) ([]string, error) {
		return nil, domain.NewSizeLimit(100, 50)
	}
	f.build()

	rec := f.do(t, http.MethodPut, "/api/v1/collections/papers/documents/report",
		upsertDocumentRequest{Base64: "aGVsbG8=", Wait: true})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"] != codeDocumentTooLarge {
		t.Fatalf("code = %v", body["code"])
	}
	if body["size_bytes"] != float64(100) || body["limit_bytes"] != float64(50) {
		t.Fatalf("sizes = %v / %v", body["size_bytes"], body["limit_bytes"])
	}
}

func TestGetDocument_ExpandPages(t *testing.T) {
	f := newFixture()
	f.collections.getFn = func(_ context.Context, _, name string) (domain.Collection, error) {
		return domain.Collection{ID: 1, Name: name}, nil
	}
	f.documents.getFn = func(_ context.Context, _ int64, name string) (domain.Document, error) {
		return domain.Document{ID: 9, Name: name, NumPages: 2}, nil
	}
	var pagesLoaded bool
	f.pages.getPagesFn = func(_ context.Context, documentID int64) ([]domain.Page, error) {
		pagesLoaded = true
		if documentID != 9 {
			t.Errorf("document id = %d, want 9", documentID)
		}
		return []domain.Page{
			{PageNumber: 1, ImageB64: "cDE="},
			{PageNumber: 2, ImageB64: "cDI="},
		}, nil
	}
	f.build()

	rec := f.do(t, http.MethodGet, "/api/v1/collections/papers/documents/report?expand=pages", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !pagesLoaded {
		t.Fatal("pages were not loaded")
	}
	var doc documentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Pages) != 2 || doc.Pages[1].ImageB64 != "cDI=" {
		t.Fatalf("pages = %v", doc.Pages)
	}

	// Without expand the pages stay out of the payload.
	rec = f.do(t, http.MethodGet, "/api/v1/collections/papers/documents/report", nil)
	var bare documentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &bare); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bare.Pages) != 0 {
		t.Fatalf("pages should be omitted, got %v", bare.Pages)
	}
}

func TestDeleteDocument_NotFound(t *testing.T) {
	f := newFixture()
	f.collections.getFn = func(_ context.Context, _, name string) (domain.Collection, error) {
		return domain.Collection{ID: 1, Name: name}, nil
	}
	f.documents.getFn = func(_ context.Context, _ int64, _ string) (domain.Document, error) {
		return domain.Document{}, domain.ErrNotFound
	}
	f.documents.deleteFn = func(_ context.Context, _ int64, _ string) error {
		return domain.ErrNotFound
	}
	f.build()

	rec := f.do(t, http.MethodDelete, "/api/v1/collections/papers/documents/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// --- Search ---

func TestSearch(t *testing.T) {
	f := newFixture()
	f.pages.searchFn = func(_ context.Context, ownerID, scope string, vectors domain.VectorSet, _ filter.Filter, topK int) ([]domain.ScoredPage, error) {
		if ownerID != DefaultOwner {
			t.Errorf("owner = %q", ownerID)
		}
		if scope != domain.AllCollections {
			t.Errorf("scope = %q, want %q", scope, domain.AllCollections)
		}
		if topK != searchuc.DefaultTopK {
			t.Errorf("topK = %d, want %d", topK, searchuc.DefaultTopK)
		}
		return []domain.ScoredPage{{
			Page:           domain.Page{PageNumber: 3, ImageB64: "cDM="},
			DocumentID:     9,
			DocumentName:   "report",
			CollectionID:   1,
			CollectionName: "papers",
			RawScore:       8,
		}}, nil
	}
	f.build()

	rec := f.do(t, http.MethodPost, "/api/v1/search", searchRequest{Query: "revenue chart"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d", len(resp.Results))
	}
	got := resp.Results[0]
	// 4 query vectors + 12 extra tokens.
	if want := 8.0 / 16.0; got.NormalizedScore != want {
		t.Fatalf("normalized = %v, want %v", got.NormalizedScore, want)
	}
	if got.PageNumber != 3 || got.DocumentName != "report" || got.CollectionName != "papers" {
		t.Fatalf("hit = %+v", got)
	}
}

func TestSearch_FilterForwarded(t *testing.T) {
	f := newFixture()
	var gotFilter filter.Filter
	f.pages.searchFn = func(_ context.Context, _, _ string, _ domain.VectorSet, flt filter.Filter, _ int) ([]domain.ScoredPage, error) {
		gotFilter = flt
		return nil, nil
	}
	f.build()

	rec := f.do(t, http.MethodPost, "/api/v1/search", searchRequest{
		Query: "q",
		Filter: &filterRequest{
			On:     "document",
			Lookup: "key_lookup",
			Key:    "category",
			Value:  "finance",
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotFilter.IsZero() {
		t.Fatal("filter was not forwarded")
	}
}

func TestSearch_InvalidFilter(t *testing.T) {
	f := newFixture()
	f.build()

	rec := f.do(t, http.MethodPost, "/api/v1/search", searchRequest{
		Query:  "q",
		Filter: &filterRequest{Lookup: "fuzzy", Key: "x"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != codeValidationFailed {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestSearch_EmbedderDown(t *testing.T) {
	f := newFixture()
	f.queryEmb.err = errors.New("connection refused")
	f.build()

	rec := f.do(t, http.MethodPost, "/api/v1/search", searchRequest{Query: "q"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != codeServiceUnavailable {
		t.Fatalf("code = %v", body["code"])
	}
}

// --- Health ---

func TestHealth(t *testing.T) {
	f := newFixture()
	f.build()

	rec := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Fatalf("status = %v", body["status"])
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	f := newFixture()
	f.pinger = stubPinger{err: errors.New("no route to host")}
	f.build()

	rec := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "degraded" {
		t.Fatalf("status = %v", body["status"])
	}
	checks := body["checks"].(map[string]any)
	if checks["database"] != "error" || checks["conversion"] != "ok" {
		t.Fatalf("checks = %v", checks)
	}
}
