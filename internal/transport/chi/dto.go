package chi

import (
	"fmt"
	"time"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/domain/filter"
)

// Error codes returned to clients.
const (
	codeBadRequest         = "bad_request"
	codeUnauthorized       = "unauthorized"
	codeValidationFailed   = "validation_failed"
	codeNotFound           = "not_found"
	codeConflict           = "conflict"
	codeDocumentTooLarge   = "document_too_large"
	codeUnsupportedFormat  = "unsupported_format"
	codeFetchFailed        = "fetch_failed"
	codeConversionFailed   = "conversion_failed"
	codeRasterizeFailed    = "rasterize_failed"
	codeEmbeddingFailed    = "embedding_failed"
	codeServiceUnavailable = "service_unavailable"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type collectionRequest struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type collectionPatchRequest struct {
	Name     *string        `json:"name,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type collectionResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func collectionToResponse(c domain.Collection) collectionResponse {
	metadata := c.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return collectionResponse{
		ID:        c.ID,
		Name:      c.Name,
		Metadata:  metadata,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type upsertDocumentRequest struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	URL      string         `json:"url,omitempty"`
	Base64   string         `json:"base64,omitempty"`
	BlobPath string         `json:"blob_path,omitempty"`
	Filename string         `json:"filename,omitempty"`
	UseProxy bool           `json:"use_proxy,omitempty"`
	// Wait makes the ingestion synchronous; the default queues it and
	// returns 202.
	Wait bool `json:"wait,omitempty"`
}

type pageResponse struct {
	PageNumber int    `json:"page_number"`
	ImageB64   string `json:"img_base64"`
}

type documentResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	URL       string         `json:"url,omitempty"`
	BlobPath  string         `json:"blob_path,omitempty"`
	Metadata  map[string]any `json:"metadata"`
	NumPages  int            `json:"num_pages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Pages     []pageResponse `json:"pages,omitempty"`
}

func documentToResponse(d domain.Document, pages []domain.Page) documentResponse {
	metadata := d.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	resp := documentResponse{
		ID:        d.ID,
		Name:      d.Name,
		URL:       d.URL,
		BlobPath:  d.BlobPath,
		Metadata:  metadata,
		NumPages:  d.NumPages,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, p := range pages {
		resp.Pages = append(resp.Pages, pageResponse{PageNumber: p.PageNumber, ImageB64: p.ImageB64})
	}
	return resp
}

type filterRequest struct {
	On     string `json:"on,omitempty"`
	Lookup string `json:"lookup"`
	Key    any    `json:"key"`
	Value  any    `json:"value,omitempty"`
}

type searchRequest struct {
	Query          string         `json:"query,omitempty"`
	ImageB64       string         `json:"img_base64,omitempty"`
	CollectionName string         `json:"collection_name,omitempty"`
	TopK           int            `json:"top_k,omitempty"`
	Filter         *filterRequest `json:"query_filter,omitempty"`
}

// filterFromRequest builds the validated domain filter, normalizing JSON
// number decoding (float64) for integral values.
func filterFromRequest(f *filterRequest) (filter.Filter, error) {
	if f == nil {
		return filter.Filter{}, nil
	}
	value := f.Value
	if fv, ok := value.(float64); ok && fv == float64(int64(fv)) {
		value = int64(fv)
	}
	parsed, err := filter.New(filter.Target(f.On), filter.Lookup(f.Lookup), f.Key, value)
	if err != nil {
		return filter.Filter{}, fmt.Errorf("query_filter: %w", err)
	}
	return parsed, nil
}

type searchResultItem struct {
	CollectionID       int64          `json:"collection_id"`
	CollectionName     string         `json:"collection_name"`
	CollectionMetadata map[string]any `json:"collection_metadata"`
	DocumentID         int64          `json:"document_id"`
	DocumentName       string         `json:"document_name"`
	DocumentMetadata   map[string]any `json:"document_metadata"`
	PageNumber         int            `json:"page_number"`
	RawScore           float64        `json:"raw_score"`
	NormalizedScore    float64        `json:"normalized_score"`
	ImageB64           string         `json:"img_base64"`
}

type searchResponse struct {
	Query   string             `json:"query"`
	Results []searchResultItem `json:"results"`
}

func scoredPageToResponse(sp domain.ScoredPage) searchResultItem {
	colMeta := sp.CollectionMetadata
	if colMeta == nil {
		colMeta = map[string]any{}
	}
	docMeta := sp.DocumentMetadata
	if docMeta == nil {
		docMeta = map[string]any{}
	}
	return searchResultItem{
		CollectionID:       sp.CollectionID,
		CollectionName:     sp.CollectionName,
		CollectionMetadata: colMeta,
		DocumentID:         sp.DocumentID,
		DocumentName:       sp.DocumentName,
		DocumentMetadata:   docMeta,
		PageNumber:         sp.Page.PageNumber,
		RawScore:           sp.RawScore,
		NormalizedScore:    sp.NormalizedScore,
		ImageB64:           sp.Page.ImageB64,
	}
}

type acceptedResponse struct {
	Status   string `json:"status"`
	Document string `json:"document"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
