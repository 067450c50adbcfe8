package pagesight

import "time"

// CollectionInfo represents collection metadata.
type CollectionInfo struct {
	ID        int64
	Name      string
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Source points at the content of one document. Exactly one of URL, Base64 or
// BlobPath must be set.
type Source struct {
	// URL fetches the document (or renders the webpage) from the network.
	URL string
	// Base64 is an inline standard-encoded payload.
	Base64 string
	// BlobPath re-reads a previously stored original.
	BlobPath string
	// Filename hints the format when content sniffing comes up empty.
	Filename string
	// UseProxy routes the URL fetch through the configured proxy.
	UseProxy bool
}

// DocumentInfo represents a persisted document.
type DocumentInfo struct {
	ID        int64
	Name      string
	URL       string
	BlobPath  string
	Metadata  map[string]any
	NumPages  int
	CreatedAt time.Time
	UpdatedAt time.Time
	// Pages is filled only when requested.
	Pages []PageImage
}

// PageImage is one rasterized page, base64 PNG.
type PageImage struct {
	PageNumber int
	ImageB64   string
}

// SearchHit is one scored page.
type SearchHit struct {
	CollectionID       int64
	CollectionName     string
	CollectionMetadata map[string]any
	DocumentID         int64
	DocumentName       string
	DocumentMetadata   map[string]any
	PageNumber         int
	ImageB64           string
	RawScore           float64
	NormalizedScore    float64
}

// Filter restricts search hits by collection or document metadata.
type Filter struct {
	// On is "collection", "document" or "both" (default "both").
	On string
	// Lookup is one of key_lookup, contains, contained_by, has_key,
	// has_keys, has_any_keys.
	Lookup string
	// Key is a string, or a []string for has_keys / has_any_keys.
	Key any
	// Value completes key_lookup, contains and contained_by.
	Value any
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // component -> "ok"/"error"
}
