package domain

import (
	"encoding/base64"
	"time"
)

// Document is a single ingested document inside a collection. Exactly one of
// URL or BlobPath references its content after ingestion.
type Document struct {
	ID           int64
	CollectionID int64
	Name         string
	URL          string
	BlobPath     string
	Metadata     map[string]any
	NumPages     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Source describes where a document's bytes come from. Exactly one of URL,
// Base64, or BlobPath must be set.
type Source struct {
	URL      string
	Base64   string
	BlobPath string
	// Filename is the declared name used to guess an extension when content
	// sniffing comes up empty.
	Filename string
	// UseProxy routes URL fetches through the configured network proxy.
	UseProxy bool
}

// Validate checks that exactly one content source is present and, for inline
// payloads, that the base64 decodes.
func (s Source) Validate() error {
	n := 0
	if s.URL != "" {
		n++
	}
	if s.Base64 != "" {
		n++
	}
	if s.BlobPath != "" {
		n++
	}
	if n == 0 {
		return ErrMissingSource
	}
	if n > 1 {
		return ErrValidation
	}
	if s.Base64 != "" {
		if _, err := base64.StdEncoding.DecodeString(s.Base64); err != nil {
			return ErrValidation
		}
	}
	return nil
}

// IngestState tracks a document through the ingestion pipeline.
type IngestState string

const (
	IngestPending    IngestState = "pending"
	IngestNormalized IngestState = "normalized"
	IngestEmbedded   IngestState = "embedded"
	IngestPersisted  IngestState = "persisted"
	IngestFailed     IngestState = "failed"
)
