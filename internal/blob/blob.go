// Package blob stores raw document payloads outside the database. Paths are
// deterministic from owner, collection and document name so re-ingestion
// overwrites in place.
package blob

import (
	"context"
	"strings"
)

// Store is the blob storage contract used by the ingestion pipeline.
type Store interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// Path builds the deterministic storage path for a document payload.
// ext may be empty; spaces in names are flattened to underscores.
func Path(ownerID, collectionName, documentName, ext string) string {
	var b strings.Builder
	b.WriteString(sanitize(ownerID))
	b.WriteByte('/')
	b.WriteString(sanitize(collectionName))
	b.WriteByte('/')
	b.WriteString(sanitize(documentName))
	if ext != "" {
		b.WriteByte('.')
		b.WriteString(strings.TrimPrefix(ext, "."))
	}
	return b.String()
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
