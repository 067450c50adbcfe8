package document

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/pagesight/pagesight/internal/domain"
)

type row struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID           int64          `bun:"id,pk,autoincrement"`
	CollectionID int64          `bun:"collection_id,notnull"`
	Name         string         `bun:"name,notnull"`
	URL          string         `bun:"url"`
	BlobPath     string         `bun:"blob_path"`
	Metadata     map[string]any `bun:"metadata,type:jsonb"`
	NumPages     int            `bun:"num_pages"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:now()"`
	UpdatedAt    time.Time      `bun:"updated_at,nullzero,notnull,default:now()"`
}

type pageRow struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID         int64     `bun:"id,pk,autoincrement"`
	DocumentID int64     `bun:"document_id,notnull"`
	PageNumber int       `bun:"page_number,notnull"`
	ImageB64   string    `bun:"image_b64"`
	Content    string    `bun:"content"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:now()"`
}

type embeddingRow struct {
	bun.BaseModel `bun:"table:page_embeddings,alias:pe"`

	ID        int64  `bun:"id,pk,autoincrement"`
	PageID    int64  `bun:"page_id,notnull"`
	Embedding string `bun:"embedding,type:halfvec(128)"`
}

func (r *row) toDomain() domain.Document {
	return domain.Document{
		ID:           r.ID,
		CollectionID: r.CollectionID,
		Name:         r.Name,
		URL:          r.URL,
		BlobPath:     r.BlobPath,
		Metadata:     r.Metadata,
		NumPages:     r.NumPages,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func fromDomain(d *domain.Document) *row {
	return &row{
		ID:           d.ID,
		CollectionID: d.CollectionID,
		Name:         d.Name,
		URL:          d.URL,
		BlobPath:     d.BlobPath,
		Metadata:     d.Metadata,
		NumPages:     d.NumPages,
	}
}
