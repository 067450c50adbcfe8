// Package document persists documents, their pages, and the per-page
// multi-vector embeddings in Postgres.
package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pagesight/pagesight/internal/db"
	"github.com/pagesight/pagesight/internal/domain"
)

// Repo implements usecase/document.Repository and the ingest committer.
type Repo struct {
	db bun.IDB
}

// New creates a document repository.
func New(bdb bun.IDB) *Repo {
	return &Repo{db: bdb}
}

// CommitWithPages upserts the document and replaces its pages and embeddings,
// all in one transaction. Either the full new version lands or nothing
// changes; a document is never visible with a partial page set.
func (r *Repo) CommitWithPages(ctx context.Context, doc *domain.Document, pages []domain.EmbeddedPage) error {
	if len(pages) == 0 {
		return fmt.Errorf("document %q has no pages: %w", doc.Name, domain.ErrValidation)
	}

	m := fromDomain(doc)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(m).
			On("CONFLICT (collection_id, name) DO UPDATE").
			Set("url = EXCLUDED.url").
			Set("blob_path = EXCLUDED.blob_path").
			Set("metadata = EXCLUDED.metadata").
			Set("num_pages = EXCLUDED.num_pages").
			Set("updated_at = now()").
			Returning("id, created_at, updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert document: %w", err)
		}

		// Replace, not merge: a re-ingested document drops its old pages.
		// The embeddings cascade with them.
		if _, err := tx.NewDelete().Model((*pageRow)(nil)).
			Where("document_id = ?", m.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete stale pages: %w", err)
		}

		pageRows := make([]pageRow, len(pages))
		for i, p := range pages {
			pageRows[i] = pageRow{
				DocumentID: m.ID,
				PageNumber: p.Page.PageNumber,
				ImageB64:   p.Page.ImageB64,
				Content:    p.Page.Content,
			}
		}
		if _, err := tx.NewInsert().Model(&pageRows).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert pages: %w", err)
		}

		var embRows []embeddingRow
		for i, p := range pages {
			for _, vec := range p.Vectors {
				embRows = append(embRows, embeddingRow{
					PageID:    pageRows[i].ID,
					Embedding: db.VectorLiteral(vec),
				})
			}
		}
		if _, err := tx.NewInsert().Model(&embRows).Exec(ctx); err != nil {
			return fmt.Errorf("insert page embeddings: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	doc.ID = m.ID
	doc.CreatedAt = m.CreatedAt
	doc.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByName returns a document by name within a collection.
func (r *Repo) GetByName(ctx context.Context, collectionID int64, name string) (domain.Document, error) {
	var m row
	err := r.db.NewSelect().Model(&m).
		Where("d.collection_id = ?", collectionID).
		Where("d.name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, fmt.Errorf("document %q: %w", name, domain.ErrNotFound)
		}
		return domain.Document{}, fmt.Errorf("select document: %w", err)
	}
	return m.toDomain(), nil
}

// List returns all documents of a collection, oldest first.
func (r *Repo) List(ctx context.Context, collectionID int64) ([]domain.Document, error) {
	var rows []row
	err := r.db.NewSelect().Model(&rows).
		Where("d.collection_id = ?", collectionID).
		Order("d.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]domain.Document, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// Delete removes a document by name. Pages and embeddings cascade.
func (r *Repo) Delete(ctx context.Context, collectionID int64, name string) error {
	res, err := r.db.NewDelete().Model((*row)(nil)).
		Where("collection_id = ?", collectionID).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %q: %w", name, domain.ErrNotFound)
	}
	return nil
}
