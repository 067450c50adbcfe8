// Package page runs the late-interaction search. The heavy lifting happens in
// Postgres: the max_sim SQL function scores every candidate page against the
// query's vector set and only the top hits come back.
package page

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pagesight/pagesight/internal/db"
	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/domain/filter"
)

// Repo implements usecase/search.Repository.
type Repo struct {
	db bun.IDB
}

// New creates a page search repository.
func New(bdb bun.IDB) *Repo {
	return &Repo{db: bdb}
}

type scoredRow struct {
	ID                 int64           `bun:"id"`
	DocumentID         int64           `bun:"document_id"`
	PageNumber         int             `bun:"page_number"`
	ImageB64           string          `bun:"image_b64"`
	DocumentName       string          `bun:"document_name"`
	DocumentMetadata   json.RawMessage `bun:"document_metadata"`
	CollectionID       int64           `bun:"collection_id"`
	CollectionName     string          `bun:"collection_name"`
	CollectionMetadata json.RawMessage `bun:"collection_metadata"`
	RawScore           float64         `bun:"raw_score"`
}

// SearchMaxSim returns the topK best-scoring pages in the owner's scope,
// ordered by raw score descending with the page ID as a deterministic
// tie-break. collectionName domain.AllCollections widens the scope to every
// collection of the owner.
func (r *Repo) SearchMaxSim(ctx context.Context, ownerID, collectionName string, vectors domain.VectorSet, f filter.Filter, topK int) ([]domain.ScoredPage, error) {
	if err := vectors.Validate(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive: %w", domain.ErrValidation)
	}

	sel := r.db.NewSelect().
		TableExpr("pages AS p").
		Join("JOIN documents AS d ON d.id = p.document_id").
		Join("JOIN collections AS c ON c.id = d.collection_id").
		Join("JOIN page_embeddings AS pe ON pe.page_id = p.id").
		ColumnExpr("p.id, p.document_id, p.page_number, p.image_b64").
		ColumnExpr("d.name AS document_name, d.metadata AS document_metadata").
		ColumnExpr("c.id AS collection_id, c.name AS collection_name, c.metadata AS collection_metadata").
		ColumnExpr("max_sim(array_agg(pe.embedding), ?::halfvec[]) AS raw_score",
			db.VectorArrayLiteral(vectors)).
		Where("c.owner_id = ?", ownerID).
		GroupExpr("p.id, d.id, c.id").
		OrderExpr("raw_score DESC, p.id ASC").
		Limit(topK)

	if collectionName != domain.AllCollections {
		sel = sel.Where("c.name = ?", collectionName)
	}

	if !f.IsZero() {
		expr, args, err := compileFilter(f)
		if err != nil {
			return nil, err
		}
		sel = sel.Where(expr, args...)
	}

	var rows []scoredRow
	if err := sel.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("maxsim search: %w", err)
	}

	out := make([]domain.ScoredPage, 0, len(rows))
	for i := range rows {
		sp, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}

// GetPages returns a document's pages in page order, including images.
func (r *Repo) GetPages(ctx context.Context, documentID int64) ([]domain.Page, error) {
	type pageRow struct {
		bun.BaseModel `bun:"table:pages,alias:p"`

		ID         int64  `bun:"id"`
		DocumentID int64  `bun:"document_id"`
		PageNumber int    `bun:"page_number"`
		ImageB64   string `bun:"image_b64"`
		Content    string `bun:"content"`
	}

	var rows []pageRow
	err := r.db.NewSelect().Model(&rows).
		Where("p.document_id = ?", documentID).
		Order("p.page_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	out := make([]domain.Page, 0, len(rows))
	for _, p := range rows {
		out = append(out, domain.Page{
			ID:         p.ID,
			DocumentID: p.DocumentID,
			PageNumber: p.PageNumber,
			ImageB64:   p.ImageB64,
			Content:    p.Content,
		})
	}
	return out, nil
}

func (s *scoredRow) toDomain() (domain.ScoredPage, error) {
	sp := domain.ScoredPage{
		Page: domain.Page{
			ID:         s.ID,
			DocumentID: s.DocumentID,
			PageNumber: s.PageNumber,
			ImageB64:   s.ImageB64,
		},
		DocumentID:     s.DocumentID,
		DocumentName:   s.DocumentName,
		CollectionID:   s.CollectionID,
		CollectionName: s.CollectionName,
		RawScore:       s.RawScore,
	}
	if len(s.DocumentMetadata) > 0 {
		if err := json.Unmarshal(s.DocumentMetadata, &sp.DocumentMetadata); err != nil {
			return domain.ScoredPage{}, fmt.Errorf("decode document metadata: %w", err)
		}
	}
	if len(s.CollectionMetadata) > 0 {
		if err := json.Unmarshal(s.CollectionMetadata, &sp.CollectionMetadata); err != nil {
			return domain.ScoredPage{}, fmt.Errorf("decode collection metadata: %w", err)
		}
	}
	return sp, nil
}
