// Package collection persists collections in Postgres.
package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pagesight/pagesight/internal/db"
	"github.com/pagesight/pagesight/internal/domain"
)

// Repo implements usecase/collection.Repository.
type Repo struct {
	db bun.IDB
}

// New creates a collection repository.
func New(bdb bun.IDB) *Repo {
	return &Repo{db: bdb}
}

// Create inserts a collection and fills its ID and timestamps. A duplicate
// (owner, name) pair maps to domain.ErrConflict.
func (r *Repo) Create(ctx context.Context, c *domain.Collection) error {
	m := fromDomain(c)
	if _, err := r.db.NewInsert().Model(m).Returning("id, created_at, updated_at").Exec(ctx); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("collection %q: %w", c.Name, domain.ErrConflict)
		}
		return fmt.Errorf("insert collection: %w", err)
	}
	c.ID = m.ID
	c.CreatedAt = m.CreatedAt
	c.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByName returns an owner's collection by name.
func (r *Repo) GetByName(ctx context.Context, ownerID, name string) (domain.Collection, error) {
	var m row
	err := r.db.NewSelect().Model(&m).
		Where("c.owner_id = ?", ownerID).
		Where("c.name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Collection{}, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
		}
		return domain.Collection{}, fmt.Errorf("select collection: %w", err)
	}
	return m.toDomain(), nil
}

// List returns all collections of an owner, oldest first.
func (r *Repo) List(ctx context.Context, ownerID string) ([]domain.Collection, error) {
	var rows []row
	err := r.db.NewSelect().Model(&rows).
		Where("c.owner_id = ?", ownerID).
		Order("c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	out := make([]domain.Collection, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// Update renames a collection and/or replaces its metadata. A rename that
// collides with an existing name maps to domain.ErrConflict.
func (r *Repo) Update(ctx context.Context, c *domain.Collection) error {
	res, err := r.db.NewUpdate().Model((*row)(nil)).
		Set("name = ?", c.Name).
		Set("metadata = ?", c.Metadata).
		Set("updated_at = now()").
		Where("id = ?", c.ID).
		Exec(ctx)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("collection %q: %w", c.Name, domain.ErrConflict)
		}
		return fmt.Errorf("update collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("collection %q: %w", c.Name, domain.ErrNotFound)
	}
	return nil
}

// Delete removes an owner's collection by name. Documents, pages, and
// embeddings go with it through the cascade.
func (r *Repo) Delete(ctx context.Context, ownerID, name string) error {
	res, err := r.db.NewDelete().Model((*row)(nil)).
		Where("owner_id = ?", ownerID).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	return nil
}
