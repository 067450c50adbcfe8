// Package collection handles collection CRUD. Collections are per-owner
// namespaces for documents; names are unique per owner and "all" is reserved
// for the search scope.
package collection

import (
	"context"
	"fmt"

	"github.com/pagesight/pagesight/internal/domain"
)

// Service handles collection CRUD operations.
type Service struct {
	repo Repository
}

// New creates a collection service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new collection.
func (s *Service) Create(ctx context.Context, ownerID, name string, metadata map[string]any) (domain.Collection, error) {
	if err := domain.ValidateCollectionName(name); err != nil {
		return domain.Collection{}, fmt.Errorf("collection name %q: %w", name, err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	col := domain.Collection{OwnerID: ownerID, Name: name, Metadata: metadata}
	if err := s.repo.Create(ctx, &col); err != nil {
		return domain.Collection{}, fmt.Errorf("create collection: %w", err)
	}
	return col, nil
}

// Get retrieves an owner's collection by name.
func (s *Service) Get(ctx context.Context, ownerID, name string) (domain.Collection, error) {
	col, err := s.repo.GetByName(ctx, ownerID, name)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return col, nil
}

// List returns all collections of an owner.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Collection, error) {
	cols, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cols, nil
}

// Update renames a collection and/or replaces its metadata. Nil newName keeps
// the current name; nil metadata keeps the current metadata.
func (s *Service) Update(ctx context.Context, ownerID, name string, newName *string, metadata map[string]any) (domain.Collection, error) {
	col, err := s.repo.GetByName(ctx, ownerID, name)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("get collection: %w", err)
	}

	if newName != nil {
		if err := domain.ValidateCollectionName(*newName); err != nil {
			return domain.Collection{}, fmt.Errorf("collection name %q: %w", *newName, err)
		}
		col.Name = *newName
	}
	if metadata != nil {
		col.Metadata = metadata
	}

	if err := s.repo.Update(ctx, &col); err != nil {
		return domain.Collection{}, fmt.Errorf("update collection: %w", err)
	}
	return col, nil
}

// Delete removes a collection and everything in it.
func (s *Service) Delete(ctx context.Context, ownerID, name string) error {
	if err := s.repo.Delete(ctx, ownerID, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}
