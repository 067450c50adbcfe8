package pagesight

import (
	"context"
	"errors"
	"fmt"

	"github.com/pagesight/pagesight/internal/domain"
)

// CollectionService manages collections.
type CollectionService struct {
	owner string
	svc   collectionUseCase
}

// Create creates a new collection.
func (s *CollectionService) Create(ctx context.Context, name string, metadata map[string]any) (CollectionInfo, error) {
	col, err := s.svc.Create(ctx, s.owner, name, metadata)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("create collection: %w", err)
	}
	return fromInternalCollection(col), nil
}

// Ensure creates a collection if it does not exist. If it already exists,
// returns its info; the metadata is left untouched.
func (s *CollectionService) Ensure(ctx context.Context, name string, metadata map[string]any) (CollectionInfo, error) {
	col, err := s.svc.Create(ctx, s.owner, name, metadata)
	if err == nil {
		return fromInternalCollection(col), nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return CollectionInfo{}, fmt.Errorf("ensure collection: %w", err)
	}

	existing, err := s.svc.Get(ctx, s.owner, name)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("ensure collection: %w", err)
	}
	return fromInternalCollection(existing), nil
}

// Get retrieves collection metadata by name.
func (s *CollectionService) Get(ctx context.Context, name string) (CollectionInfo, error) {
	col, err := s.svc.Get(ctx, s.owner, name)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("get collection: %w", err)
	}
	return fromInternalCollection(col), nil
}

// List returns all collections of the owner.
func (s *CollectionService) List(ctx context.Context) ([]CollectionInfo, error) {
	cols, err := s.svc.List(ctx, s.owner)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	out := make([]CollectionInfo, len(cols))
	for i, c := range cols {
		out[i] = fromInternalCollection(c)
	}
	return out, nil
}

// Rename changes a collection's name.
func (s *CollectionService) Rename(ctx context.Context, name, newName string) (CollectionInfo, error) {
	col, err := s.svc.Update(ctx, s.owner, name, &newName, nil)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("rename collection: %w", err)
	}
	return fromInternalCollection(col), nil
}

// SetMetadata replaces a collection's metadata.
func (s *CollectionService) SetMetadata(ctx context.Context, name string, metadata map[string]any) (CollectionInfo, error) {
	col, err := s.svc.Update(ctx, s.owner, name, nil, metadata)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("update collection: %w", err)
	}
	return fromInternalCollection(col), nil
}

// Delete removes a collection with all its documents.
func (s *CollectionService) Delete(ctx context.Context, name string) error {
	if err := s.svc.Delete(ctx, s.owner, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}
