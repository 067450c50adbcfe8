package collection

import (
	"context"

	"github.com/pagesight/pagesight/internal/domain"
)

// Repository defines the storage contract for collections.
type Repository interface {
	Create(ctx context.Context, c *domain.Collection) error
	GetByName(ctx context.Context, ownerID, name string) (domain.Collection, error)
	List(ctx context.Context, ownerID string) ([]domain.Collection, error)
	Update(ctx context.Context, c *domain.Collection) error
	Delete(ctx context.Context, ownerID, name string) error
}
