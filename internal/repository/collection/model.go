package collection

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/pagesight/pagesight/internal/domain"
)

type row struct {
	bun.BaseModel `bun:"table:collections,alias:c"`

	ID        int64          `bun:"id,pk,autoincrement"`
	OwnerID   string         `bun:"owner_id,notnull"`
	Name      string         `bun:"name,notnull"`
	Metadata  map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:now()"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,notnull,default:now()"`
}

func (r *row) toDomain() domain.Collection {
	return domain.Collection{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Metadata:  r.Metadata,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromDomain(c *domain.Collection) *row {
	return &row{
		ID:       c.ID,
		OwnerID:  c.OwnerID,
		Name:     c.Name,
		Metadata: c.Metadata,
	}
}
