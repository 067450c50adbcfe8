package domain

import (
	"strings"
	"time"
)

// AllCollections is the reserved scope name that widens a search to every
// collection of the owner. It is rejected as a collection name on writes.
const AllCollections = "all"

// Collection groups documents under one owner. Names are unique per owner,
// case-sensitive.
type Collection struct {
	ID        int64
	OwnerID   string
	Name      string
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateCollectionName rejects empty names and the reserved name "all".
func ValidateCollectionName(name string) error {
	if name == "" {
		return ErrValidation
	}
	if strings.EqualFold(name, AllCollections) {
		return ErrValidation
	}
	return nil
}
