// Package filter defines the metadata filter DSL applied during search: a
// closed set of jsonb lookups over document or collection metadata. The
// package is storage-agnostic; the page repository compiles a Filter into the
// store's native predicate language.
package filter

import (
	"fmt"

	"github.com/pagesight/pagesight/internal/domain"
)

// Target selects which entity's metadata the filter tests.
type Target string

const (
	// OnDocument filters on document metadata.
	OnDocument Target = "document"
	// OnCollection filters on collection metadata.
	OnCollection Target = "collection"
)

// Lookup is the comparison applied to the metadata key(s).
type Lookup string

const (
	// KeyLookup is exact key-value equality.
	KeyLookup Lookup = "key_lookup"
	// Contains matches metadata containing the key-value pair.
	Contains Lookup = "contains"
	// ContainedBy matches metadata contained by the key-value pair.
	ContainedBy Lookup = "contained_by"
	// HasKey matches metadata having the key, regardless of value.
	HasKey Lookup = "has_key"
	// HasKeys matches metadata having every listed key.
	HasKeys Lookup = "has_keys"
	// HasAnyKeys matches metadata having at least one listed key.
	HasAnyKeys Lookup = "has_any_keys"
)

// Filter is one validated metadata predicate.
//
// Shape rules: key_lookup/contains/contained_by take a single key and a
// scalar value; has_key takes a single key and no value; has_keys and
// has_any_keys take a key list and no value.
type Filter struct {
	on     Target
	lookup Lookup
	key    string
	keys   []string
	value  any
}

// New validates and creates a Filter. key must be a string or a []string
// depending on the lookup; value must be a scalar (string, bool, int, float)
// where required and absent otherwise.
func New(on Target, lookup Lookup, key any, value any) (Filter, error) {
	switch on {
	case OnDocument, OnCollection:
	case "":
		on = OnDocument
	default:
		return Filter{}, fmt.Errorf("unknown filter target %q: %w", on, domain.ErrValidation)
	}

	f := Filter{on: on, lookup: lookup}

	switch lookup {
	case KeyLookup, Contains, ContainedBy:
		k, ok := singleKey(key)
		if !ok {
			return Filter{}, fmt.Errorf("lookup %s requires a single string key: %w", lookup, domain.ErrValidation)
		}
		if value == nil {
			return Filter{}, fmt.Errorf("lookup %s requires a value: %w", lookup, domain.ErrValidation)
		}
		if !isScalar(value) {
			return Filter{}, fmt.Errorf("lookup %s requires a scalar value: %w", lookup, domain.ErrValidation)
		}
		f.key = k
		f.value = value

	case HasKey:
		k, ok := singleKey(key)
		if !ok {
			return Filter{}, fmt.Errorf("has_key requires a single string key: %w", domain.ErrValidation)
		}
		if value != nil {
			return Filter{}, fmt.Errorf("has_key takes no value: %w", domain.ErrValidation)
		}
		f.key = k

	case HasKeys, HasAnyKeys:
		ks, ok := keyList(key)
		if !ok || len(ks) == 0 {
			return Filter{}, fmt.Errorf("lookup %s requires a list of string keys: %w", lookup, domain.ErrValidation)
		}
		if value != nil {
			return Filter{}, fmt.Errorf("lookup %s takes no value: %w", lookup, domain.ErrValidation)
		}
		f.keys = ks

	default:
		return Filter{}, fmt.Errorf("unknown lookup %q: %w", lookup, domain.ErrValidation)
	}

	return f, nil
}

// On returns the filter target.
func (f Filter) On() Target { return f.on }

// Lookup returns the lookup kind.
func (f Filter) Lookup() Lookup { return f.lookup }

// Key returns the single key (key_lookup, contains, contained_by, has_key).
func (f Filter) Key() string { return f.key }

// Keys returns the key list (has_keys, has_any_keys).
func (f Filter) Keys() []string { return f.keys }

// Value returns the scalar comparison value, or nil for existence lookups.
func (f Filter) Value() any { return f.value }

// IsZero reports whether the filter is absent.
func (f Filter) IsZero() bool { return f.lookup == "" }

func singleKey(key any) (string, bool) {
	s, ok := key.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// keyList accepts []string directly or []any of strings (the shape JSON
// decoding produces), mirroring the transform the API applies.
func keyList(key any) ([]string, bool) {
	switch v := key.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		// A single key is promoted to a one-element list.
		if v == "" {
			return nil, false
		}
		return []string{v}, true
	default:
		return nil, false
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}
