package domain

import (
	"fmt"
	"strings"
)

// WildcardSuffix marks a key that covers every path below its prefix.
const WildcardSuffix = "$**"

// IndexKey is one component of an index key pattern. Order is 1 or -1 for
// ordered keys; Type names a special index kind (hashed, text, ...) instead.
type IndexKey struct {
	Field string `json:"field" yaml:"field" msgpack:"field" validate:"required"`
	Order int    `json:"order,omitempty" yaml:"order,omitempty" msgpack:"order,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type,omitempty"`
}

// IsWildcard reports whether the key covers a whole subtree.
func (k IndexKey) IsWildcard() bool {
	return k.Field == WildcardSuffix || strings.HasSuffix(k.Field, "."+WildcardSuffix)
}

// WildcardPrefix returns the path the wildcard hangs off, "" for a root wildcard.
func (k IndexKey) WildcardPrefix() string {
	if k.Field == WildcardSuffix {
		return ""
	}
	return strings.TrimSuffix(k.Field, "."+WildcardSuffix)
}

// Covers reports whether a query on path can be answered by this key.
func (k IndexKey) Covers(path string) bool {
	if !k.IsWildcard() {
		return k.Field == path
	}
	prefix := k.WildcardPrefix()
	return prefix == "" || strings.HasPrefix(path, prefix+".")
}

func (k IndexKey) String() string {
	if k.Type != "" {
		return fmt.Sprintf("%s: %q", k.Field, k.Type)
	}
	return fmt.Sprintf("%s: %d", k.Field, k.Order)
}

// IndexSpec is a named index definition. The name is what makes
// re-application idempotent.
type IndexSpec struct {
	Name   string     `json:"name" yaml:"name" msgpack:"name" validate:"required"`
	Keys   []IndexKey `json:"keys" yaml:"keys" msgpack:"keys" validate:"required,min=1,dive"`
	Unique bool       `json:"unique,omitempty" yaml:"unique,omitempty" msgpack:"unique,omitempty"`
}

// Equal compares the key pattern (in order) and options, ignoring the name.
func (s IndexSpec) Equal(other IndexSpec) bool {
	return s.Unique == other.Unique && s.SameKeys(other)
}

// SameKeys reports whether both specs index the same key pattern.
func (s IndexSpec) SameKeys(other IndexSpec) bool {
	if len(s.Keys) != len(other.Keys) {
		return false
	}
	for i := range s.Keys {
		if s.Keys[i] != other.Keys[i] {
			return false
		}
	}
	return true
}

// IsWildcard reports whether any key of the spec is a wildcard.
func (s IndexSpec) IsWildcard() bool {
	for _, k := range s.Keys {
		if k.IsWildcard() {
			return true
		}
	}
	return false
}

func (s IndexSpec) String() string {
	parts := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		parts[i] = k.String()
	}
	out := fmt.Sprintf("%s {%s}", s.Name, strings.Join(parts, ", "))
	if s.Unique {
		out += " unique"
	}
	return out
}

// Ascending builds a single-field ascending key pattern.
func Ascending(field string) []IndexKey {
	return []IndexKey{{Field: field, Order: 1}}
}

// IndexEngine defines the interface for indexing operations
type IndexEngine interface {
	CreateIndex(collectionName string, spec IndexSpec) error
	DropIndex(collectionName, indexName string) error
	ListIndexes(collectionName string) ([]IndexSpec, error)
}

// Validate checks the shape rules every target agrees on.
func (s IndexSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: index name cannot be empty", ErrInvalidSpec)
	}
	if len(s.Keys) == 0 {
		return fmt.Errorf("%w: index %s has no keys", ErrInvalidSpec, s.Name)
	}
	for _, k := range s.Keys {
		if k.Field == "" {
			return fmt.Errorf("%w: index %s has an empty field", ErrInvalidSpec, s.Name)
		}
		if strings.Contains(strings.TrimSuffix(k.Field, WildcardSuffix), "$") {
			return fmt.Errorf("%w: index %s: %q may only use %s as the last path segment", ErrInvalidSpec, s.Name, k.Field, WildcardSuffix)
		}
		if k.Type == "" && k.Order != 1 && k.Order != -1 {
			return fmt.Errorf("%w: index %s: order for %s must be 1 or -1, got %d", ErrInvalidSpec, s.Name, k.Field, k.Order)
		}
		if k.IsWildcard() {
			if len(s.Keys) > 1 {
				return fmt.Errorf("%w: wildcard index %s cannot be compound", ErrInvalidSpec, s.Name)
			}
			if s.Unique {
				return fmt.Errorf("%w: wildcard index %s cannot be unique", ErrInvalidSpec, s.Name)
			}
		}
	}
	return nil
}
