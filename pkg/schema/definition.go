package schema

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

const (
	// LookupCollection holds one document per archived lookup record.
	LookupCollection = "lookup"
	// LookupValuesIndex covers every scalar nested under identifiers.
	LookupValuesIndex = "lookup_values"
	// ArchivalIDIndex enforces one record per archivalId.
	ArchivalIDIndex = "archivalId_unique"
)

// CollectionSchema lists the indexes a collection must carry, in the order
// they are applied.
type CollectionSchema struct {
	Name    string             `yaml:"name" json:"name" validate:"required"`
	Indexes []domain.IndexSpec `yaml:"indexes" json:"indexes" validate:"dive"`
}

// Definition is the complete target schema.
type Definition struct {
	Collections []CollectionSchema `yaml:"collections" json:"collections" validate:"required,min=1,dive"`
}

// Lookup returns the lookup store schema: the lookup collection with a
// wildcard index over identifiers and a unique index on archivalId.
func Lookup() Definition {
	return Definition{
		Collections: []CollectionSchema{
			{
				Name: LookupCollection,
				Indexes: []domain.IndexSpec{
					{Name: LookupValuesIndex, Keys: domain.Ascending("identifiers." + domain.WildcardSuffix)},
					{Name: ArchivalIDIndex, Keys: domain.Ascending("archivalId"), Unique: true},
				},
			},
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required fields, index shapes and name uniqueness.
func (d Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSpec, err)
	}
	seenCollections := make(map[string]bool, len(d.Collections))
	for _, coll := range d.Collections {
		if seenCollections[coll.Name] {
			return fmt.Errorf("%w: collection %s defined twice", domain.ErrInvalidSpec, coll.Name)
		}
		seenCollections[coll.Name] = true

		seenIndexes := make(map[string]bool, len(coll.Indexes))
		for _, spec := range coll.Indexes {
			if err := spec.Validate(); err != nil {
				return fmt.Errorf("collection %s: %w", coll.Name, err)
			}
			if seenIndexes[spec.Name] {
				return fmt.Errorf("%w: index %s defined twice on %s", domain.ErrInvalidSpec, spec.Name, coll.Name)
			}
			seenIndexes[spec.Name] = true
		}
	}
	return nil
}

// LoadFile reads a YAML schema definition. Keys without an order or type
// default to ascending.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML schema definition.
func Parse(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("failed to parse schema: %w", err)
	}
	for i := range def.Collections {
		for j := range def.Collections[i].Indexes {
			keys := def.Collections[i].Indexes[j].Keys
			for k := range keys {
				if keys[k].Order == 0 && keys[k].Type == "" {
					keys[k].Order = 1
				}
			}
		}
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}
