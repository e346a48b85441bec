// Package schema converges a document database to a declared set of
// collections and indexes. Every step is create-if-absent: re-running is
// safe, and nothing that already exists is altered or dropped.
package schema

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// Target is the database the initializer converges.
type Target interface {
	// CollectionKind reports whether name exists and whether it is a
	// collection or a view.
	CollectionKind(ctx context.Context, name string) (domain.CollectionKind, bool, error)
	// CreateCollection fails with domain.ErrCollectionExists if name is taken.
	CreateCollection(ctx context.Context, name string) error
	// ListIndexes returns the collection's indexes, excluding the primary key index.
	ListIndexes(ctx context.Context, collection string) ([]domain.IndexSpec, error)
	// CreateIndex must be a no-op for an identical existing index and fail
	// with domain.ErrSchemaConflict when the definition clashes.
	CreateIndex(ctx context.Context, collection string, spec domain.IndexSpec) error
}

// Initializer applies a Definition to a Target.
type Initializer struct {
	target     Target
	definition Definition
	logger     *zap.Logger
}

// Option configures an Initializer.
type Option func(*Initializer)

// WithDefinition replaces the built-in lookup schema.
func WithDefinition(def Definition) Option {
	return func(i *Initializer) {
		i.definition = def
	}
}

// WithLogger sets the logger the Initializer reports its steps to.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Initializer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInitializer creates an initializer for target using the lookup schema
// unless WithDefinition says otherwise.
func NewInitializer(target Target, opts ...Option) *Initializer {
	i := &Initializer{
		target:     target,
		definition: Lookup(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Definition returns the schema this initializer applies.
func (i *Initializer) Definition() Definition {
	return i.definition
}

// Initialize ensures every collection of the definition and then each of its
// indexes, in declaration order, stopping at the first failure.
func (i *Initializer) Initialize(ctx context.Context) error {
	if err := i.definition.Validate(); err != nil {
		return err
	}
	for _, coll := range i.definition.Collections {
		if err := i.EnsureCollection(ctx, coll.Name); err != nil {
			return err
		}
		for _, spec := range coll.Indexes {
			if err := i.EnsureIndex(ctx, coll.Name, spec); err != nil {
				return err
			}
		}
	}
	i.logger.Info("schema initialized", zap.Int("collections", len(i.definition.Collections)))
	return nil
}

// EnsureCollection creates name unless a collection of that name exists.
// A view under the same name is a conflict.
func (i *Initializer) EnsureCollection(ctx context.Context, name string) error {
	kind, exists, err := i.target.CollectionKind(ctx, name)
	if err != nil {
		return fmt.Errorf("ensure collection %s: %w", name, err)
	}
	if !exists {
		err := i.target.CreateCollection(ctx, name)
		switch {
		case err == nil:
			i.logger.Info("collection created", zap.String("collection", name))
			return nil
		case errors.Is(err, domain.ErrCollectionExists):
			// lost a creation race; check what the winner made
			kind, exists, err = i.target.CollectionKind(ctx, name)
			if err != nil {
				return fmt.Errorf("ensure collection %s: %w", name, err)
			}
			if !exists {
				return fmt.Errorf("ensure collection %s: reported existing but not found", name)
			}
		default:
			return fmt.Errorf("ensure collection %s: %w", name, err)
		}
	}
	if kind != domain.KindCollection {
		return fmt.Errorf("ensure collection %s: %w", name, &domain.SchemaConflictError{
			Collection: name,
			Existing:   string(kind),
			Wanted:     string(domain.KindCollection),
		})
	}
	i.logger.Debug("collection already present", zap.String("collection", name))
	return nil
}

// EnsureIndex creates spec on collection unless an index with the same name
// exists. An existing index with that name but another definition is a
// conflict and is left untouched.
func (i *Initializer) EnsureIndex(ctx context.Context, collection string, spec domain.IndexSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("ensure index %s.%s: %w", collection, spec.Name, err)
	}
	existing, err := i.target.ListIndexes(ctx, collection)
	if err != nil {
		return fmt.Errorf("ensure index %s.%s: %w", collection, spec.Name, err)
	}
	for _, current := range existing {
		if current.Name != spec.Name {
			continue
		}
		if !current.Equal(spec) {
			return fmt.Errorf("ensure index %s.%s: %w", collection, spec.Name, &domain.SchemaConflictError{
				Collection: collection,
				Name:       spec.Name,
				Existing:   current.String(),
				Wanted:     spec.String(),
			})
		}
		i.logger.Debug("index already present",
			zap.String("collection", collection),
			zap.String("index", spec.Name))
		return nil
	}

	if err := i.target.CreateIndex(ctx, collection, spec); err != nil {
		return fmt.Errorf("ensure index %s.%s: %w", collection, spec.Name, err)
	}
	i.logger.Info("index created",
		zap.String("collection", collection),
		zap.Stringer("index", spec))
	return nil
}

// Plan lists the operations Initialize would perform, without changing the
// target. Conflicts are reported as errors exactly as Initialize would.
func (i *Initializer) Plan(ctx context.Context) ([]string, error) {
	if err := i.definition.Validate(); err != nil {
		return nil, err
	}
	var steps []string
	for _, coll := range i.definition.Collections {
		kind, exists, err := i.target.CollectionKind(ctx, coll.Name)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", coll.Name, err)
		}
		if exists && kind != domain.KindCollection {
			return nil, &domain.SchemaConflictError{Collection: coll.Name, Existing: string(kind), Wanted: string(domain.KindCollection)}
		}
		if !exists {
			steps = append(steps, "create collection "+coll.Name)
		}

		var current []domain.IndexSpec
		if exists {
			current, err = i.target.ListIndexes(ctx, coll.Name)
			if err != nil {
				return nil, fmt.Errorf("plan %s: %w", coll.Name, err)
			}
		}
		for _, spec := range coll.Indexes {
			found := false
			for _, c := range current {
				if c.Name != spec.Name {
					continue
				}
				found = true
				if !c.Equal(spec) {
					return nil, &domain.SchemaConflictError{Collection: coll.Name, Name: spec.Name, Existing: c.String(), Wanted: spec.String()}
				}
			}
			if !found {
				steps = append(steps, fmt.Sprintf("create index %s on %s", spec, coll.Name))
			}
		}
	}
	return steps, nil
}
