package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/adfharrison1/lookupdb/pkg/indexing"
)

// SchemaTarget exposes a StorageEngine through the context-aware calls the
// schema initializer and record helpers use. The engine never blocks, so the
// context is only checked for cancellation.
type SchemaTarget struct {
	engine *StorageEngine
}

// NewSchemaTarget wraps engine.
func NewSchemaTarget(engine *StorageEngine) *SchemaTarget {
	return &SchemaTarget{engine: engine}
}

// Engine returns the wrapped storage engine.
func (t *SchemaTarget) Engine() *StorageEngine {
	return t.engine
}

func (t *SchemaTarget) CollectionKind(ctx context.Context, name string) (domain.CollectionKind, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	kind, exists := t.engine.CollectionKind(name)
	return kind, exists, nil
}

func (t *SchemaTarget) CreateCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.engine.CreateCollection(name)
}

func (t *SchemaTarget) ListIndexes(ctx context.Context, collection string) ([]domain.IndexSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	specs, err := t.engine.ListIndexes(collection)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return []domain.IndexSpec{}, nil
	}
	return specs, err
}

func (t *SchemaTarget) CreateIndex(ctx context.Context, collection string, spec domain.IndexSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.engine.CreateIndex(collection, spec)
}

// InsertRecord stores a lookup record.
func (t *SchemaTarget) InsertRecord(ctx context.Context, collection string, record domain.LookupRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.engine.Insert(collection, record.ToDocument())
	return err
}

// FindByIdentifier returns the records whose identifiers tree holds value at
// path, where path is relative to the identifiers field (e.g. "CHECK_ID").
func (t *SchemaTarget) FindByIdentifier(ctx context.Context, collection, path string, value interface{}) ([]domain.LookupRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, _, err := t.engine.Find(collection, map[string]interface{}{"identifiers." + path: value})
	if err != nil {
		return nil, err
	}
	records := make([]domain.LookupRecord, 0, len(docs))
	for _, doc := range docs {
		record, err := recordFromDocument(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func recordFromDocument(doc domain.Document) (domain.LookupRecord, error) {
	var record domain.LookupRecord
	id, ok := doc["_id"].(string)
	if !ok {
		return record, fmt.Errorf("document has no string _id")
	}
	record.ID = id
	switch n := doc["archivalId"].(type) {
	case int64:
		record.ArchivalID = n
	default:
		if f, ok := indexing.ToFloat64(n); ok {
			record.ArchivalID = int64(f)
		}
	}
	if ts, ok := doc["archivedAt"].(time.Time); ok {
		record.ArchivedAt = &ts
	}
	record.CreatedAt, _ = doc["createdAt"].(time.Time)
	record.Timestamp, _ = doc["timestamp"].(time.Time)
	if identifiers, ok := indexing.AsMap(doc["identifiers"]); ok {
		record.Identifiers = identifiers
	}
	return record, nil
}
