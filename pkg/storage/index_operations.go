package storage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// CreateIndex creates and builds an index on a collection. An existing index
// with the same name and definition is left as is.
func (se *StorageEngine) CreateIndex(collName string, spec domain.IndexSpec) error {
	se.mu.Lock()
	defer se.mu.Unlock()
	collection, err := se.getCollectionInternal(collName)
	if err != nil {
		return err
	}
	if collection.Kind == domain.KindView {
		return fmt.Errorf("cannot create index %s on view %s", spec.Name, collName)
	}
	created, err := se.indexEngine.BuildIndexForCollection(collName, spec, collection)
	if err != nil {
		return err
	}
	if created {
		se.markDirty()
		se.logger.Info("index created",
			zap.String("collection", collName),
			zap.Stringer("index", spec))
	}
	return nil
}

// DropIndex removes an index from a collection
func (se *StorageEngine) DropIndex(collName, indexName string) error {
	se.mu.Lock()
	defer se.mu.Unlock()
	if err := se.indexEngine.DropIndex(collName, indexName); err != nil {
		return err
	}
	se.markDirty()
	return nil
}

// ListIndexes returns the index specs of a collection in creation order.
func (se *StorageEngine) ListIndexes(collName string) ([]domain.IndexSpec, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	if _, err := se.getCollectionInternal(collName); err != nil {
		return nil, err
	}
	return se.indexEngine.ListIndexes(collName)
}
