package storage

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// GetCollection returns a collection or view by name.
func (se *StorageEngine) GetCollection(collName string) (*domain.Collection, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	return se.getCollectionInternal(collName)
}

// getCollectionInternal contains the actual collection lookup without locking
func (se *StorageEngine) getCollectionInternal(collName string) (*domain.Collection, error) {
	collection, exists := se.collections[collName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, collName)
	}
	return collection, nil
}

// resolveSource follows a view to the collection holding its documents.
func (se *StorageEngine) resolveSource(collName string) (*domain.Collection, error) {
	collection, err := se.getCollectionInternal(collName)
	if err != nil {
		return nil, err
	}
	if collection.Kind != domain.KindView {
		return collection, nil
	}
	source, err := se.getCollectionInternal(collection.ViewOn)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", collName, err)
	}
	return source, nil
}

// CollectionKind reports whether name exists and what it is.
func (se *StorageEngine) CollectionKind(collName string) (domain.CollectionKind, bool) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	collection, exists := se.collections[collName]
	if !exists {
		return "", false
	}
	return collection.Kind, true
}

// CreateCollection creates a new collection
func (se *StorageEngine) CreateCollection(collName string) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if collName == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	if _, exists := se.collections[collName]; exists {
		return fmt.Errorf("%w: %s", domain.ErrCollectionExists, collName)
	}

	se.collections[collName] = domain.NewCollection(collName)
	se.markDirty()
	se.logger.Debug("collection created", zap.String("collection", collName))
	return nil
}

// CreateView creates a read-only view over an existing collection.
func (se *StorageEngine) CreateView(viewName, source string) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if viewName == "" || source == "" {
		return fmt.Errorf("view and source names cannot be empty")
	}
	if _, exists := se.collections[viewName]; exists {
		return fmt.Errorf("%w: %s", domain.ErrCollectionExists, viewName)
	}

	se.collections[viewName] = domain.NewView(viewName, source)
	se.markDirty()
	se.logger.Debug("view created", zap.String("view", viewName), zap.String("source", source))
	return nil
}

// ListCollections returns every namespace sorted by name.
func (se *StorageEngine) ListCollections() []domain.CollectionInfo {
	se.mu.RLock()
	defer se.mu.RUnlock()

	infos := make([]domain.CollectionInfo, 0, len(se.collections))
	for name, collection := range se.collections {
		specs, _ := se.indexEngine.ListIndexes(name)
		infos = append(infos, domain.CollectionInfo{
			Name:          name,
			Kind:          collection.Kind,
			ViewOn:        collection.ViewOn,
			DocumentCount: len(collection.Documents),
			IndexCount:    len(specs),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
