package storage

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/adfharrison1/lookupdb/pkg/indexing"
)

var _ domain.DatabaseEngine = (*StorageEngine)(nil)

// StorageEngine is an embedded document store with named indexes and
// snapshot persistence.
type StorageEngine struct {
	mu          sync.RWMutex
	collections map[string]*domain.Collection
	indexEngine *indexing.IndexEngine
	logger      *zap.Logger

	// version counts mutations; savedVersion is the version last written to disk
	version      uint64
	savedVersion uint64

	// Configuration
	dataDir        string
	dataFile       string
	backgroundSave bool
	saveInterval   time.Duration

	// Background workers
	backgroundWg sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
}

// NewStorageEngine creates a new storage engine
func NewStorageEngine(options ...StorageOption) *StorageEngine {
	engine := &StorageEngine{
		collections:  make(map[string]*domain.Collection),
		indexEngine:  indexing.NewIndexEngine(),
		logger:       zap.NewNop(),
		dataDir:      ".",
		saveInterval: 5 * time.Minute,
		stopChan:     make(chan struct{}),
	}

	for _, option := range options {
		option(engine)
	}

	return engine
}

// GetIndexEngine returns the index engine instance
func (se *StorageEngine) GetIndexEngine() domain.IndexEngine {
	return se
}

// IsDirty reports whether there are mutations not yet saved to disk.
func (se *StorageEngine) IsDirty() bool {
	se.mu.RLock()
	defer se.mu.RUnlock()
	return se.version != se.savedVersion
}

// markDirty must be called with se.mu held for writing.
func (se *StorageEngine) markDirty() {
	se.version++
}
