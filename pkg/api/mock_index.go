package api

import (
	"sync"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// MockIndexEngine provides a mock implementation of domain.IndexEngine for testing
type MockIndexEngine struct {
	mu        sync.RWMutex
	indexes   map[string][]domain.IndexSpec
	err       error
	listCalls int
}

// NewMockIndexEngine creates a new mock index engine
func NewMockIndexEngine() *MockIndexEngine {
	return &MockIndexEngine{
		indexes: make(map[string][]domain.IndexSpec),
	}
}

// FailWith makes every subsequent call return err
func (m *MockIndexEngine) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CreateIndex records spec on the collection
func (m *MockIndexEngine) CreateIndex(collectionName string, spec domain.IndexSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.indexes[collectionName] = append(m.indexes[collectionName], spec)
	return nil
}

// DropIndex removes an index by name
func (m *MockIndexEngine) DropIndex(collectionName, indexName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	specs := m.indexes[collectionName]
	for i, spec := range specs {
		if spec.Name == indexName {
			m.indexes[collectionName] = append(specs[:i], specs[i+1:]...)
			return nil
		}
	}
	return domain.ErrIndexNotFound
}

// ListIndexes returns the recorded specs for a collection
func (m *MockIndexEngine) ListIndexes(collectionName string) ([]domain.IndexSpec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	specs, ok := m.indexes[collectionName]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	return append([]domain.IndexSpec(nil), specs...), nil
}

// GetListCalls returns the number of list index calls
func (m *MockIndexEngine) GetListCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCalls
}
