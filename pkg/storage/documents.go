package storage

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/adfharrison1/lookupdb/pkg/indexing"
)

// Insert stores a deep copy of doc and returns its ID. A missing collection is
// created on first insert. Writes that would break a unique index, or reuse
// an existing _id, fail with domain.ErrUniquenessViolation.
func (se *StorageEngine) Insert(collName string, doc domain.Document) (string, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	collection, exists := se.collections[collName]
	if !exists {
		collection = domain.NewCollection(collName)
		se.collections[collName] = collection
	}
	if collection.Kind == domain.KindView {
		return "", fmt.Errorf("cannot insert into view %s", collName)
	}

	stored := indexing.CopyDocument(doc)
	docID := documentID(stored["_id"])
	stored["_id"] = docID

	if _, taken := collection.Documents[docID]; taken {
		return "", fmt.Errorf("%w: _id %s already exists in collection %s",
			domain.ErrUniquenessViolation, docID, collName)
	}
	if err := se.indexEngine.CheckDocument(collName, docID, stored); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collName, err)
	}

	se.indexEngine.UpdateIndexForDocument(collName, docID, nil, stored)
	collection.Documents[docID] = stored
	se.markDirty()

	return docID, nil
}

func documentID(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return uuid.NewString()
	case string:
		if v == "" {
			return uuid.NewString()
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetById retrieves a specific document by its ID
func (se *StorageEngine) GetById(collName, docId string) (domain.Document, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	collection, err := se.resolveSource(collName)
	if err != nil {
		return nil, err
	}

	doc, exists := collection.Documents[docId]
	if !exists {
		return nil, fmt.Errorf("document with id %s not found in collection %s", docId, collName)
	}

	return doc, nil
}

// DeleteById removes a specific document by its ID
func (se *StorageEngine) DeleteById(collName, docId string) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	collection, err := se.getCollectionInternal(collName)
	if err != nil {
		return err
	}

	doc, exists := collection.Documents[docId]
	if !exists {
		return fmt.Errorf("document with id %s not found in collection %s", docId, collName)
	}

	se.indexEngine.UpdateIndexForDocument(collName, docId, doc, nil)
	delete(collection.Documents, docId)
	se.markDirty()

	return nil
}

// Find returns the documents matching every equality in filter, sorted by
// _id, together with the plan used to answer it. Filter keys are dotted paths.
func (se *StorageEngine) Find(collName string, filter map[string]interface{}) ([]domain.Document, domain.QueryPlan, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	var plan domain.QueryPlan
	collection, err := se.resolveSource(collName)
	if err != nil {
		return nil, plan, err
	}

	candidateIDs, indexName, useIndex := se.optimizeWithIndexes(collection.Name, filter)
	plan.IndexName = indexName

	var results []domain.Document
	if useIndex {
		for _, docID := range candidateIDs {
			doc, exists := collection.Documents[docID]
			if !exists {
				continue
			}
			plan.Scanned++
			if MatchesFilter(doc, filter) {
				results = append(results, doc)
			}
		}
	} else {
		for _, doc := range collection.Documents {
			plan.Scanned++
			if MatchesFilter(doc, filter) {
				results = append(results, doc)
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		idI, _ := results[i]["_id"].(string)
		idJ, _ := results[j]["_id"].(string)
		return idI < idJ
	})
	return results, plan, nil
}

// optimizeWithIndexes picks one index able to answer part of the filter.
// Fields are tried in sorted order so the choice is stable.
func (se *StorageEngine) optimizeWithIndexes(collName string, filter map[string]interface{}) ([]string, string, bool) {
	fields := make([]string, 0, len(filter))
	for field := range filter {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if index, ok := se.indexEngine.IndexFor(collName, field, filter[field]); ok {
			return index.Query(field, filter[field]), index.Spec.Name, true
		}
	}
	return nil, "", false
}
