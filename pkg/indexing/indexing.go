package indexing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

const (
	pathSeparator     = "\x00"
	compoundSeparator = "\x1f"
)

// IndexEngine implements domain.IndexEngine interface
type IndexEngine struct {
	indexes map[string]*collectionIndexes // Collection name -> indexes
}

type collectionIndexes struct {
	byName map[string]*Index
	order  []string
}

// NewIndexEngine creates a new index engine
func NewIndexEngine() *IndexEngine {
	return &IndexEngine{
		indexes: make(map[string]*collectionIndexes),
	}
}

// Index stores a mapping from encoded key values to document IDs.
type Index struct {
	Spec     domain.IndexSpec
	Inverted map[string][]string
	byDoc    map[string][]string
}

// NewIndex creates an empty index for spec.
func NewIndex(spec domain.IndexSpec) *Index {
	return &Index{
		Spec:     spec,
		Inverted: make(map[string][]string),
		byDoc:    make(map[string][]string),
	}
}

// Keys returns the distinct encoded keys doc contributes to the index.
func (idx *Index) Keys(doc domain.Document) []string {
	if doc == nil {
		return nil
	}
	var keys []string
	if idx.Spec.IsWildcard() {
		keys = idx.wildcardKeys(doc)
	} else {
		keys = idx.fieldKeys(doc)
	}
	return dedupe(keys)
}

func (idx *Index) wildcardKeys(doc domain.Document) []string {
	prefix := idx.Spec.Keys[0].WildcardPrefix()
	var keys []string
	collect := func(leaf Leaf) {
		keys = append(keys, leaf.Path+pathSeparator+EncodeValue(leaf.Value))
	}
	if prefix == "" {
		for field, value := range doc {
			if field == "_id" {
				continue
			}
			WalkLeaves(field, value, collect)
		}
		return keys
	}
	for _, value := range PathValues(doc, prefix) {
		WalkLeaves(prefix, value, collect)
	}
	return keys
}

// fieldKeys expands multikey fields into every combination of their values.
// A missing field is indexed as null.
func (idx *Index) fieldKeys(doc domain.Document) []string {
	keys := []string{""}
	for i, key := range idx.Spec.Keys {
		values := PathValues(doc, key.Field)
		if len(values) == 0 {
			values = []interface{}{nil}
		}
		next := make([]string, 0, len(keys)*len(values))
		for _, prefix := range keys {
			for _, v := range values {
				if i == 0 {
					next = append(next, EncodeValue(v))
				} else {
					next = append(next, prefix+compoundSeparator+EncodeValue(v))
				}
			}
		}
		keys = next
	}
	return keys
}

// Supports reports whether an equality match of value on path can be
// answered by the index. Array values never can, since multikey entries hold
// elements only. Wildcard entries hold scalar leaves only, so subdocuments
// and null (which also matches a missing field) need a scan.
func (idx *Index) Supports(path string, value interface{}) bool {
	if len(idx.Spec.Keys) != 1 || !idx.Spec.Keys[0].Covers(path) {
		return false
	}
	if _, isArray := AsSlice(value); isArray {
		return false
	}
	if idx.Spec.IsWildcard() {
		if _, isDoc := AsMap(value); isDoc || value == nil {
			return false
		}
	}
	return true
}

// Query returns document IDs whose value at path equals value.
func (idx *Index) Query(path string, value interface{}) []string {
	if !idx.Supports(path, value) {
		return nil
	}
	key := EncodeValue(value)
	if idx.Spec.IsWildcard() {
		key = path + pathSeparator + key
	}
	return idx.Inverted[key]
}

// CheckUnique returns a uniqueness violation if doc would share a key with
// a document other than docID.
func (idx *Index) CheckUnique(docID string, doc domain.Document) error {
	if !idx.Spec.Unique {
		return nil
	}
	for _, key := range idx.Keys(doc) {
		for _, owner := range idx.Inverted[key] {
			if owner != docID {
				return fmt.Errorf("%w: index %s already holds %s for document %s",
					domain.ErrUniquenessViolation, idx.Spec.Name, displayKey(key), owner)
			}
		}
	}
	return nil
}

// BuildIndex indexes all documents in a collection, failing on the first
// duplicate if the index is unique.
func (idx *Index) BuildIndex(collection *domain.Collection) error {
	ids := make([]string, 0, len(collection.Documents))
	for docID := range collection.Documents {
		ids = append(ids, docID)
	}
	sort.Strings(ids)
	for _, docID := range ids {
		doc := collection.Documents[docID]
		if err := idx.CheckUnique(docID, doc); err != nil {
			return err
		}
		idx.add(docID, doc)
	}
	return nil
}

// UpdateIndex updates index after an insert/update/delete operation.
func (idx *Index) UpdateIndex(docID string, oldDoc, newDoc domain.Document) {
	if oldDoc != nil {
		idx.remove(docID)
	}
	if newDoc != nil {
		idx.add(docID, newDoc)
	}
}

// Len returns the number of distinct keys in the index.
func (idx *Index) Len() int {
	return len(idx.Inverted)
}

func (idx *Index) add(docID string, doc domain.Document) {
	keys := idx.Keys(doc)
	for _, key := range keys {
		idx.Inverted[key] = append(idx.Inverted[key], docID)
	}
	idx.byDoc[docID] = keys
}

func (idx *Index) remove(docID string) {
	for _, key := range idx.byDoc[docID] {
		docList := idx.Inverted[key]
		for i, id := range docList {
			if id == docID {
				docList = append(docList[:i], docList[i+1:]...)
				break
			}
		}
		if len(docList) == 0 {
			delete(idx.Inverted, key)
		} else {
			idx.Inverted[key] = docList
		}
	}
	delete(idx.byDoc, docID)
}

// CreateIndex registers an index on a collection without building it.
// Re-registering an identical spec under the same name is a no-op.
func (ie *IndexEngine) CreateIndex(collectionName string, spec domain.IndexSpec) error {
	_, _, err := ie.register(collectionName, spec)
	return err
}

// BuildIndexForCollection registers spec and builds it over collection. It
// reports false when an identical index was already in place.
func (ie *IndexEngine) BuildIndexForCollection(collectionName string, spec domain.IndexSpec, collection *domain.Collection) (bool, error) {
	index, created, err := ie.register(collectionName, spec)
	if err != nil || !created {
		return false, err
	}
	if err := index.BuildIndex(collection); err != nil {
		ie.unregister(collectionName, spec.Name)
		return false, fmt.Errorf("failed to build index %s: %w", spec.Name, err)
	}
	return true, nil
}

func (ie *IndexEngine) register(collectionName string, spec domain.IndexSpec) (*Index, bool, error) {
	if err := spec.Validate(); err != nil {
		return nil, false, err
	}
	coll := ie.indexes[collectionName]
	if coll == nil {
		coll = &collectionIndexes{byName: make(map[string]*Index)}
		ie.indexes[collectionName] = coll
	}

	if existing, exists := coll.byName[spec.Name]; exists {
		if existing.Spec.Equal(spec) {
			return existing, false, nil
		}
		return nil, false, &domain.SchemaConflictError{
			Collection: collectionName,
			Name:       spec.Name,
			Existing:   existing.Spec.String(),
			Wanted:     spec.String(),
		}
	}
	for _, name := range coll.order {
		other := coll.byName[name]
		if other.Spec.SameKeys(spec) {
			return nil, false, &domain.SchemaConflictError{
				Collection: collectionName,
				Name:       spec.Name,
				Existing:   other.Spec.String(),
				Wanted:     spec.String(),
			}
		}
	}

	index := NewIndex(spec)
	coll.byName[spec.Name] = index
	coll.order = append(coll.order, spec.Name)
	return index, true, nil
}

func (ie *IndexEngine) unregister(collectionName, indexName string) {
	coll := ie.indexes[collectionName]
	if coll == nil {
		return
	}
	delete(coll.byName, indexName)
	for i, name := range coll.order {
		if name == indexName {
			coll.order = append(coll.order[:i], coll.order[i+1:]...)
			break
		}
	}
}

// DropIndex removes an index from a collection
func (ie *IndexEngine) DropIndex(collectionName, indexName string) error {
	if _, exists := ie.GetIndex(collectionName, indexName); !exists {
		return fmt.Errorf("%w: %s on collection %s", domain.ErrIndexNotFound, indexName, collectionName)
	}
	ie.unregister(collectionName, indexName)
	return nil
}

// ListIndexes returns the index specs of a collection in creation order.
func (ie *IndexEngine) ListIndexes(collectionName string) ([]domain.IndexSpec, error) {
	coll, exists := ie.indexes[collectionName]
	if !exists {
		return []domain.IndexSpec{}, nil
	}
	specs := make([]domain.IndexSpec, 0, len(coll.order))
	for _, name := range coll.order {
		specs = append(specs, coll.byName[name].Spec)
	}
	return specs, nil
}

// GetIndex returns the named index of a collection.
func (ie *IndexEngine) GetIndex(collectionName, indexName string) (*Index, bool) {
	if coll, exists := ie.indexes[collectionName]; exists {
		if index, exists := coll.byName[indexName]; exists {
			return index, true
		}
	}
	return nil, false
}

// IndexFor picks the index used to answer an equality match of value on
// path. Exact field indexes win over wildcard indexes.
func (ie *IndexEngine) IndexFor(collectionName, path string, value interface{}) (*Index, bool) {
	coll, exists := ie.indexes[collectionName]
	if !exists {
		return nil, false
	}
	var wildcard *Index
	for _, name := range coll.order {
		index := coll.byName[name]
		if !index.Supports(path, value) {
			continue
		}
		if !index.Spec.IsWildcard() {
			return index, true
		}
		if wildcard == nil {
			wildcard = index
		}
	}
	return wildcard, wildcard != nil
}

// CheckDocument runs every unique index of the collection against doc.
func (ie *IndexEngine) CheckDocument(collectionName, docID string, doc domain.Document) error {
	coll, exists := ie.indexes[collectionName]
	if !exists {
		return nil
	}
	for _, name := range coll.order {
		if err := coll.byName[name].CheckUnique(docID, doc); err != nil {
			return err
		}
	}
	return nil
}

// UpdateIndexForDocument updates every index when a document changes
func (ie *IndexEngine) UpdateIndexForDocument(collectionName, docID string, oldDoc, newDoc domain.Document) {
	if coll, exists := ie.indexes[collectionName]; exists {
		for _, index := range coll.byName {
			index.UpdateIndex(docID, oldDoc, newDoc)
		}
	}
}

// RebuildIndexesForCollection rebuilds every registered index from scratch.
func (ie *IndexEngine) RebuildIndexesForCollection(collectionName string, collection *domain.Collection) error {
	coll, exists := ie.indexes[collectionName]
	if !exists {
		return nil
	}
	for _, name := range coll.order {
		index := NewIndex(coll.byName[name].Spec)
		if err := index.BuildIndex(collection); err != nil {
			return fmt.Errorf("failed to rebuild index %s: %w", name, err)
		}
		coll.byName[name] = index
	}
	return nil
}

// ExportSpecs returns every collection's index specs for persistence.
func (ie *IndexEngine) ExportSpecs() map[string][]domain.IndexSpec {
	out := make(map[string][]domain.IndexSpec, len(ie.indexes))
	for collName := range ie.indexes {
		specs, _ := ie.ListIndexes(collName)
		out[collName] = specs
	}
	return out
}

func dedupe(keys []string) []string {
	if len(keys) < 2 {
		return keys
	}
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func displayKey(key string) string {
	key = strings.ReplaceAll(key, pathSeparator, " = ")
	return strings.ReplaceAll(key, compoundSeparator, ", ")
}
