package storage

import (
	"testing"
	"time"

	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	lookupValues     = domain.IndexSpec{Name: "lookup_values", Keys: domain.Ascending("identifiers.$**")}
	archivalIDUnique = domain.IndexSpec{Name: "archivalId_unique", Keys: domain.Ascending("archivalId"), Unique: true}
)

func newLookupEngine(t *testing.T) *StorageEngine {
	t.Helper()
	engine := NewStorageEngine()
	t.Cleanup(engine.StopBackgroundWorkers)
	require.NoError(t, engine.CreateCollection("lookup"))
	require.NoError(t, engine.CreateIndex("lookup", lookupValues))
	require.NoError(t, engine.CreateIndex("lookup", archivalIDUnique))
	return engine
}

func TestNewStorageEngine(t *testing.T) {
	tests := []struct {
		name           string
		options        []StorageOption
		dataDir        string
		dataFile       string
		backgroundSave bool
		saveInterval   time.Duration
	}{
		{
			name:         "default options",
			dataDir:      ".",
			saveInterval: 5 * time.Minute,
		},
		{
			name: "custom options",
			options: []StorageOption{
				WithDataDir("/tmp"),
				WithDataFile("lookup.lkdb"),
				WithBackgroundSave(1 * time.Minute),
				WithLogger(zap.NewNop()),
			},
			dataDir:        "/tmp",
			dataFile:       "/tmp/lookup.lkdb",
			backgroundSave: true,
			saveInterval:   1 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewStorageEngine(tt.options...)
			defer engine.StopBackgroundWorkers()

			assert.Equal(t, tt.dataDir, engine.dataDir)
			assert.Equal(t, tt.dataFile, engine.DataFilePath())
			assert.Equal(t, tt.backgroundSave, engine.backgroundSave)
			assert.Equal(t, tt.saveInterval, engine.saveInterval)
			assert.NotNil(t, engine.collections)
			assert.NotNil(t, engine.indexEngine)
			assert.NotNil(t, engine.logger)
			assert.False(t, engine.IsDirty())
		})
	}
}

func TestStorageEngine_CreateCollection(t *testing.T) {
	engine := NewStorageEngine()

	require.NoError(t, engine.CreateCollection("lookup"))

	err := engine.CreateCollection("lookup")
	assert.ErrorIs(t, err, domain.ErrCollectionExists)

	err = engine.CreateCollection("")
	assert.Error(t, err)

	kind, exists := engine.CollectionKind("lookup")
	assert.True(t, exists)
	assert.Equal(t, domain.KindCollection, kind)

	_, exists = engine.CollectionKind("missing")
	assert.False(t, exists)
	assert.True(t, engine.IsDirty())
}

func TestStorageEngine_Views(t *testing.T) {
	engine := NewStorageEngine()
	require.NoError(t, engine.CreateCollection("archive"))
	require.NoError(t, engine.CreateView("lookup", "archive"))

	kind, exists := engine.CollectionKind("lookup")
	require.True(t, exists)
	assert.Equal(t, domain.KindView, kind)

	_, err := engine.Insert("lookup", domain.Document{"archivalId": 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot insert into view")

	err = engine.CreateIndex("lookup", lookupValues)
	assert.Error(t, err)

	// Reads through the view see the source documents
	_, err = engine.Insert("archive", domain.Document{"_id": "r1", "archivalId": 1})
	require.NoError(t, err)
	docs, _, err := engine.Find("lookup", map[string]interface{}{"archivalId": 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "r1", docs[0]["_id"])

	err = engine.CreateView("lookup", "archive")
	assert.ErrorIs(t, err, domain.ErrCollectionExists)
}

func TestStorageEngine_Insert(t *testing.T) {
	engine := newLookupEngine(t)

	original := domain.Document{"archivalId": int64(1), "identifiers": map[string]interface{}{"CHECK_ID": 1}}
	id, err := engine.Insert("lookup", original)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	_, mutated := original["_id"]
	assert.False(t, mutated, "caller's document must not be modified")

	doc, err := engine.GetById("lookup", id)
	require.NoError(t, err)
	assert.Equal(t, id, doc["_id"])

	// Explicit ids are kept, and reusing one is a uniqueness violation
	_, err = engine.Insert("lookup", domain.Document{"_id": "fixed", "archivalId": int64(2)})
	require.NoError(t, err)
	_, err = engine.Insert("lookup", domain.Document{"_id": "fixed", "archivalId": int64(3)})
	assert.ErrorIs(t, err, domain.ErrUniquenessViolation)

	// Inserting into a missing collection creates it
	_, err = engine.Insert("other", domain.Document{"k": "v"})
	require.NoError(t, err)
	kind, exists := engine.CollectionKind("other")
	assert.True(t, exists)
	assert.Equal(t, domain.KindCollection, kind)
}

func TestStorageEngine_UniqueArchivalID(t *testing.T) {
	engine := newLookupEngine(t)

	_, err := engine.Insert("lookup", domain.Document{"_id": "a", "archivalId": int64(42)})
	require.NoError(t, err)

	_, err = engine.Insert("lookup", domain.Document{"_id": "b", "archivalId": int64(42)})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUniquenessViolation)
	assert.Contains(t, err.Error(), "archivalId_unique")

	// The rejected document left no trace in any index
	docs, plan, err := engine.Find("lookup", map[string]interface{}{"archivalId": 42})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "archivalId_unique", plan.IndexName)

	_, err = engine.GetById("lookup", "b")
	assert.Error(t, err)
}

func TestStorageEngine_FindUsesWildcardIndex(t *testing.T) {
	engine := newLookupEngine(t)

	_, err := engine.Insert("lookup", domain.Document{
		"_id":         "r1",
		"archivalId":  int64(1),
		"identifiers": map[string]interface{}{"a": map[string]interface{}{"b": "x"}, "c": "y"},
	})
	require.NoError(t, err)
	_, err = engine.Insert("lookup", domain.Document{
		"_id":         "r2",
		"archivalId":  int64(2),
		"identifiers": map[string]interface{}{"c": "z"},
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter map[string]interface{}
		want   []string
		index  string
	}{
		{name: "nested leaf", filter: map[string]interface{}{"identifiers.a.b": "x"}, want: []string{"r1"}, index: "lookup_values"},
		{name: "top level leaf", filter: map[string]interface{}{"identifiers.c": "y"}, want: []string{"r1"}, index: "lookup_values"},
		{name: "no match", filter: map[string]interface{}{"identifiers.c": "nope"}, want: nil, index: "lookup_values"},
		{name: "unindexed field", filter: map[string]interface{}{"timestamp": nil}, want: []string{"r1", "r2"}, index: ""},
		{name: "subdocument scans", filter: map[string]interface{}{"identifiers.a": map[string]interface{}{"b": "x"}}, want: []string{"r1"}, index: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, plan, err := engine.Find("lookup", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.index, plan.IndexName)

			var ids []string
			for _, doc := range docs {
				ids = append(ids, doc["_id"].(string))
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStorageEngine_InsertDetachesCallerDocument(t *testing.T) {
	engine := newLookupEngine(t)

	tags := []interface{}{"p"}
	identifiers := map[string]interface{}{"a": map[string]interface{}{"b": "x"}, "tags": tags}
	doc := domain.Document{"_id": "r1", "archivalId": int64(1), "identifiers": identifiers}
	_, err := engine.Insert("lookup", doc)
	require.NoError(t, err)

	identifiers["a"].(map[string]interface{})["b"] = "changed"
	identifiers["c"] = "added"
	tags[0] = "changed"
	doc["archivalId"] = int64(2)

	docs, plan, err := engine.Find("lookup", map[string]interface{}{"identifiers.a.b": "x"})
	require.NoError(t, err)
	assert.Equal(t, "lookup_values", plan.IndexName)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(1), docs[0]["archivalId"])

	for _, filter := range []map[string]interface{}{
		{"identifiers.a.b": "changed"},
		{"identifiers.c": "added"},
		{"identifiers.tags": "changed"},
	} {
		docs, _, err := engine.Find("lookup", filter)
		require.NoError(t, err)
		assert.Empty(t, docs, "filter %v", filter)
	}

	docs, _, err = engine.Find("lookup", map[string]interface{}{"identifiers.tags": "p"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStorageEngine_DeleteById(t *testing.T) {
	engine := newLookupEngine(t)

	_, err := engine.Insert("lookup", domain.Document{"_id": "a", "archivalId": int64(7)})
	require.NoError(t, err)
	require.NoError(t, engine.DeleteById("lookup", "a"))

	// The unique key is released
	_, err = engine.Insert("lookup", domain.Document{"_id": "b", "archivalId": int64(7)})
	assert.NoError(t, err)

	err = engine.DeleteById("lookup", "a")
	assert.Error(t, err)
}

func TestStorageEngine_CreateIndexOnExistingDuplicates(t *testing.T) {
	engine := NewStorageEngine()
	require.NoError(t, engine.CreateCollection("lookup"))
	_, err := engine.Insert("lookup", domain.Document{"archivalId": 1})
	require.NoError(t, err)
	_, err = engine.Insert("lookup", domain.Document{"archivalId": 1})
	require.NoError(t, err)

	err = engine.CreateIndex("lookup", archivalIDUnique)
	assert.ErrorIs(t, err, domain.ErrUniquenessViolation)

	specs, err := engine.ListIndexes("lookup")
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestStorageEngine_ListCollections(t *testing.T) {
	engine := newLookupEngine(t)
	require.NoError(t, engine.CreateView("lookup_view", "lookup"))

	infos := engine.ListCollections()
	require.Len(t, infos, 2)
	assert.Equal(t, domain.CollectionInfo{Name: "lookup", Kind: domain.KindCollection, IndexCount: 2}, infos[0])
	assert.Equal(t, domain.CollectionInfo{Name: "lookup_view", Kind: domain.KindView, ViewOn: "lookup"}, infos[1])
}
