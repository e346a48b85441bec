package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageEngine_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup"+FileExtension)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	engine1 := newLookupEngine(t)
	require.NoError(t, engine1.CreateView("lookup_view", "lookup"))
	_, err := engine1.Insert("lookup", domain.LookupRecord{
		ID:          "common_rules_executor_-=-_10000001_-=-_CALCULATION_REQUEST",
		ArchivalID:  1,
		CreatedAt:   created,
		Timestamp:   created,
		Identifiers: map[string]interface{}{"CHECK_ID": int64(55555555), "USER_ID": []interface{}{int64(1), int64(2)}},
	}.ToDocument())
	require.NoError(t, err)
	require.True(t, engine1.IsDirty())

	require.NoError(t, engine1.SaveToFile(path))
	assert.False(t, engine1.IsDirty())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(12))

	engine2 := NewStorageEngine()
	require.NoError(t, engine2.LoadFromFile(path))
	assert.False(t, engine2.IsDirty())

	specs, err := engine2.ListIndexes("lookup")
	require.NoError(t, err)
	assert.Equal(t, []domain.IndexSpec{lookupValues, archivalIDUnique}, specs)

	kind, exists := engine2.CollectionKind("lookup_view")
	require.True(t, exists)
	assert.Equal(t, domain.KindView, kind)

	// Index contents are rebuilt from the documents
	docs, plan, err := engine2.Find("lookup", map[string]interface{}{"identifiers.USER_ID": 2})
	require.NoError(t, err)
	assert.Equal(t, "lookup_values", plan.IndexName)
	require.Len(t, docs, 1)
	createdAt, ok := docs[0]["createdAt"].(time.Time)
	require.True(t, ok)
	assert.True(t, created.Equal(createdAt))

	// Unique constraints survive the round trip
	_, err = engine2.Insert("lookup", domain.Document{"archivalId": 1})
	assert.ErrorIs(t, err, domain.ErrUniquenessViolation)
}

func TestStorageEngine_LoadMissingFile(t *testing.T) {
	engine := NewStorageEngine()
	err := engine.LoadFromFile(filepath.Join(t.TempDir(), "missing.lkdb"))
	assert.NoError(t, err)
	assert.Empty(t, engine.ListCollections())
}

func TestStorageEngine_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.lkdb")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot at all"), 0644))

	engine := NewStorageEngine()
	err := engine.LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file header")
}

func TestStorageEngine_BackgroundSave(t *testing.T) {
	dir := t.TempDir()
	engine := NewStorageEngine(
		WithDataDir(dir),
		WithDataFile("lookup.lkdb"),
		WithBackgroundSave(20*time.Millisecond),
	)
	engine.StartBackgroundWorkers()
	defer engine.StopBackgroundWorkers()

	require.NoError(t, engine.CreateCollection("lookup"))
	require.NoError(t, engine.CreateIndex("lookup", archivalIDUnique))

	require.Eventually(t, func() bool {
		return !engine.IsDirty()
	}, 2*time.Second, 10*time.Millisecond)

	reloaded := NewStorageEngine()
	require.NoError(t, reloaded.LoadFromFile(filepath.Join(dir, "lookup.lkdb")))
	specs, err := reloaded.ListIndexes("lookup")
	require.NoError(t, err)
	assert.Equal(t, []domain.IndexSpec{archivalIDUnique}, specs)
}

func TestStorageEngine_StopBackgroundWorkersTwice(t *testing.T) {
	engine := NewStorageEngine(WithDataFile("x.lkdb"), WithDataDir(t.TempDir()), WithBackgroundSave(time.Hour))
	engine.StartBackgroundWorkers()
	engine.StopBackgroundWorkers()
	engine.StopBackgroundWorkers()
}
