package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adfharrison1/lookupdb/pkg/schema"
	"github.com/adfharrison1/lookupdb/pkg/storage"
)

func TestServer_ApplySchemaAndPersist(t *testing.T) {
	dir := t.TempDir()
	srv := NewServer(zap.NewNop(), schema.Lookup(), storage.WithDataDir(dir), storage.WithDataFile("lookup.lkdb"))

	require.NoError(t, srv.InitDB(""))
	require.NoError(t, srv.ApplySchema(context.Background()))
	require.NoError(t, srv.SaveDB(""))

	restarted := NewServer(zap.NewNop(), schema.Lookup(), storage.WithDataDir(dir), storage.WithDataFile("lookup.lkdb"))
	require.NoError(t, restarted.InitDB(""))

	specs, err := restarted.Engine().ListIndexes(schema.LookupCollection)
	require.NoError(t, err)
	assert.Equal(t, schema.Lookup().Collections[0].Indexes, specs)

	// Applying again after a restart changes nothing
	require.NoError(t, restarted.ApplySchema(context.Background()))
	assert.False(t, restarted.Engine().IsDirty())
}

func TestServer_SaveWithoutDataFile(t *testing.T) {
	srv := NewServer(nil, schema.Lookup())
	assert.NoError(t, srv.InitDB(""))
	assert.Error(t, srv.SaveDB(""))
}

func TestServer_RequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv := NewServer(zap.New(core), schema.Lookup())
	require.NoError(t, srv.ApplySchema(context.Background()))

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/collections", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/collections", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestServer_NotFound(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	srv := NewServer(zap.New(core), schema.Lookup())

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, http.StatusNotFound, body["code"])
	assert.Equal(t, 1, logs.FilterMessage("no route found").Len())
}
