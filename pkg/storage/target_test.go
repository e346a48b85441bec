package storage

import (
	"context"
	"testing"
	"time"

	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaTarget_ListIndexesMissingCollection(t *testing.T) {
	target := NewSchemaTarget(NewStorageEngine())

	specs, err := target.ListIndexes(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestSchemaTarget_CancelledContext(t *testing.T) {
	target := NewSchemaTarget(NewStorageEngine())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := target.CreateCollection(ctx, "lookup")
	assert.ErrorIs(t, err, context.Canceled)
	_, exists := target.Engine().CollectionKind("lookup")
	assert.False(t, exists)
}

func TestSchemaTarget_RecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	target := NewSchemaTarget(newLookupEngine(t))
	archived := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	record := domain.LookupRecord{
		ID:          "r1",
		ArchivalID:  9,
		ArchivedAt:  &archived,
		CreatedAt:   archived.Add(-time.Hour),
		Timestamp:   archived.Add(-2 * time.Hour),
		Identifiers: map[string]interface{}{"PROFILE_ID": []int{100, 200}},
	}
	require.NoError(t, target.InsertRecord(ctx, "lookup", record))

	found, err := target.FindByIdentifier(ctx, "lookup", "PROFILE_ID", 200)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, record, found[0])

	found, err = target.FindByIdentifier(ctx, "lookup", "PROFILE_ID", 300)
	require.NoError(t, err)
	assert.Empty(t, found)
}
