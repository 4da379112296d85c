package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/StarkIndexor/internal/db"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/store/migrations"
)

func newTestStore(t *testing.T) (*EventStore, *sql.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "events.db")
	require.NoError(t, migrations.RunMigrations(dbPath))

	database, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewEventStore(database, logger.NewNopLogger()), database
}

func testEvent(txHash string, logIndex, block uint64, contract, eventType string, ts time.Time) *Event {
	return &Event{
		ID:              EventID(txHash, logIndex),
		ContractAddress: contract,
		EventType:       eventType,
		BlockNumber:     block,
		TransactionHash: txHash,
		LogIndex:        logIndex,
		Timestamp:       ts,
		RawKeys:         []string{"0x99", "0x1"},
		RawData:         []string{"0x64", "0x0"},
		DecodedData:     map[string]any{"value": "100"},
	}
}

func TestInsertBatch_AtomicWithCursor(t *testing.T) {
	store, database := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	events := []*Event{
		testEvent("0xa1", 0, 100, "0x1", "Transfer", ts),
		testEvent("0xa1", 1, 100, "0x1", "Approval", ts),
	}

	inserted, err := store.InsertBatch(ctx, "0x1", events, 105)
	require.NoError(t, err)
	assert.Len(t, inserted, 2)

	last, ok, err := store.GetCursor(ctx, "0x1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(105), last)

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestInsertBatch_ExistingRowWins(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	original := testEvent("0xa1", 0, 100, "0x1", "Transfer", ts)
	_, err := store.InsertBatch(ctx, "0x1", []*Event{original}, 100)
	require.NoError(t, err)

	// same id with different payload plus one genuinely new event
	mutated := testEvent("0xa1", 0, 100, "0x1", "Mutated", ts)
	fresh := testEvent("0xa2", 0, 101, "0x1", "Transfer", ts)

	inserted, err := store.InsertBatch(ctx, "0x1", []*Event{mutated, fresh}, 101)
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, "0xa2:0", inserted[0].ID)

	// the first write is untouched
	conn, err := store.Query(ctx, Filter{TransactionHash: "0xa1"}, Pagination{}, DefaultOrder)
	require.NoError(t, err)
	require.Len(t, conn.Edges, 1)
	assert.Equal(t, "Transfer", conn.Edges[0].Node.EventType)
}

func TestInsertBatch_CursorNeverDecreases(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	_, err := store.InsertBatch(ctx, "0x1", nil, 200)
	require.NoError(t, err)

	_, err = store.InsertBatch(ctx, "0x1", []*Event{testEvent("0xb1", 0, 150, "0x1", "Transfer", ts)}, 150)
	require.NoError(t, err)

	last, ok, err := store.GetCursor(ctx, "0x1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(200), last)
}

func TestGetCursor_NeverSynced(t *testing.T) {
	store, _ := newTestStore(t)

	_, ok, err := store.GetCursor(context.Background(), "0x9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCursors(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.InsertBatch(ctx, "0x2", nil, 50)
	require.NoError(t, err)
	_, err = store.InsertBatch(ctx, "0x1", nil, 80)
	require.NoError(t, err)

	cursors, err := store.Cursors(ctx)
	require.NoError(t, err)
	require.Len(t, cursors, 2)
	assert.Equal(t, "0x1", cursors[0].ContractAddress)
	assert.Equal(t, uint64(80), cursors[0].LastSyncedBlock)
	assert.Equal(t, "0x2", cursors[1].ContractAddress)
}

func TestEvent_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	ev := testEvent("0xc1", 2, 500, "0x1", "Transfer", ts)
	ev.DecodedData = map[string]any{"from": "0x1", "value": "42", "flag": true}

	_, err := store.InsertBatch(ctx, "0x1", []*Event{ev}, 500)
	require.NoError(t, err)

	conn, err := store.Query(ctx, Filter{}, Pagination{}, DefaultOrder)
	require.NoError(t, err)
	require.Len(t, conn.Edges, 1)

	got := conn.Edges[0].Node
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ts, got.Timestamp)
	assert.Equal(t, []string{"0x99", "0x1"}, got.RawKeys)
	assert.Equal(t, []string{"0x64", "0x0"}, got.RawData)
	assert.Equal(t, map[string]any{"from": "0x1", "value": "42", "flag": true}, got.DecodedData)
	assert.Equal(t, uint64(2), got.LogIndex)
}
