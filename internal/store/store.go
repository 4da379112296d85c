package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/russross/meddler"

	"github.com/goran-ethernal/StarkIndexor/internal/db"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
)

const insertEventSQL = `
	INSERT OR IGNORE INTO events
		(id, contract_address, event_type, block_number, transaction_hash, log_index, timestamp, raw_keys, raw_data, decoded_data)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const advanceCursorSQL = `
	INSERT INTO sync_cursors (contract_address, last_synced_block, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(contract_address) DO UPDATE SET
		last_synced_block = MAX(last_synced_block, excluded.last_synced_block),
		updated_at = excluded.updated_at`

// EventStore owns the events and sync_cursors tables.
type EventStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewEventStore wraps an open database handle.
func NewEventStore(database *sql.DB, log *logger.Logger) *EventStore {
	return &EventStore{db: database, log: log}
}

// InsertBatch persists a batch of events and advances the contract's
// cursor to toBlock in one transaction, so a cursor at B always implies
// every event up to B is durable. Rows whose id already exists are left
// untouched; only events actually written this call are returned.
func (s *EventStore) InsertBatch(ctx context.Context, contractAddress string, events []*Event, toBlock uint64) ([]*Event, error) {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	inserted := make([]*Event, 0, len(events))

	for _, ev := range events {
		rawKeys, err := db.StringArrayMeddler{}.PreWrite(ev.RawKeys)
		if err != nil {
			return nil, err
		}
		rawData, err := db.StringArrayMeddler{}.PreWrite(ev.RawData)
		if err != nil {
			return nil, err
		}
		decoded, err := db.JSONMapMeddler{}.PreWrite(ev.DecodedData)
		if err != nil {
			return nil, err
		}

		res, err := tx.ExecContext(ctx, insertEventSQL,
			ev.ID,
			ev.ContractAddress,
			ev.EventType,
			ev.BlockNumber,
			ev.TransactionHash,
			ev.LogIndex,
			ev.Timestamp.UTC().Format(db.UTCTimeFormat),
			rawKeys,
			rawData,
			decoded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert event %s: %w", ev.ID, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			inserted = append(inserted, ev)
		}
	}

	now := time.Now().UTC().Format(db.UTCTimeFormat)
	if _, err := tx.ExecContext(ctx, advanceCursorSQL, contractAddress, toBlock, now); err != nil {
		return nil, fmt.Errorf("failed to advance cursor for %s: %w", contractAddress, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}

	eventsInserted.Add(float64(len(inserted)))
	eventsIgnored.Add(float64(len(events) - len(inserted)))
	insertBatchDuration.Observe(time.Since(start).Seconds())

	s.log.Debugf("persisted batch for %s: %d new, %d duplicate, cursor at %d",
		contractAddress, len(inserted), len(events)-len(inserted), toBlock)

	return inserted, nil
}

// GetCursor returns the contract's last synced block. The second return
// is false when the contract has never synced.
func (s *EventStore) GetCursor(ctx context.Context, contractAddress string) (uint64, bool, error) {
	var last uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_synced_block FROM sync_cursors WHERE contract_address = ?`,
		contractAddress,
	).Scan(&last)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read cursor for %s: %w", contractAddress, err)
	}
	return last, true, nil
}

// Cursors returns every contract's cursor row.
func (s *EventStore) Cursors(ctx context.Context) ([]*SyncCursor, error) {
	var cursors []*SyncCursor
	err := meddler.QueryAll(s.db, &cursors,
		`SELECT * FROM sync_cursors ORDER BY contract_address ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cursors: %w", err)
	}
	return cursors, nil
}
