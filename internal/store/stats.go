package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goran-ethernal/StarkIndexor/internal/db"
)

// EventStats aggregates the filter-matched events: total, per-type
// counts, and the covered block and time ranges.
func (s *EventStore) EventStats(ctx context.Context, filter Filter) (*Stats, error) {
	where, args := buildFilter(filter)

	summaryQuery := `SELECT COUNT(*), MIN(block_number), MAX(block_number), MIN(timestamp), MAX(timestamp) FROM events` +
		whereClause(where)

	var (
		total              uint64
		minBlock, maxBlock sql.NullInt64
		minTime, maxTime   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, summaryQuery, args...).
		Scan(&total, &minBlock, &maxBlock, &minTime, &maxTime)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate events: %w", err)
	}

	stats := &Stats{
		Total:       total,
		ByEventType: make(map[string]uint64),
	}

	if minBlock.Valid && maxBlock.Valid {
		stats.BlockRange = &BlockRange{
			Min: uint64(minBlock.Int64),
			Max: uint64(maxBlock.Int64),
		}
	}

	if minTime.Valid && maxTime.Valid {
		minT, err := time.Parse(db.UTCTimeFormat, minTime.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored timestamp %q: %w", minTime.String, err)
		}
		maxT, err := time.Parse(db.UTCTimeFormat, maxTime.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored timestamp %q: %w", maxTime.String, err)
		}
		stats.TimeRange = &TimeRange{Min: minT, Max: maxT}
	}

	byTypeQuery := `SELECT event_type, COUNT(*) FROM events` + whereClause(where) + ` GROUP BY event_type`
	rows, err := s.db.QueryContext(ctx, byTypeQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count events by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventType string
			count     uint64
		)
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		stats.ByEventType[eventType] = count
	}

	return stats, rows.Err()
}
