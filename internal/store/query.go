package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/russross/meddler"

	"github.com/goran-ethernal/StarkIndexor/internal/abi"
	"github.com/goran-ethernal/StarkIndexor/internal/address"
	"github.com/goran-ethernal/StarkIndexor/internal/db"
)

// ErrInvalidCursor is returned when a pagination cursor cannot be read.
var ErrInvalidCursor = errors.New("invalid cursor")

// Query reads one page of filter-matched events under the given order.
// The returned cursors are opaque and only valid for the same order.
func (s *EventStore) Query(ctx context.Context, filter Filter, page Pagination, order Order) (*EventConnection, error) {
	start := time.Now()
	defer func() { queryDuration.Observe(time.Since(start).Seconds()) }()

	if order == "" {
		order = DefaultOrder
	}
	sortColumn, ascending, err := orderSpec(order)
	if err != nil {
		return nil, err
	}

	first := page.First
	if first <= 0 {
		first = DefaultPageSize
	}
	if first > MaxPageSize {
		first = MaxPageSize
	}

	where, args := buildFilter(filter)

	// count and page read from the same snapshot
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin query transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	totalQuery := "SELECT COUNT(*) FROM events" + whereClause(where)
	var total uint64
	if err := tx.QueryRowContext(ctx, totalQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	pageWhere := where
	pageArgs := args

	if page.After != "" {
		sortStr, lastID, err := decodeCursor(page.After)
		if err != nil {
			return nil, err
		}

		var sortVal any = sortStr
		if sortColumn == "block_number" {
			block, err := strconv.ParseUint(sortStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w %q", ErrInvalidCursor, page.After)
			}
			sortVal = block
		}

		cmp := ">"
		if !ascending {
			cmp = "<"
		}
		pageWhere = append(pageWhere, fmt.Sprintf(
			"(%s %s ? OR (%s = ? AND id > ?))", sortColumn, cmp, sortColumn))
		pageArgs = append(pageArgs, sortVal, sortVal, lastID)
	}

	direction := "ASC"
	if !ascending {
		direction = "DESC"
	}

	query := fmt.Sprintf("SELECT * FROM events%s ORDER BY %s %s, id ASC LIMIT ?",
		whereClause(pageWhere), sortColumn, direction)
	pageArgs = append(pageArgs, first+1)

	var rows []*Event
	if err := meddler.QueryAll(tx, &rows, query, pageArgs...); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	hasNext := len(rows) > first
	if hasNext {
		rows = rows[:first]
	}

	conn := &EventConnection{
		TotalCount: total,
		PageInfo: PageInfo{
			HasNext:     hasNext,
			HasPrevious: page.After != "",
		},
	}

	for _, row := range rows {
		conn.Edges = append(conn.Edges, Edge{
			Node:   row,
			Cursor: encodeCursor(sortColumn, row),
		})
	}

	if len(conn.Edges) > 0 {
		conn.PageInfo.StartCursor = conn.Edges[0].Cursor
		conn.PageInfo.EndCursor = conn.Edges[len(conn.Edges)-1].Cursor
	}

	return conn, nil
}

// orderSpec maps an Order to its sort column and direction.
func orderSpec(order Order) (column string, ascending bool, err error) {
	switch order {
	case OrderBlockNumberAsc:
		return "block_number", true, nil
	case OrderBlockNumberDesc:
		return "block_number", false, nil
	case OrderTimestampAsc:
		return "timestamp", true, nil
	case OrderTimestampDesc:
		return "timestamp", false, nil
	default:
		return "", false, fmt.Errorf("unknown order %q", order)
	}
}

// buildFilter translates a Filter into WHERE fragments and their args.
func buildFilter(filter Filter) (clauses []string, args []any) {
	if len(filter.ContractAddresses) > 0 {
		placeholders := make([]string, 0, len(filter.ContractAddresses))
		for _, a := range filter.ContractAddresses {
			canonical, err := address.Normalize(a)
			if err != nil {
				// an unparseable address matches nothing, keep it as given
				canonical = a
			}
			placeholders = append(placeholders, "?")
			args = append(args, canonical)
		}
		clauses = append(clauses, "contract_address IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.EventTypes) > 0 {
		placeholders := make([]string, 0, len(filter.EventTypes))
		for _, t := range filter.EventTypes {
			placeholders = append(placeholders, "?")
			args = append(args, t)
		}
		clauses = append(clauses, "event_type IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.EventKeys) > 0 {
		// raw_keys holds felts exactly as the node returned them, so
		// compare each element with the 0x prefix, case, and leading
		// zeros stripped
		matches := make([]string, 0, len(filter.EventKeys))
		for _, k := range filter.EventKeys {
			matches = append(matches,
				"EXISTS (SELECT 1 FROM json_each(events.raw_keys) WHERE ltrim(lower(substr(json_each.value, 3)), '0') = ?)")
			args = append(args, strings.TrimLeft(strings.TrimPrefix(abi.NormalizeKey(k), "0x"), "0"))
		}
		clauses = append(clauses, "("+strings.Join(matches, " OR ")+")")
	}

	if filter.FromBlock != nil {
		clauses = append(clauses, "block_number >= ?")
		args = append(args, *filter.FromBlock)
	}
	if filter.ToBlock != nil {
		clauses = append(clauses, "block_number <= ?")
		args = append(args, *filter.ToBlock)
	}

	if filter.FromTimestamp != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.FromTimestamp.UTC().Format(db.UTCTimeFormat))
	}
	if filter.ToTimestamp != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.ToTimestamp.UTC().Format(db.UTCTimeFormat))
	}

	if filter.TransactionHash != "" {
		clauses = append(clauses, "transaction_hash = ?")
		args = append(args, filter.TransactionHash)
	}

	return clauses, args
}

func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

// encodeCursor captures a row's position under the current sort as
// base64("sortvalue|id").
func encodeCursor(sortColumn string, ev *Event) string {
	var sortVal string
	if sortColumn == "block_number" {
		sortVal = strconv.FormatUint(ev.BlockNumber, 10)
	} else {
		sortVal = ev.Timestamp.UTC().Format(db.UTCTimeFormat)
	}
	return base64.StdEncoding.EncodeToString([]byte(sortVal + "|" + ev.ID))
}

func decodeCursor(cursor string) (sortVal string, id string, err error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w %q", ErrInvalidCursor, cursor)
	}

	return parts[0], parts[1], nil
}
