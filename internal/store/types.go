// Package store persists indexed events and per-contract sync cursors in
// SQLite and serves filtered, cursor-paginated reads over them.
package store

import (
	"fmt"
	"time"
)

// Event is one indexed, decoded contract event. The raw key and data
// arrays are always kept verbatim next to the decoded payload.
type Event struct {
	ID              string         `meddler:"id"`
	ContractAddress string         `meddler:"contract_address"`
	EventType       string         `meddler:"event_type"`
	BlockNumber     uint64         `meddler:"block_number"`
	TransactionHash string         `meddler:"transaction_hash"`
	LogIndex        uint64         `meddler:"log_index"`
	Timestamp       time.Time      `meddler:"timestamp,utctime"`
	RawKeys         []string       `meddler:"raw_keys,jsonarray"`
	RawData         []string       `meddler:"raw_data,jsonarray"`
	DecodedData     map[string]any `meddler:"decoded_data,jsonmap"`
}

// EventID builds the deterministic primary key for an event. Duplicate
// deliveries of the same event collapse onto one row.
func EventID(transactionHash string, logIndex uint64) string {
	return fmt.Sprintf("%s:%d", transactionHash, logIndex)
}

// SyncCursor records the highest fully persisted block for a contract.
type SyncCursor struct {
	ContractAddress string    `meddler:"contract_address"`
	LastSyncedBlock uint64    `meddler:"last_synced_block"`
	UpdatedAt       time.Time `meddler:"updated_at,utctime"`
}

// Filter narrows event reads. Zero-valued fields impose no constraint.
// Block and timestamp bounds are inclusive.
type Filter struct {
	ContractAddresses []string
	EventTypes        []string
	// EventKeys matches events whose raw keys contain any of these felts
	EventKeys       []string
	FromBlock       *uint64
	ToBlock         *uint64
	FromTimestamp   *time.Time
	ToTimestamp     *time.Time
	TransactionHash string
}

// Order is the primary sort for event reads. Ties break by id ascending,
// so every order is total and cursor-stable.
type Order string

const (
	OrderBlockNumberAsc  Order = "BLOCK_NUMBER_ASC"
	OrderBlockNumberDesc Order = "BLOCK_NUMBER_DESC"
	OrderTimestampAsc    Order = "TIMESTAMP_ASC"
	OrderTimestampDesc   Order = "TIMESTAMP_DESC"

	DefaultOrder = OrderBlockNumberDesc
)

// Pagination selects a page. After is an opaque cursor from a previous
// page; the page starts strictly after it.
type Pagination struct {
	First int
	After string
}

const (
	// DefaultPageSize applies when Pagination.First is zero
	DefaultPageSize = 50
	// MaxPageSize is the hard cap on a single page
	MaxPageSize = 1000
)

// Edge pairs an event with the cursor that resumes after it.
type Edge struct {
	Node   *Event
	Cursor string
}

// PageInfo describes a page's position within the full result.
type PageInfo struct {
	HasNext     bool
	HasPrevious bool
	StartCursor string
	EndCursor   string
}

// EventConnection is one page of filtered events plus the total number
// of rows the filter matches.
type EventConnection struct {
	Edges      []Edge
	PageInfo   PageInfo
	TotalCount uint64
}

// Stats aggregates filter-matched events. Block and time ranges are nil
// when no rows match.
type Stats struct {
	Total       uint64
	ByEventType map[string]uint64
	BlockRange  *BlockRange
	TimeRange   *TimeRange
}

type BlockRange struct {
	Min uint64
	Max uint64
}

type TimeRange struct {
	Min time.Time
	Max time.Time
}
