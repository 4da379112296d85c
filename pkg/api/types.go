package api

import (
	"time"

	"github.com/goran-ethernal/StarkIndexor/internal/deployment"
	"github.com/goran-ethernal/StarkIndexor/internal/store"
)

// EventPayload is the JSON shape of one indexed event.
type EventPayload struct {
	ID              string         `json:"id"`
	ContractAddress string         `json:"contract_address"`
	EventType       string         `json:"event_type"`
	BlockNumber     uint64         `json:"block_number"`
	TransactionHash string         `json:"transaction_hash"`
	LogIndex        uint64         `json:"log_index"`
	Timestamp       time.Time      `json:"timestamp"`
	RawKeys         []string       `json:"raw_keys"`
	RawData         []string       `json:"raw_data"`
	DecodedData     map[string]any `json:"decoded_data"`
}

// EventEdge pairs an event with the cursor that resumes after it.
type EventEdge struct {
	Cursor string       `json:"cursor"`
	Node   EventPayload `json:"node"`
}

// PageInfoPayload describes a page's position within the full result.
type PageInfoPayload struct {
	HasNext     bool   `json:"has_next"`
	HasPrevious bool   `json:"has_previous"`
	StartCursor string `json:"start_cursor,omitempty"`
	EndCursor   string `json:"end_cursor,omitempty"`
}

// EventsResponse is one page of events.
type EventsResponse struct {
	Events     []EventEdge     `json:"events"`
	PageInfo   PageInfoPayload `json:"page_info"`
	TotalCount uint64          `json:"total_count"`
}

// BlockRangePayload is an inclusive block number range.
type BlockRangePayload struct {
	Min uint64 `json:"min"`
	Max uint64 `json:"max"`
}

// TimeRangePayload is an inclusive timestamp range.
type TimeRangePayload struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// StatsResponse aggregates filter-matched events.
type StatsResponse struct {
	Total       uint64             `json:"total"`
	ByEventType map[string]uint64  `json:"by_event_type"`
	BlockRange  *BlockRangePayload `json:"block_range,omitempty"`
	TimeRange   *TimeRangePayload  `json:"time_range,omitempty"`
}

// DeploymentPayload is the JSON shape of one deployment catalog entry.
type DeploymentPayload struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	Network           string         `json:"network"`
	Status            string         `json:"status"`
	ContractAddresses []string       `json:"contract_addresses"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func toEventPayload(e *store.Event) EventPayload {
	return EventPayload{
		ID:              e.ID,
		ContractAddress: e.ContractAddress,
		EventType:       e.EventType,
		BlockNumber:     e.BlockNumber,
		TransactionHash: e.TransactionHash,
		LogIndex:        e.LogIndex,
		Timestamp:       e.Timestamp,
		RawKeys:         e.RawKeys,
		RawData:         e.RawData,
		DecodedData:     e.DecodedData,
	}
}

func toEventsResponse(conn *store.EventConnection) EventsResponse {
	resp := EventsResponse{
		Events:     make([]EventEdge, 0, len(conn.Edges)),
		TotalCount: conn.TotalCount,
		PageInfo: PageInfoPayload{
			HasNext:     conn.PageInfo.HasNext,
			HasPrevious: conn.PageInfo.HasPrevious,
			StartCursor: conn.PageInfo.StartCursor,
			EndCursor:   conn.PageInfo.EndCursor,
		},
	}

	for _, edge := range conn.Edges {
		resp.Events = append(resp.Events, EventEdge{
			Cursor: edge.Cursor,
			Node:   toEventPayload(edge.Node),
		})
	}

	return resp
}

func toDeploymentPayload(dep *deployment.Deployment) DeploymentPayload {
	return DeploymentPayload{
		ID:                dep.ID,
		Name:              dep.Name,
		Description:       dep.Description,
		Network:           dep.Network,
		Status:            dep.Status,
		ContractAddresses: dep.ContractAddresses,
		Metadata:          dep.Metadata,
		CreatedAt:         dep.CreatedAt,
		UpdatedAt:         dep.UpdatedAt,
	}
}

func toStatsResponse(stats *store.Stats) StatsResponse {
	resp := StatsResponse{
		Total:       stats.Total,
		ByEventType: stats.ByEventType,
	}
	if stats.BlockRange != nil {
		resp.BlockRange = &BlockRangePayload{Min: stats.BlockRange.Min, Max: stats.BlockRange.Max}
	}
	if stats.TimeRange != nil {
		resp.TimeRange = &TimeRangePayload{Min: stats.TimeRange.Min, Max: stats.TimeRange.Max}
	}
	return resp
}
