package rpc

// RawEvent is a single event log as returned by the node.
// Never stored as-is; the sync engine decodes it into an indexed event.
type RawEvent struct {
	// FromAddress is the emitting contract address as the node reports it
	FromAddress string `json:"from_address"`

	// Keys are the 0x-hex event keys; the first one, when present,
	// is the event selector
	Keys []string `json:"keys"`

	// Data are the 0x-hex event data elements
	Data []string `json:"data"`

	// BlockNumber is the block the event was emitted in
	BlockNumber uint64 `json:"block_number"`

	// TransactionHash is the 0x-hex hash of the emitting transaction
	TransactionHash string `json:"transaction_hash"`
}

// EventFilter describes one page request against starknet_getEvents.
type EventFilter struct {
	// FromBlock is the inclusive lower bound of the scanned range
	FromBlock uint64

	// ToBlock is the inclusive upper bound of the scanned range
	ToBlock uint64

	// ContractAddress restricts events to a single emitting contract
	ContractAddress string

	// Keys optionally restricts matched keys per position
	Keys [][]string

	// ChunkSize is the maximum number of events per page
	ChunkSize int

	// ContinuationToken resumes a previous page; empty for the first page
	ContinuationToken string
}

// EventsPage is one page of the node's events response.
// A non-empty ContinuationToken means more pages follow.
type EventsPage struct {
	Events            []RawEvent `json:"events"`
	ContinuationToken string     `json:"continuation_token,omitempty"`
}

// wire types

type blockNumberID struct {
	BlockNumber uint64 `json:"block_number"`
}

type eventsFilterWire struct {
	FromBlock         blockNumberID `json:"from_block"`
	ToBlock           blockNumberID `json:"to_block"`
	Address           string        `json:"address,omitempty"`
	Keys              [][]string    `json:"keys,omitempty"`
	ChunkSize         int           `json:"chunk_size"`
	ContinuationToken string        `json:"continuation_token,omitempty"`
}
