// Package decoder turns raw Starknet event key/data felt arrays into typed
// values using the schemas parsed from a contract's ABI.
package decoder

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/goran-ethernal/StarkIndexor/internal/abi"
)

// EventTypeUnknown marks events no schema could decode. The raw key and
// data arrays are always stored alongside, so nothing is lost.
const EventTypeUnknown = "Unknown"

// DecodedEvent is the outcome of decoding one raw event.
type DecodedEvent struct {
	EventType string
	Data      map[string]any
}

// Unknown returns the fallback result for an undecodable event.
func Unknown() *DecodedEvent {
	return &DecodedEvent{EventType: EventTypeUnknown, Data: map[string]any{}}
}

// Decode matches a raw event against the contract's schemas and decodes
// it. keys[0] carries the event selector; the remaining keys and the
// data array feed two independent cursors, and a candidate only matches
// when it consumes both exactly. When several candidates match, the one
// with more fields wins, then more key fields, then the lexicographically
// smaller name. Events nothing matches come back as Unknown.
func Decode(contractAbi *abi.ContractAbi, keys, data []string) *DecodedEvent {
	if contractAbi == nil || len(keys) == 0 {
		return Unknown()
	}

	keyFelts, err := parseFelts(keys[1:])
	if err != nil {
		return Unknown()
	}
	dataFelts, err := parseFelts(data)
	if err != nil {
		return Unknown()
	}

	candidates := contractAbi.BySelector(abi.NormalizeKey(keys[0]))

	type match struct {
		schema *abi.EventSchema
		values map[string]any
	}
	var matches []match

	for _, schema := range candidates {
		values, err := decodeCandidate(schema, keyFelts, dataFelts)
		if err != nil {
			continue
		}
		matches = append(matches, match{schema: schema, values: values})
	}

	if len(matches) == 0 {
		return Unknown()
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].schema, matches[j].schema
		if len(a.Fields) != len(b.Fields) {
			return len(a.Fields) > len(b.Fields)
		}
		if a.KeyFieldCount() != b.KeyFieldCount() {
			return a.KeyFieldCount() > b.KeyFieldCount()
		}
		return a.Name < b.Name
	})

	return &DecodedEvent{EventType: matches[0].schema.Name, Data: matches[0].values}
}

// decodeCandidate runs the dual-cursor decode for one schema. Key fields
// consume the key stream, data fields the data stream; any remainder on
// either stream rejects the candidate.
func decodeCandidate(schema *abi.EventSchema, keyFelts, dataFelts []*big.Int) (map[string]any, error) {
	keyReader := &feltReader{felts: keyFelts}
	dataReader := &feltReader{felts: dataFelts}

	values := make(map[string]any, len(schema.Fields))

	for _, field := range schema.Fields {
		reader := dataReader
		if field.IsKey {
			reader = keyReader
		}

		v, err := decodeValue(field.Type, reader)
		if err != nil {
			return nil, err
		}
		values[field.Name] = v
	}

	if !keyReader.done() {
		return nil, fmt.Errorf("%d unconsumed key felts", keyReader.remaining())
	}
	if !dataReader.done() {
		return nil, fmt.Errorf("%d unconsumed data felts", dataReader.remaining())
	}

	return values, nil
}

type feltReader struct {
	felts []*big.Int
	pos   int
}

func (r *feltReader) next() (*big.Int, error) {
	if r.pos >= len(r.felts) {
		return nil, fmt.Errorf("felt stream exhausted at position %d", r.pos)
	}
	f := r.felts[r.pos]
	r.pos++
	return f, nil
}

func (r *feltReader) done() bool {
	return r.pos == len(r.felts)
}

func (r *feltReader) remaining() int {
	return len(r.felts) - r.pos
}

func parseFelts(hexes []string) ([]*big.Int, error) {
	felts := make([]*big.Int, 0, len(hexes))
	for _, h := range hexes {
		s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(h), "0x"), "0X")
		n, ok := new(big.Int).SetString(s, 16)
		if !ok {
			return nil, fmt.Errorf("invalid felt %q", h)
		}
		felts = append(felts, n)
	}
	return felts, nil
}
