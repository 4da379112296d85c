package abi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/rpc"
)

// ErrAbiUnavailable is returned when a contract's class does not expose
// an ABI. The decoder treats affected events as "Unknown".
var ErrAbiUnavailable = errors.New("abi unavailable")

// Source fetches a contract's raw ABI from the node.
// Implemented by rpc.Client.
type Source interface {
	GetAbi(ctx context.Context, contractAddress string) (json.RawMessage, error)
}

// Registry is a per-contract cache of parsed ABIs, fetched lazily on
// first need and kept until explicitly invalidated. Negative results
// (no ABI) are cached too, so a contract without one is not re-fetched
// on every event.
type Registry struct {
	source Source
	log    *logger.Logger

	mu    sync.RWMutex
	cache map[string]*ContractAbi // nil value marks a contract without an ABI
}

// NewRegistry creates a registry backed by the given ABI source.
func NewRegistry(source Source, log *logger.Logger) *Registry {
	return &Registry{
		source: source,
		log:    log,
		cache:  make(map[string]*ContractAbi),
	}
}

// Get returns the parsed ABI for a canonical contract address, fetching
// and caching it on first use. Returns ErrAbiUnavailable when the class
// carries no ABI.
func (r *Registry) Get(ctx context.Context, contractAddress string) (*ContractAbi, error) {
	r.mu.RLock()
	cached, ok := r.cache[contractAddress]
	r.mu.RUnlock()

	if ok {
		if cached == nil {
			return nil, ErrAbiUnavailable
		}
		return cached, nil
	}

	raw, err := r.source.GetAbi(ctx, contractAddress)
	if err != nil {
		if errors.Is(err, rpc.ErrNoAbi) {
			r.log.Warnf("contract %s exposes no abi, events will be stored as Unknown", contractAddress)
			r.store(contractAddress, nil)
			return nil, ErrAbiUnavailable
		}
		return nil, fmt.Errorf("failed to fetch abi for %s: %w", contractAddress, err)
	}

	parsed, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi for %s: %w", contractAddress, err)
	}

	r.log.Debugf("cached abi for %s: %d event schemas", contractAddress, len(parsed.Events))
	r.store(contractAddress, parsed)

	return parsed, nil
}

// Invalidate drops the cached ABI for a contract, forcing a re-fetch on
// the next Get.
func (r *Registry) Invalidate(contractAddress string) {
	r.mu.Lock()
	delete(r.cache, contractAddress)
	r.mu.Unlock()
}

// store is last-writer-wins; concurrent fetches produce identical
// payloads, so races are idempotent.
func (r *Registry) store(contractAddress string, parsed *ContractAbi) {
	r.mu.Lock()
	r.cache[contractAddress] = parsed
	r.mu.Unlock()
}
