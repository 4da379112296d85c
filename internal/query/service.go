// Package query is the language-agnostic read surface over the event
// store, sync cursors, deployment catalog, and realtime fabric. HTTP or
// GraphQL layers translate their requests into calls on this service.
package query

import (
	"context"
	"fmt"

	"github.com/goran-ethernal/StarkIndexor/internal/address"
	"github.com/goran-ethernal/StarkIndexor/internal/deployment"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/realtime"
	"github.com/goran-ethernal/StarkIndexor/internal/store"
)

// ChainReader is the single node call the service needs.
type ChainReader interface {
	LatestBlock(ctx context.Context) (uint64, error)
}

// ContractSyncStatus describes one contract's sync progress.
type ContractSyncStatus struct {
	Address         string  `json:"address"`
	LastSyncedBlock uint64  `json:"last_synced_block"`
	BlocksBehind    uint64  `json:"blocks_behind"`
	Pct             float64 `json:"pct"`
}

// SyncStatus is the overall sync picture.
type SyncStatus struct {
	LatestChainBlock uint64               `json:"latest_chain_block"`
	Contracts        []ContractSyncStatus `json:"contracts"`
}

// unmatchableAddress is above the contract address range, so no indexed
// event ever carries it.
const unmatchableAddress = "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

// Service implements the query operations.
type Service struct {
	store       *store.EventStore
	fabric      *realtime.Fabric
	deployments *deployment.Gateway
	chain       ChainReader
	log         *logger.Logger
}

// NewService wires the read surface together.
func NewService(
	eventStore *store.EventStore,
	fabric *realtime.Fabric,
	deployments *deployment.Gateway,
	chain ChainReader,
	log *logger.Logger,
) *Service {
	return &Service{
		store:       eventStore,
		fabric:      fabric,
		deployments: deployments,
		chain:       chain,
		log:         log,
	}
}

// Events returns one page of filter-matched events.
func (s *Service) Events(ctx context.Context, filter store.Filter, page store.Pagination, order store.Order) (*store.EventConnection, error) {
	normalized, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.store.Query(ctx, normalized, page, order)
}

// EventStats aggregates filter-matched events.
func (s *Service) EventStats(ctx context.Context, filter store.Filter) (*store.Stats, error) {
	normalized, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.store.EventStats(ctx, normalized)
}

// SyncStatus reports how far each contract is behind the chain head.
// A non-empty address set narrows the report.
func (s *Service) SyncStatus(ctx context.Context, contractAddresses []string) (*SyncStatus, error) {
	scope, err := address.NormalizeSet(contractAddresses)
	if err != nil {
		return nil, err
	}

	latest, err := s.chain.LatestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest block: %w", err)
	}

	cursors, err := s.store.Cursors(ctx)
	if err != nil {
		return nil, err
	}

	scopeSet := make(map[string]bool, len(scope))
	for _, a := range scope {
		scopeSet[a] = true
	}

	status := &SyncStatus{LatestChainBlock: latest}
	for _, cursor := range cursors {
		if len(scopeSet) > 0 && !scopeSet[cursor.ContractAddress] {
			continue
		}

		entry := ContractSyncStatus{
			Address:         cursor.ContractAddress,
			LastSyncedBlock: cursor.LastSyncedBlock,
		}
		if latest > cursor.LastSyncedBlock {
			entry.BlocksBehind = latest - cursor.LastSyncedBlock
		}
		if latest == 0 {
			entry.Pct = 100
		} else {
			entry.Pct = float64(cursor.LastSyncedBlock) / float64(latest) * 100
		}

		status.Contracts = append(status.Contracts, entry)
	}

	return status, nil
}

// SubscribeEvents opens a realtime stream for events matching the filter.
func (s *Service) SubscribeEvents(filter realtime.Filter) *realtime.Subscription {
	return s.fabric.Subscribe(filter)
}

// Deployments lists catalog entries, optionally narrowed by status.
func (s *Service) Deployments(ctx context.Context, status string) ([]*deployment.Deployment, error) {
	return s.deployments.List(ctx, status)
}

// Deployment returns one catalog entry or deployment.ErrNotFound.
func (s *Service) Deployment(ctx context.Context, id string) (*deployment.Deployment, error) {
	return s.deployments.Get(ctx, id)
}

// DeploymentEvents is Events scoped to a deployment's contract set. A
// user-supplied address set intersects with the deployment's; an empty
// intersection yields an empty page, not an error.
func (s *Service) DeploymentEvents(ctx context.Context, deploymentID string, filter store.Filter, page store.Pagination, order store.Order) (*store.EventConnection, error) {
	scoped, empty, err := s.scopeFilter(ctx, deploymentID, filter)
	if err != nil {
		return nil, err
	}
	if empty {
		return &store.EventConnection{}, nil
	}
	return s.store.Query(ctx, scoped, page, order)
}

// DeploymentEventStats is EventStats scoped to a deployment.
func (s *Service) DeploymentEventStats(ctx context.Context, deploymentID string, filter store.Filter) (*store.Stats, error) {
	scoped, empty, err := s.scopeFilter(ctx, deploymentID, filter)
	if err != nil {
		return nil, err
	}
	if empty {
		return &store.Stats{ByEventType: map[string]uint64{}}, nil
	}
	return s.store.EventStats(ctx, scoped)
}

// DeploymentSyncStatus is SyncStatus scoped to a deployment's contracts.
func (s *Service) DeploymentSyncStatus(ctx context.Context, deploymentID string) (*SyncStatus, error) {
	dep, err := s.deployments.Get(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	return s.SyncStatus(ctx, dep.ContractAddresses)
}

// DeploymentSubscribeEvents opens a stream scoped to a deployment's
// contracts intersected with the filter's own address set.
func (s *Service) DeploymentSubscribeEvents(ctx context.Context, deploymentID string, filter realtime.Filter) (*realtime.Subscription, error) {
	dep, err := s.deployments.Get(ctx, deploymentID)
	if err != nil {
		return nil, err
	}

	scoped, empty, err := intersectAddresses(filter.ContractAddresses, dep.ContractAddresses)
	if err != nil {
		return nil, err
	}
	if empty {
		// a valid stream that can never match anything
		scoped = []string{unmatchableAddress}
	}

	filter.ContractAddresses = scoped
	return s.fabric.Subscribe(filter), nil
}

// scopeFilter intersects a filter's address set with a deployment's.
func (s *Service) scopeFilter(ctx context.Context, deploymentID string, filter store.Filter) (store.Filter, bool, error) {
	dep, err := s.deployments.Get(ctx, deploymentID)
	if err != nil {
		return store.Filter{}, false, err
	}

	scoped, empty, err := intersectAddresses(filter.ContractAddresses, dep.ContractAddresses)
	if err != nil {
		return store.Filter{}, false, err
	}
	if empty {
		return store.Filter{}, true, nil
	}

	normalized, err := normalizeFilter(filter)
	if err != nil {
		return store.Filter{}, false, err
	}
	normalized.ContractAddresses = scoped

	return normalized, false, nil
}

// intersectAddresses intersects a user set with a deployment set, both
// normalized. An empty user set means the whole deployment set. empty is
// true when the user asked for contracts outside the deployment.
func intersectAddresses(userSet, deploymentSet []string) (scoped []string, empty bool, err error) {
	depAddresses, err := address.NormalizeSet(deploymentSet)
	if err != nil {
		return nil, false, err
	}

	if len(userSet) == 0 {
		if len(depAddresses) == 0 {
			return nil, true, nil
		}
		return depAddresses, false, nil
	}

	userAddresses, err := address.NormalizeSet(userSet)
	if err != nil {
		return nil, false, err
	}

	depSet := make(map[string]bool, len(depAddresses))
	for _, a := range depAddresses {
		depSet[a] = true
	}

	for _, a := range userAddresses {
		if depSet[a] {
			scoped = append(scoped, a)
		}
	}

	return scoped, len(scoped) == 0, nil
}

// normalizeFilter canonicalizes the filter's address set, surfacing
// invalid addresses to the caller.
func normalizeFilter(filter store.Filter) (store.Filter, error) {
	if len(filter.ContractAddresses) == 0 {
		return filter, nil
	}

	normalized, err := address.NormalizeSet(filter.ContractAddresses)
	if err != nil {
		return store.Filter{}, err
	}

	filter.ContractAddresses = normalized
	return filter, nil
}
