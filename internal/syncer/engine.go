// Package syncer drives historical backfill and live tailing of contract
// events, one worker per configured contract.
package syncer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goran-ethernal/StarkIndexor/internal/abi"
	"github.com/goran-ethernal/StarkIndexor/internal/common"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/metrics"
	"github.com/goran-ethernal/StarkIndexor/internal/realtime"
	"github.com/goran-ethernal/StarkIndexor/internal/rpc"
	"github.com/goran-ethernal/StarkIndexor/internal/store"
	"github.com/goran-ethernal/StarkIndexor/pkg/config"
)

// workerStagger spaces worker start-ups so N contracts do not hit the
// node at once.
const workerStagger = 2 * time.Second

// ChainClient is the node surface the engine consumes.
// Implemented by rpc.Client.
type ChainClient interface {
	LatestBlock(ctx context.Context) (uint64, error)
	GetEvents(ctx context.Context, filter rpc.EventFilter) (*rpc.EventsPage, error)
	BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Engine owns one ContractWorker per configured contract and runs them
// concurrently. Workers are independent; one contract's failure cancels
// the rest only when it is fatal.
type Engine struct {
	workers []*ContractWorker
	log     *logger.Logger
}

// NewEngine builds workers from the sync configuration. Contract
// addresses are canonical by the time config validation has passed.
func NewEngine(
	cfg config.SyncConfig,
	client ChainClient,
	registry *abi.Registry,
	eventStore *store.EventStore,
	fabric *realtime.Fabric,
	log *logger.Logger,
) *Engine {
	engineLog := log.WithComponent(common.ComponentSyncEngine)

	workers := make([]*ContractWorker, 0, len(cfg.Contracts))
	for _, contract := range cfg.Contracts {
		workers = append(workers, newContractWorker(
			cfg,
			contract,
			client,
			registry,
			eventStore,
			fabric,
			log.WithComponent(common.ComponentWorker),
		))
	}

	return &Engine{workers: workers, log: engineLog}
}

// Run starts every worker, staggered by N*2s, and blocks until the
// context is cancelled. Cancellation is a clean stop and returns nil.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Infof("starting %d contract workers", len(e.workers))

	metrics.ComponentHealthSet(common.ComponentSyncEngine, true)
	defer metrics.ComponentHealthSet(common.ComponentSyncEngine, false)

	g, ctx := errgroup.WithContext(ctx)

	for i, worker := range e.workers {
		stagger := time.Duration(i) * workerStagger
		g.Go(func() error {
			if stagger > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(stagger):
				}
			}
			return worker.Run(ctx)
		})
	}

	err := g.Wait()
	if err != nil && err != context.Canceled {
		return err
	}

	e.log.Info("sync engine stopped")
	return nil
}

// Workers exposes the engine's workers, primarily for status reporting.
func (e *Engine) Workers() []*ContractWorker {
	return e.workers
}
