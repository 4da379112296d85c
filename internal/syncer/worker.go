package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/goran-ethernal/StarkIndexor/internal/abi"
	"github.com/goran-ethernal/StarkIndexor/internal/decoder"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/realtime"
	"github.com/goran-ethernal/StarkIndexor/internal/rpc"
	"github.com/goran-ethernal/StarkIndexor/internal/store"
	"github.com/goran-ethernal/StarkIndexor/pkg/config"
)

const (
	// interChunkPause paces historical chunk processing
	interChunkPause = 500 * time.Millisecond

	// chunkRetryDelay spaces re-attempts of a failed chunk
	chunkRetryDelay = 2 * time.Second

	// batchCommitChunks is how many chunks accumulate per commit in
	// batch mode
	batchCommitChunks = 5
)

// ContractWorker syncs one contract: historical backfill in chunks, then
// a polling tail. It is the only writer for its contract's rows.
type ContractWorker struct {
	address      string
	startBlock   uint64
	chunkSize    uint64
	syncInterval time.Duration
	batchMode    bool

	// nil maps mean no constraint
	eventTypeAllow map[string]bool
	eventKeyAllow  map[string]bool

	client     ChainClient
	registry   *abi.Registry
	eventStore *store.EventStore
	fabric     *realtime.Fabric
	log        *logger.Logger

	// block number to timestamp, valid for the life of the run
	blockTimes map[uint64]time.Time

	// pending accumulates decoded events across chunks in batch mode
	pending          []*store.Event
	pendingChunks    int
	pendingFromBlock uint64
	pendingToBlock   uint64

	// retryFrom rewinds resume after a failed flush so no accumulated
	// chunk is skipped
	retryFrom *uint64
}

func newContractWorker(
	cfg config.SyncConfig,
	contract config.ContractConfig,
	client ChainClient,
	registry *abi.Registry,
	eventStore *store.EventStore,
	fabric *realtime.Fabric,
	log *logger.Logger,
) *ContractWorker {
	start := cfg.StartBlock
	if contract.StartBlock != nil {
		start = *contract.StartBlock
	}

	var typeAllow map[string]bool
	if len(cfg.EventTypes) > 0 {
		typeAllow = make(map[string]bool, len(cfg.EventTypes))
		for _, t := range cfg.EventTypes {
			typeAllow[t] = true
		}
	}

	var keyAllow map[string]bool
	if len(cfg.EventKeys) > 0 {
		keyAllow = make(map[string]bool, len(cfg.EventKeys))
		for _, k := range cfg.EventKeys {
			keyAllow[abi.NormalizeKey(k)] = true
		}
	}

	return &ContractWorker{
		address:        contract.Address,
		startBlock:     start,
		chunkSize:      cfg.ChunkSize,
		syncInterval:   cfg.SyncInterval.Duration,
		batchMode:      cfg.BatchMode,
		eventTypeAllow: typeAllow,
		eventKeyAllow:  keyAllow,
		client:         client,
		registry:       registry,
		eventStore:     eventStore,
		fabric:         fabric,
		log:            log,
		blockTimes:     make(map[uint64]time.Time),
	}
}

// Address returns the worker's canonical contract address.
func (w *ContractWorker) Address() string {
	return w.address
}

// Run backfills from the resume point to the chain head, then tails new
// blocks every syncInterval. Batch mode only changes commit granularity
// during backfill; the tail runs either way. Run only returns on
// cancellation; chunk failures are retried in place so one contract's
// trouble never spreads.
func (w *ContractWorker) Run(ctx context.Context) error {
	resume, err := w.resumePoint(ctx)
	if err != nil {
		return err
	}

	w.log.Infof("worker for %s starting at block %d", w.address, resume)

	resume, err = w.syncRange(ctx, resume)
	if err != nil {
		return err
	}

	w.log.Infof("worker for %s caught up, tailing from block %d", w.address, resume)

	ticker := time.NewTicker(w.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			resume, err = w.syncRange(ctx, resume)
			if err != nil {
				return err
			}
		}
	}
}

// resumePoint is max(cursor+1, configured start block).
func (w *ContractWorker) resumePoint(ctx context.Context) (uint64, error) {
	last, ok, err := w.eventStore.GetCursor(ctx, w.address)
	if err != nil {
		return 0, err
	}

	resume := w.startBlock
	if ok && last+1 > resume {
		resume = last + 1
	}
	return resume, nil
}

// syncRange chunks [resume, latest] and processes the chunks in order,
// re-attempting a failed chunk after a delay. Returns the next resume
// point; the only error it surfaces is cancellation.
func (w *ContractWorker) syncRange(ctx context.Context, resume uint64) (uint64, error) {
	latest, err := w.client.LatestBlock(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return resume, ctx.Err()
		}
		w.log.Errorf("failed to fetch latest block for %s: %v", w.address, err)
		return resume, nil
	}

	chainHead.WithLabelValues(w.address).Set(float64(latest))

	for resume <= latest {
		to := min(resume+w.chunkSize-1, latest)

		if err := w.processChunk(ctx, resume, to); err != nil {
			if ctx.Err() != nil {
				return resume, ctx.Err()
			}

			chunkFailures.WithLabelValues(w.address).Inc()
			w.log.Errorf("chunk [%d, %d] for %s failed, retrying: %v", resume, to, w.address, err)

			if w.retryFrom != nil {
				resume = *w.retryFrom
				w.retryFrom = nil
			}

			if err := sleepCtx(ctx, chunkRetryDelay); err != nil {
				return resume, err
			}
			continue
		}

		resume = to + 1
		lastSyncedBlock.WithLabelValues(w.address).Set(float64(to))

		if resume <= latest {
			if err := sleepCtx(ctx, interChunkPause); err != nil {
				return resume, err
			}
		}
	}

	// nothing stays buffered once the range is drained
	if err := w.flushPending(ctx); err != nil {
		if ctx.Err() != nil {
			return resume, ctx.Err()
		}
		w.log.Errorf("failed to flush pending batch for %s: %v", w.address, err)
		if w.retryFrom != nil {
			resume = *w.retryFrom
			w.retryFrom = nil
		}
	}

	return resume, nil
}

// processChunk pulls every event page in [from, to], decodes and filters
// them, and persists the batch together with the cursor advance. In
// batch mode persistence is deferred until enough chunks accumulate.
func (w *ContractWorker) processChunk(ctx context.Context, from, to uint64) error {
	start := time.Now()

	var raw []rpc.RawEvent
	token := ""
	for {
		page, err := w.client.GetEvents(ctx, rpc.EventFilter{
			FromBlock:         from,
			ToBlock:           to,
			ContractAddress:   w.address,
			ChunkSize:         int(w.chunkSize),
			ContinuationToken: token,
		})
		if err != nil {
			return err
		}

		raw = append(raw, page.Events...)
		if page.ContinuationToken == "" {
			break
		}
		token = page.ContinuationToken
	}

	events, err := w.buildBatch(ctx, raw)
	if err != nil {
		return err
	}

	if w.pendingChunks == 0 {
		w.pendingFromBlock = from
	}
	w.pending = append(w.pending, events...)
	w.pendingChunks++
	w.pendingToBlock = to

	if w.batchMode && w.pendingChunks < batchCommitChunks {
		chunkDuration.WithLabelValues(w.address).Observe(time.Since(start).Seconds())
		return nil
	}

	if err := w.flushPending(ctx); err != nil {
		return err
	}

	chunkDuration.WithLabelValues(w.address).Observe(time.Since(start).Seconds())
	return nil
}

// flushPending persists the accumulated events atomically with the
// cursor advance and publishes what was newly inserted. On failure the
// batch is kept for the chunk retry; the cursor has not moved.
func (w *ContractWorker) flushPending(ctx context.Context) error {
	if w.pendingChunks == 0 {
		return nil
	}

	inserted, err := w.eventStore.InsertBatch(ctx, w.address, w.pending, w.pendingToBlock)
	if err != nil {
		// drop the batch and rewind; the retry rebuilds every
		// accumulated chunk, and duplicate ids collapse on insert
		from := w.pendingFromBlock
		w.retryFrom = &from
		w.pending = nil
		w.pendingChunks = 0
		return err
	}

	w.pending = nil
	w.pendingChunks = 0

	eventsIndexed.WithLabelValues(w.address).Add(float64(len(inserted)))

	for _, ev := range inserted {
		w.fabric.Publish(ev)
	}

	return nil
}

// buildBatch decodes, filters, and timestamps raw events in node order.
// Log indexes count event position within each transaction.
func (w *ContractWorker) buildBatch(ctx context.Context, raw []rpc.RawEvent) ([]*store.Event, error) {
	contractAbi, err := w.registry.Get(ctx, w.address)
	if err != nil && !errors.Is(err, abi.ErrAbiUnavailable) {
		return nil, err
	}

	logIndexes := make(map[string]uint64, len(raw))
	events := make([]*store.Event, 0, len(raw))

	for _, rawEvent := range raw {
		logIndex := logIndexes[rawEvent.TransactionHash]
		logIndexes[rawEvent.TransactionHash]++

		if !w.keysAllowed(rawEvent.Keys) {
			continue
		}

		decoded := decoder.Decode(contractAbi, rawEvent.Keys, rawEvent.Data)

		if w.eventTypeAllow != nil && !w.eventTypeAllow[decoded.EventType] {
			continue
		}

		ts, err := w.blockTimestamp(ctx, rawEvent.BlockNumber)
		if err != nil {
			return nil, err
		}

		// keys and data are stored exactly as the node returned them
		events = append(events, &store.Event{
			ID:              store.EventID(rawEvent.TransactionHash, logIndex),
			ContractAddress: w.address,
			EventType:       decoded.EventType,
			BlockNumber:     rawEvent.BlockNumber,
			TransactionHash: rawEvent.TransactionHash,
			LogIndex:        logIndex,
			Timestamp:       ts,
			RawKeys:         rawEvent.Keys,
			RawData:         rawEvent.Data,
			DecodedData:     decoded.Data,
		})
	}

	return events, nil
}

// keysAllowed applies the raw-key allow list before decoding.
func (w *ContractWorker) keysAllowed(keys []string) bool {
	if w.eventKeyAllow == nil {
		return true
	}
	for _, k := range keys {
		if w.eventKeyAllow[abi.NormalizeKey(k)] {
			return true
		}
	}
	return false
}

func (w *ContractWorker) blockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	if ts, ok := w.blockTimes[blockNumber]; ok {
		return ts, nil
	}

	ts, err := w.client.BlockTimestamp(ctx, blockNumber)
	if err != nil {
		return time.Time{}, err
	}

	w.blockTimes[blockNumber] = ts
	return ts, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
