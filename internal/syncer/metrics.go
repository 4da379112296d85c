package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chainHead = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "starkindexor_sync_chain_head_block",
			Help: "Latest chain block number seen per contract worker",
		},
		[]string{"contract"},
	)

	lastSyncedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "starkindexor_sync_last_synced_block",
			Help: "Highest fully persisted block per contract",
		},
		[]string{"contract"},
	)

	eventsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starkindexor_sync_events_indexed_total",
			Help: "Total number of events indexed per contract",
		},
		[]string{"contract"},
	)

	chunkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starkindexor_sync_chunk_duration_seconds",
			Help:    "Duration of one chunk fetch, decode, and persist",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"contract"},
	)

	chunkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starkindexor_sync_chunk_failures_total",
			Help: "Total number of chunk attempts that failed and were retried",
		},
		[]string{"contract"},
	)
)
