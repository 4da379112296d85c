package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starkindexor_store_events_inserted_total",
			Help: "Total number of events written to the store",
		},
	)

	eventsIgnored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starkindexor_store_events_duplicate_total",
			Help: "Total number of events skipped because the row already existed",
		},
	)

	insertBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "starkindexor_store_insert_batch_duration_seconds",
			Help:    "Duration of atomic batch insert plus cursor advance",
			Buckets: prometheus.DefBuckets,
		},
	)

	queryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "starkindexor_store_query_duration_seconds",
			Help:    "Duration of filtered event queries",
			Buckets: prometheus.DefBuckets,
		},
	)
)
