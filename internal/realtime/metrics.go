package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starkindexor_realtime_events_published_total",
			Help: "Total number of events offered to the fabric",
		},
	)

	eventsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starkindexor_realtime_events_delivered_total",
			Help: "Total number of events enqueued onto subscriptions",
		},
	)

	subscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "starkindexor_realtime_subscriptions_active",
			Help: "Number of live subscriptions",
		},
	)

	subscriptionsLagged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starkindexor_realtime_subscriptions_lagged_total",
			Help: "Total number of subscriptions terminated for lagging",
		},
	)
)
