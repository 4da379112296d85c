// Package realtime is the in-process broadcast fabric between contract
// workers and live subscribers.
package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/goran-ethernal/StarkIndexor/internal/abi"
	"github.com/goran-ethernal/StarkIndexor/internal/address"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/store"
)

// ErrSubscriptionLagged terminates subscribers whose queue overflowed.
// Publish never waits for a slow consumer.
var ErrSubscriptionLagged = errors.New("subscription lagged, events dropped")

// DefaultQueueSize is the per-subscription buffer when none is configured.
const DefaultQueueSize = 1024

// Filter selects which published events a subscription receives. Empty
// fields impose no constraint; semantics match the store's query filter.
type Filter struct {
	ContractAddresses []string
	EventTypes        []string
	EventKeys         []string
}

// Subscription is one live event stream. Events() is closed when the
// subscription ends; Err() explains why, nil meaning a plain Close.
type Subscription struct {
	id     string
	events chan *store.Event
	fabric *Fabric

	mu  sync.Mutex
	err error
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Events is the stream of matching events, starting with events
// published strictly after the subscribe call.
func (s *Subscription) Events() <-chan *store.Event {
	return s.events
}

// Err reports why the stream closed. ErrSubscriptionLagged after an
// overflow, nil after Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close detaches the subscription and closes its stream.
func (s *Subscription) Close() {
	s.fabric.drop(s, nil)
}

type compiledFilter struct {
	contracts  map[string]bool
	eventTypes map[string]bool
	eventKeys  map[string]bool
}

func compileFilter(f Filter) compiledFilter {
	cf := compiledFilter{}

	if len(f.ContractAddresses) > 0 {
		cf.contracts = make(map[string]bool, len(f.ContractAddresses))
		for _, a := range f.ContractAddresses {
			canonical, err := address.Normalize(a)
			if err != nil {
				canonical = a
			}
			cf.contracts[canonical] = true
		}
	}

	if len(f.EventTypes) > 0 {
		cf.eventTypes = make(map[string]bool, len(f.EventTypes))
		for _, t := range f.EventTypes {
			cf.eventTypes[t] = true
		}
	}

	if len(f.EventKeys) > 0 {
		cf.eventKeys = make(map[string]bool, len(f.EventKeys))
		for _, k := range f.EventKeys {
			cf.eventKeys[abi.NormalizeKey(k)] = true
		}
	}

	return cf
}

func (cf compiledFilter) matches(ev *store.Event) bool {
	if cf.contracts != nil && !cf.contracts[ev.ContractAddress] {
		return false
	}
	if cf.eventTypes != nil && !cf.eventTypes[ev.EventType] {
		return false
	}
	if cf.eventKeys != nil {
		found := false
		for _, k := range ev.RawKeys {
			if cf.eventKeys[abi.NormalizeKey(k)] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Fabric fans published events out to subscriptions. There is no
// history: subscribers needing the past query the store.
type Fabric struct {
	queueSize int
	log       *logger.Logger

	mu   sync.Mutex
	subs map[string]*fabricSub
}

type fabricSub struct {
	sub    *Subscription
	filter compiledFilter
}

// NewFabric creates a fabric with the given per-subscription queue size.
// Zero or negative means DefaultQueueSize.
func NewFabric(queueSize int, log *logger.Logger) *Fabric {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Fabric{
		queueSize: queueSize,
		log:       log,
		subs:      make(map[string]*fabricSub),
	}
}

// Subscribe registers a new stream for events matching the filter.
func (f *Fabric) Subscribe(filter Filter) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		events: make(chan *store.Event, f.queueSize),
		fabric: f,
	}

	f.mu.Lock()
	f.subs[sub.id] = &fabricSub{sub: sub, filter: compileFilter(filter)}
	subscriptionsActive.Set(float64(len(f.subs)))
	f.mu.Unlock()

	f.log.Debugf("subscription %s opened", sub.id)
	return sub
}

// Publish enqueues the event on every matching subscription without
// blocking. Subscriptions whose buffer is full are terminated with
// ErrSubscriptionLagged.
func (f *Fabric) Publish(ev *store.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	eventsPublished.Inc()

	for id, fs := range f.subs {
		if !fs.filter.matches(ev) {
			continue
		}

		select {
		case fs.sub.events <- ev:
			eventsDelivered.Inc()
		default:
			f.log.Warnf("subscription %s lagged at %d queued events, terminating", id, f.queueSize)
			subscriptionsLagged.Inc()
			f.terminateLocked(fs.sub, ErrSubscriptionLagged)
		}
	}
}

// drop removes a subscription and closes its stream with the given cause.
func (f *Fabric) drop(sub *Subscription, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[sub.id]; !ok {
		return
	}
	f.terminateLocked(sub, cause)
}

func (f *Fabric) terminateLocked(sub *Subscription, cause error) {
	delete(f.subs, sub.id)
	subscriptionsActive.Set(float64(len(f.subs)))

	sub.mu.Lock()
	sub.err = cause
	sub.mu.Unlock()

	close(sub.events)
}

// SubscriberCount returns the number of live subscriptions.
func (f *Fabric) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
