// Package dataservice is the single entry point the dashboard talks to: it
// owns the collections and their notifiers, applies mutations locally or
// through the remote bridge, and answers global search.
package dataservice

import (
	"context"
	"sync"
	"time"

	"restaurant-ops/internal/auth"
	"restaurant-ops/internal/bridge"
	"restaurant-ops/internal/common/logger"
	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/metrics"
	"restaurant-ops/internal/notifier"
	"restaurant-ops/internal/remote"
	"restaurant-ops/internal/search"
	"restaurant-ops/internal/store"
	"restaurant-ops/internal/vault"
)

type Options struct {
	// Remote, when set, makes the service run against the remote backend.
	Remote remote.Store
	Feed   remote.Feed

	Auth    auth.Provider // defaults to auth.Demo
	Vault   vault.Store   // optional; uploads skip blob storage without it
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	// Latency is the simulated round trip applied to local reads and writes.
	Latency time.Duration
	// PermissiveTransitions accepts any valid status instead of enforcing
	// the transition tables.
	PermissiveTransitions bool

	Seed  store.Dataset
	Pages []domain.NavItem
	Now   func() time.Time
}

type Service struct {
	store *store.Store

	reservations *notifier.Notifier[domain.Reservation]
	orders       *notifier.Notifier[domain.Order]
	guests       *notifier.Notifier[domain.CrmEntry]
	documents    *notifier.Notifier[domain.DocumentFile]

	bridge *bridge.Bridge
	search *search.Aggregator

	auth    auth.Provider
	vault   vault.Store
	log     *logger.Logger
	metrics *metrics.Metrics
	latency time.Duration
	strict  bool
	now     func() time.Time

	lifeMu  sync.Mutex
	started bool
}

func New(opts Options) *Service {
	s := &Service{
		store:   store.New(opts.Seed),
		auth:    opts.Auth,
		vault:   opts.Vault,
		metrics: opts.Metrics,
		latency: opts.Latency,
		strict:  !opts.PermissiveTransitions,
		now:     opts.Now,
	}
	if s.auth == nil {
		s.auth = auth.Demo{}
	}
	base := opts.Logger
	if base == nil {
		base = logger.Nop()
	}
	s.log = base.With("dataservice")
	if s.now == nil {
		s.now = time.Now
	}

	s.reservations = notifier.New(domain.CollectionReservations, s.store.Reservations.Snapshot,
		notifier.WithPanicHandler[domain.Reservation](s.onListenerPanic))
	s.orders = notifier.New(domain.CollectionOrders, s.store.Orders.Snapshot,
		notifier.WithPanicHandler[domain.Order](s.onListenerPanic))
	s.guests = notifier.New(domain.CollectionGuests, s.store.Guests.Snapshot,
		notifier.WithPanicHandler[domain.CrmEntry](s.onListenerPanic))
	s.documents = notifier.New(domain.CollectionDocuments, s.store.Documents.Snapshot,
		notifier.WithPanicHandler[domain.DocumentFile](s.onListenerPanic))

	s.bridge = bridge.New(opts.Remote, opts.Feed, sink{s},
		bridge.WithLogger(base), bridge.WithMetrics(opts.Metrics))
	s.search = search.New(s, opts.Pages)
	return s
}

// RemoteConfigured reports whether writes go to the remote backend. It never
// changes after New.
func (s *Service) RemoteConfigured() bool { return s.bridge.Configured() }

// Start loads the remote collections and begins following their changes.
// It does nothing in local mode or when already started.
func (s *Service) Start(ctx context.Context) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.started {
		return
	}
	s.started = true
	if !s.bridge.Configured() {
		s.log.Info("started", map[string]any{"mode": "local"})
		return
	}
	s.bridge.RefreshAll(ctx)
	s.bridge.Start(ctx)
	s.log.Info("started", map[string]any{"mode": "remote"})
}

// Stop ends the change listeners. Subscriptions stay valid.
func (s *Service) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.bridge.Stop()
	s.log.Info("stopped", nil)
}

func (s *Service) onListenerPanic(collection string, recovered any) {
	s.metrics.ListenerPanicked(collection)
	s.log.Error("listener_panic", nil, map[string]any{"collection": collection, "panic": recovered})
}

// publish runs mutate under the collection's notifier and counts the
// notification when mutate reports a change.
func publish[T any](s *Service, n *notifier.Notifier[T], mutate func() bool) {
	changed := false
	n.Publish(func() bool {
		changed = mutate()
		return changed
	})
	if changed {
		s.metrics.Notified(n.Name())
	}
}

// simulate waits out the configured local latency.
func (s *Service) simulate(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sink receives remote refreshes. Event-driven refreshes republish; reads
// only swap the mirror.
type sink struct{ s *Service }

func (k sink) ReplaceReservations(rows []domain.Reservation, notify bool) {
	if !notify {
		k.s.store.Reservations.Replace(rows)
		return
	}
	publish(k.s, k.s.reservations, func() bool {
		k.s.store.Reservations.Replace(rows)
		return true
	})
}

func (k sink) ReplaceOrders(rows []domain.Order, notify bool) {
	if !notify {
		k.s.store.Orders.Replace(rows)
		return
	}
	publish(k.s, k.s.orders, func() bool {
		k.s.store.Orders.Replace(rows)
		return true
	})
}
