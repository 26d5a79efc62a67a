// Package bridge connects the in-memory collections to a remote backend. Reads
// replace whole collections, writes go straight to the remote, and change
// events trigger a re-read of the affected collection.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"restaurant-ops/internal/common/logger"
	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/metrics"
	"restaurant-ops/internal/remote"
)

var errNotConfigured = errors.New("remote backend not configured")

// Sink receives fresh collections from the remote. Implementations replace
// their snapshot and, when notify is set, republish it to subscribers.
type Sink interface {
	ReplaceReservations(rows []domain.Reservation, notify bool)
	ReplaceOrders(rows []domain.Order, notify bool)
}

// Tables the bridge mirrors.
var Tables = []string{domain.CollectionReservations, domain.CollectionOrders}

type Bridge struct {
	store   remote.Store
	feed    remote.Feed
	sink    Sink
	log     *logger.Logger
	metrics *metrics.Metrics

	// refreshMu serializes select+replace per table so an older read can
	// never overwrite a newer one.
	refreshMu map[string]*sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

type Option func(*Bridge)

func WithLogger(l *logger.Logger) Option { return func(b *Bridge) { b.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(b *Bridge) { b.metrics = m } }

// New builds a bridge. A nil store yields an unconfigured bridge whose
// Configured reports false for its whole lifetime.
func New(store remote.Store, feed remote.Feed, sink Sink, opts ...Option) *Bridge {
	b := &Bridge{store: store, feed: feed, sink: sink, log: logger.Nop(), refreshMu: map[string]*sync.Mutex{}}
	for _, t := range Tables {
		b.refreshMu[t] = &sync.Mutex{}
	}
	for _, o := range opts {
		o(b)
	}
	b.log = b.log.With("bridge")
	return b
}

func (b *Bridge) Configured() bool { return b != nil && b.store != nil }

// Refresh re-reads table, hands the rows to the sink and has it notify
// subscribers. Failures are logged and the previous snapshot stays in place.
func (b *Bridge) Refresh(ctx context.Context, table string) {
	b.refresh(ctx, table, true)
}

// Reload is Refresh without notifying subscribers. Plain reads use it; only
// change events announce a new snapshot.
func (b *Bridge) Reload(ctx context.Context, table string) {
	b.refresh(ctx, table, false)
}

func (b *Bridge) refresh(ctx context.Context, table string, notify bool) {
	if !b.Configured() {
		return
	}
	mu, ok := b.refreshMu[table]
	if !ok {
		b.log.Debug("refresh_skipped", map[string]any{"table": table})
		return
	}
	mu.Lock()
	defer mu.Unlock()

	var err error
	switch table {
	case domain.CollectionReservations:
		var rows []domain.Reservation
		if rows, err = b.store.SelectReservations(ctx); err == nil {
			b.sink.ReplaceReservations(rows, notify)
		}
	case domain.CollectionOrders:
		var rows []domain.Order
		if rows, err = b.store.SelectOrders(ctx); err == nil {
			b.sink.ReplaceOrders(rows, notify)
		}
	}
	if err != nil {
		b.metrics.RemoteFailed("select_" + table)
		if ctx.Err() == nil {
			b.log.Warn("refresh_failed", err, map[string]any{"table": table})
		}
		return
	}
	b.metrics.Refreshed(table)
}

// RefreshAll refreshes every mirrored table.
func (b *Bridge) RefreshAll(ctx context.Context) {
	for _, t := range Tables {
		b.Refresh(ctx, t)
	}
}

func (b *Bridge) InsertReservation(ctx context.Context, r domain.Reservation) error {
	return b.write(ctx, "insert_reservation", domain.CollectionReservations, domain.ActionInsert, r.ID,
		func() error { return b.store.InsertReservation(ctx, r) })
}

func (b *Bridge) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	return b.write(ctx, "update_reservation_status", domain.CollectionReservations, domain.ActionUpdate, id,
		func() error { return b.store.UpdateReservationStatus(ctx, id, status) })
}

func (b *Bridge) InsertOrder(ctx context.Context, o domain.Order) error {
	return b.write(ctx, "insert_order", domain.CollectionOrders, domain.ActionInsert, o.ID,
		func() error { return b.store.InsertOrder(ctx, o) })
}

func (b *Bridge) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return b.write(ctx, "update_order_status", domain.CollectionOrders, domain.ActionUpdate, id,
		func() error { return b.store.UpdateOrderStatus(ctx, id, status) })
}

// write runs op against the remote. The local snapshot is left alone; the
// change comes back through the feed. When the feed needs announcements and
// the announcement fails, the table is re-read directly instead.
func (b *Bridge) write(ctx context.Context, op, table string, action domain.ChangeAction, id string, fn func() error) error {
	if !b.Configured() {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRemoteWrite, errNotConfigured)
	}
	if err := fn(); err != nil {
		b.metrics.RemoteFailed(op)
		b.log.Error("remote_write_failed", err, map[string]any{"op": op, "id": id})
		return fmt.Errorf("%s %s: %w: %w", op, id, domain.ErrRemoteWrite, err)
	}
	b.log.Debug("remote_write", map[string]any{"op": op, "id": id})

	if a, ok := b.feed.(remote.Announcer); ok {
		ev := domain.ChangeEvent{Table: table, Action: action, RowID: id}
		if err := a.Announce(ctx, ev); err != nil {
			b.metrics.RemoteFailed("announce")
			b.log.Warn("announce_failed", err, map[string]any{"table": table, "id": id})
			b.Refresh(ctx, table)
		}
	}
	return nil
}

// Start subscribes to changes of every mirrored table. Each event re-reads
// its table in full. Start is a no-op on an unconfigured bridge, without a
// feed, or when already running.
func (b *Bridge) Start(ctx context.Context) {
	if !b.Configured() || b.feed == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.group != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for _, table := range Tables {
		subs := []remote.Subscription{{Table: table, Action: domain.ActionAny}}
		g.Go(func() error {
			err := b.feed.Listen(gctx, subs, func(ev domain.ChangeEvent) {
				b.metrics.EventReceived(ev.Table, string(ev.Action))
				b.log.Debug("change_event", map[string]any{"table": ev.Table, "action": ev.Action, "id": ev.RowID})
				b.Refresh(gctx, ev.Table)
			})
			if err != nil {
				b.log.Error("listener_stopped", err, map[string]any{"table": table})
			}
			return err
		})
	}
	b.cancel = cancel
	b.group = g
	b.log.Info("listening", map[string]any{"tables": Tables})
}

// Stop cancels the listeners and waits for them to exit. Safe to call more
// than once.
func (b *Bridge) Stop() {
	if b == nil {
		return
	}
	b.mu.Lock()
	cancel, g := b.cancel, b.group
	b.cancel, b.group = nil, nil
	b.mu.Unlock()
	if g == nil {
		return
	}
	cancel()
	_ = g.Wait()
	b.log.Info("stopped", nil)
}
