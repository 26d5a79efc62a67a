// Package remotetest provides in-memory stand-ins for the remote backend so
// the bridge and the service can be exercised without Postgres or RabbitMQ.
package remotetest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/remote"
)

var (
	_ remote.Store = (*Store)(nil)
	_ remote.Feed  = (*Feed)(nil)
)

// Store keeps rows in memory. When Feed is set, every successful write emits
// the matching change event, the way database triggers would.
type Store struct {
	mu           sync.Mutex
	reservations []domain.Reservation
	orders       []domain.Order

	Feed *Feed

	// Injected failures, keyed by operation name ("select_reservations", ...).
	Fail  map[string]error
	Calls map[string]int
}

func NewStore(reservations []domain.Reservation, orders []domain.Order) *Store {
	return &Store{
		reservations: slices.Clone(reservations),
		orders:       slices.Clone(orders),
		Fail:         map[string]error{},
		Calls:        map[string]int{},
	}
}

func (s *Store) enter(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls[op]++
	return s.Fail[op]
}

// SetFail injects (or clears, with nil) a failure for op.
func (s *Store) SetFail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.Fail, op)
		return
	}
	s.Fail[op] = err
}

func (s *Store) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[op]
}

func (s *Store) emit(table string, action domain.ChangeAction, id string) {
	if s.Feed != nil {
		s.Feed.Emit(domain.ChangeEvent{Table: table, Action: action, RowID: id})
	}
}

func (s *Store) SelectReservations(context.Context) ([]domain.Reservation, error) {
	if err := s.enter("select_reservations"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.reservations), nil
}

func (s *Store) InsertReservation(_ context.Context, r domain.Reservation) error {
	if err := s.enter("insert_reservation"); err != nil {
		return err
	}
	s.mu.Lock()
	s.reservations = append(s.reservations, r)
	s.mu.Unlock()
	s.emit(domain.CollectionReservations, domain.ActionInsert, r.ID)
	return nil
}

func (s *Store) UpdateReservationStatus(_ context.Context, id string, status domain.ReservationStatus) error {
	if err := s.enter("update_reservation_status"); err != nil {
		return err
	}
	s.mu.Lock()
	found := false
	for i := range s.reservations {
		if s.reservations[i].ID == id {
			s.reservations[i].Status = status
			found = true
		}
	}
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("reservation %s: %w", id, domain.ErrNotFound)
	}
	s.emit(domain.CollectionReservations, domain.ActionUpdate, id)
	return nil
}

func (s *Store) SelectOrders(context.Context) ([]domain.Order, error) {
	if err := s.enter("select_orders"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders), nil
}

func (s *Store) InsertOrder(_ context.Context, o domain.Order) error {
	if err := s.enter("insert_order"); err != nil {
		return err
	}
	s.mu.Lock()
	s.orders = append([]domain.Order{o}, s.orders...)
	s.mu.Unlock()
	s.emit(domain.CollectionOrders, domain.ActionInsert, o.ID)
	return nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus) error {
	if err := s.enter("update_order_status"); err != nil {
		return err
	}
	s.mu.Lock()
	found := false
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = status
			found = true
		}
	}
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	s.emit(domain.CollectionOrders, domain.ActionUpdate, id)
	return nil
}

// Feed fans emitted events out to every running Listen call. Like a fanout
// exchange without bound queues, events emitted while nobody listens are
// dropped.
type Feed struct {
	mu        sync.Mutex
	listeners []*listener
	announced []domain.ChangeEvent
}

type listener struct {
	ch   chan domain.ChangeEvent
	done chan struct{}
}

func NewFeed() *Feed { return &Feed{} }

// Emit delivers ev to every listener. A listener that exits while Emit is
// waiting on it is skipped.
func (f *Feed) Emit(ev domain.ChangeEvent) {
	f.mu.Lock()
	targets := slices.Clone(f.listeners)
	f.mu.Unlock()
	for _, l := range targets {
		select {
		case l.ch <- ev:
		case <-l.done:
		}
	}
}

// Listeners is the number of Listen calls currently running.
func (f *Feed) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *Feed) Listen(ctx context.Context, subs []remote.Subscription, fn func(domain.ChangeEvent)) error {
	l := &listener{ch: make(chan domain.ChangeEvent, 256), done: make(chan struct{})}
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.listeners = slices.DeleteFunc(f.listeners, func(other *listener) bool { return other == l })
		f.mu.Unlock()
		close(l.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-l.ch:
			if remote.Match(subs, ev) {
				fn(ev)
			}
		}
	}
}

// AnnouncingFeed is a Feed that also records announcements and loops them
// back as events, like a broker fanout would.
type AnnouncingFeed struct {
	*Feed
}

var _ remote.Announcer = AnnouncingFeed{}

func (f AnnouncingFeed) Announce(_ context.Context, ev domain.ChangeEvent) error {
	f.mu.Lock()
	f.announced = append(f.announced, ev)
	f.mu.Unlock()
	f.Emit(ev)
	return nil
}

func (f AnnouncingFeed) Announced() []domain.ChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.announced)
}
