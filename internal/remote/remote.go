// Package remote defines the narrow contract the data layer needs from an
// authoritative backend: row reads and writes per table plus a change feed.
package remote

import (
	"context"

	"restaurant-ops/internal/domain"
)

// Store is the row-oriented side of the backend.
type Store interface {
	SelectReservations(ctx context.Context) ([]domain.Reservation, error)
	InsertReservation(ctx context.Context, r domain.Reservation) error
	UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) error

	SelectOrders(ctx context.Context) ([]domain.Order, error)
	InsertOrder(ctx context.Context, o domain.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

// Subscription selects change events by table and action; ActionAny matches
// every action.
type Subscription struct {
	Table  string
	Action domain.ChangeAction
}

func (s Subscription) Matches(ev domain.ChangeEvent) bool {
	if s.Table != ev.Table {
		return false
	}
	return s.Action == domain.ActionAny || s.Action == "" || s.Action == ev.Action
}

// Feed delivers asynchronous change events.
type Feed interface {
	// Listen calls fn for every event matching one of subs until ctx is done.
	// It returns nil on cancellation.
	Listen(ctx context.Context, subs []Subscription, fn func(domain.ChangeEvent)) error
}

// Announcer is implemented by feeds that do not observe writes on their own
// and need the writer to publish the change.
type Announcer interface {
	Announce(ctx context.Context, ev domain.ChangeEvent) error
}

// Match reports whether any subscription accepts ev.
func Match(subs []Subscription, ev domain.ChangeEvent) bool {
	for _, s := range subs {
		if s.Matches(ev) {
			return true
		}
	}
	return false
}
