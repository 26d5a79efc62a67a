package dataservice

import (
	"context"

	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/notifier"
)

// Reservations returns the current reservations. With a remote backend the
// collection is re-read first without notifying subscribers; if that fails
// the last known list is returned.
func (s *Service) Reservations(ctx context.Context) ([]domain.Reservation, error) {
	if err := s.beforeRead(ctx, domain.CollectionReservations); err != nil {
		return nil, err
	}
	return s.store.Reservations.Snapshot(), nil
}

func (s *Service) Orders(ctx context.Context) ([]domain.Order, error) {
	if err := s.beforeRead(ctx, domain.CollectionOrders); err != nil {
		return nil, err
	}
	return s.store.Orders.Snapshot(), nil
}

func (s *Service) Guests(ctx context.Context) ([]domain.CrmEntry, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}
	return s.store.Guests.Snapshot(), nil
}

func (s *Service) Documents(ctx context.Context) ([]domain.DocumentFile, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}
	return s.store.Documents.Snapshot(), nil
}

func (s *Service) beforeRead(ctx context.Context, table string) error {
	if !s.bridge.Configured() {
		return s.simulate(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.bridge.Reload(ctx, table)
	return nil
}

// Snapshot accessors used by search. They never block on latency or the
// remote.

func (s *Service) ReservationsSnapshot() []domain.Reservation { return s.store.Reservations.Snapshot() }
func (s *Service) OrdersSnapshot() []domain.Order             { return s.store.Orders.Snapshot() }
func (s *Service) GuestsSnapshot() []domain.CrmEntry          { return s.store.Guests.Snapshot() }
func (s *Service) DocumentsSnapshot() []domain.DocumentFile   { return s.store.Documents.Snapshot() }

// SubscribeReservations calls fn with the current reservations right away and
// again after every change. The returned func unsubscribes.
func (s *Service) SubscribeReservations(fn notifier.Listener[domain.Reservation]) func() {
	return s.reservations.Subscribe(fn)
}

func (s *Service) SubscribeOrders(fn notifier.Listener[domain.Order]) func() {
	return s.orders.Subscribe(fn)
}

func (s *Service) SubscribeGuests(fn notifier.Listener[domain.CrmEntry]) func() {
	return s.guests.Subscribe(fn)
}

func (s *Service) SubscribeDocuments(fn notifier.Listener[domain.DocumentFile]) func() {
	return s.documents.Subscribe(fn)
}

// SearchGlobal matches query against pages and every collection. An empty
// query yields an empty result.
func (s *Service) SearchGlobal(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := s.search.Search(query)
	s.metrics.Searched(len(results))
	s.log.Debug("search", map[string]any{"query_len": len(query), "results": len(results)})
	return results, nil
}
