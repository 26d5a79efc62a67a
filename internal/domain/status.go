package domain

import "fmt"

var reservationEdges = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationSeated, ReservationCancelled},
	ReservationConfirmed: {ReservationSeated, ReservationCancelled},
	ReservationSeated:    {ReservationCancelled},
	ReservationCancelled: nil,
}

var orderEdges = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPreparing},
	OrderPreparing: {OrderReady},
	OrderReady:     {OrderServed},
	OrderServed:    {OrderPaid},
	OrderPaid:      nil,
}

func (s ReservationStatus) Valid() bool {
	_, ok := reservationEdges[s]
	return ok
}

func (s OrderStatus) Valid() bool {
	_, ok := orderEdges[s]
	return ok
}

// CanTransition reports whether a reservation may move from s to next.
// Staying in the same status is always allowed.
func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	if s == next {
		return next.Valid()
	}
	for _, to := range reservationEdges[s] {
		if to == next {
			return true
		}
	}
	return false
}

// CanTransition reports whether an order may move from s to next.
// Orders advance one pipeline step at a time.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return next.Valid()
	}
	for _, to := range orderEdges[s] {
		if to == next {
			return true
		}
	}
	return false
}

// CheckReservationTransition returns ErrInvalidTransition when strict is set and
// the edge is not in the table.
func CheckReservationTransition(from, to ReservationStatus, strict bool) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown reservation status %q", ErrInvalidInput, to)
	}
	if strict && !from.CanTransition(to) {
		return fmt.Errorf("%w: reservation %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func CheckOrderTransition(from, to OrderStatus, strict bool) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, to)
	}
	if strict && !from.CanTransition(to) {
		return fmt.Errorf("%w: order %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
