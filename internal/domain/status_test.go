package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReservationStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to ReservationStatus
		want     bool
	}{
		{ReservationPending, ReservationConfirmed, true},
		{ReservationPending, ReservationSeated, true},
		{ReservationConfirmed, ReservationSeated, true},
		{ReservationSeated, ReservationCancelled, true},
		{ReservationConfirmed, ReservationCancelled, true},
		{ReservationSeated, ReservationSeated, true},
		{ReservationSeated, ReservationPending, false},
		{ReservationConfirmed, ReservationPending, false},
		{ReservationCancelled, ReservationConfirmed, false},
		{ReservationPending, ReservationStatus("lost"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestOrderStatus_CanTransition(t *testing.T) {
	pipeline := []OrderStatus{OrderPending, OrderPreparing, OrderReady, OrderServed, OrderPaid}
	for i := 0; i < len(pipeline)-1; i++ {
		assert.True(t, pipeline[i].CanTransition(pipeline[i+1]), "%s -> %s", pipeline[i], pipeline[i+1])
		assert.True(t, pipeline[i].CanTransition(pipeline[i]))
		assert.False(t, pipeline[i+1].CanTransition(pipeline[i]), "%s -> %s", pipeline[i+1], pipeline[i])
	}
	assert.False(t, OrderPending.CanTransition(OrderReady))
	assert.False(t, OrderReady.CanTransition(OrderPaid))
}

func TestCheckOrderTransition(t *testing.T) {
	err := CheckOrderTransition(OrderPending, OrderServed, true)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	assert.NoError(t, CheckOrderTransition(OrderPending, OrderServed, false))

	err = CheckOrderTransition(OrderPending, OrderStatus("burnt"), false)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestCheckReservationTransition(t *testing.T) {
	assert.NoError(t, CheckReservationTransition(ReservationConfirmed, ReservationSeated, true))

	err := CheckReservationTransition(ReservationCancelled, ReservationSeated, true)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = CheckReservationTransition(ReservationPending, "", true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
