package amqpfeed

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-ops/internal/common/logger"
	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/remote"
)

type nopCloser struct{ closed *bool }

func (c nopCloser) Close() error { *c.closed = true; return nil }

// loopBroker delivers every published body back to the consumer.
type loopBroker struct {
	mu        sync.Mutex
	msgs      chan amqp.Delivery
	closed    bool
	published [][]byte
	failPub   error
}

func newLoopBroker() *loopBroker { return &loopBroker{msgs: make(chan amqp.Delivery, 16)} }

func (b *loopBroker) ConsumeFanout(exchange, _ string) (io.Closer, <-chan amqp.Delivery, error) {
	if exchange != Exchange {
		return nil, nil, errors.New("wrong exchange")
	}
	return nopCloser{closed: &b.closed}, b.msgs, nil
}

func (b *loopBroker) Publish(_ context.Context, exchange, _ string, body []byte, _ amqp.Table, contentType string, _ bool) error {
	if b.failPub != nil {
		return b.failPub
	}
	b.mu.Lock()
	b.published = append(b.published, body)
	b.mu.Unlock()
	b.msgs <- amqp.Delivery{Exchange: exchange, ContentType: contentType, Body: body}
	return nil
}

func TestAnnounceThenListen(t *testing.T) {
	b := newLoopBroker()
	f := New(b, "test", logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan domain.ChangeEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- f.Listen(ctx, []remote.Subscription{{Table: domain.CollectionOrders, Action: domain.ActionAny}},
			func(ev domain.ChangeEvent) { got <- ev })
	}()

	require.NoError(t, f.Announce(ctx, domain.ChangeEvent{Table: "reservations", Action: domain.ActionInsert, RowID: "r1"}))
	require.NoError(t, f.Announce(ctx, domain.ChangeEvent{Table: "orders", Action: domain.ActionUpdate, RowID: "ORD-1"}))

	select {
	case ev := <-got:
		assert.Equal(t, domain.ChangeEvent{Table: "orders", Action: domain.ActionUpdate, RowID: "ORD-1"}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	require.NoError(t, <-done)
	assert.True(t, b.closed)
	assert.Empty(t, got)
}

func TestAnnounce_PublishError(t *testing.T) {
	b := newLoopBroker()
	b.failPub = errors.New("nack")
	err := New(b, "test", logger.Nop()).Announce(context.Background(), domain.ChangeEvent{Table: "orders", Action: domain.ActionInsert})
	assert.ErrorContains(t, err, "publish change event")
}

func TestDecodeDelivery(t *testing.T) {
	ev, err := decodeDelivery(amqp.Delivery{Body: []byte(`{"table":"reservations","action":"delete","id":"7"}`)})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionDelete, ev.Action)
	assert.Equal(t, "7", ev.RowID)

	_, err = decodeDelivery(amqp.Delivery{Body: []byte(`{}`)})
	assert.Error(t, err)
	_, err = decodeDelivery(amqp.Delivery{Body: []byte(`nope`)})
	assert.Error(t, err)
}

// droppingBroker hands out delivery channels that are already closed, like a
// broker connection that drops right after the consumer is bound.
type droppingBroker struct {
	mu    sync.Mutex
	binds int
}

func (b *droppingBroker) ConsumeFanout(string, string) (io.Closer, <-chan amqp.Delivery, error) {
	b.mu.Lock()
	b.binds++
	b.mu.Unlock()
	msgs := make(chan amqp.Delivery)
	close(msgs)
	closed := false
	return nopCloser{closed: &closed}, msgs, nil
}

func (b *droppingBroker) Publish(context.Context, string, string, []byte, amqp.Table, string, bool) error {
	return nil
}

func (b *droppingBroker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binds
}

func TestListen_ReconnectsPromptlyAfterDrops(t *testing.T) {
	b := &droppingBroker{}
	f := New(b, "test", logger.Nop())
	f.backoff = remote.Backoff{Min: 5 * time.Millisecond, Max: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Listen(ctx, nil, func(domain.ChangeEvent) {}) }()

	// Doubling delays would need over 2.5s for 10 binds; resetting keeps
	// every wait at the minimum.
	require.Eventually(t, func() bool { return b.count() >= 10 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
