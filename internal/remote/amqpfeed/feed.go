// Package amqpfeed carries change events over a RabbitMQ fanout exchange.
// Writers announce each committed change and every listener gets its own
// exclusive queue bound to the exchange.
package amqpfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-ops/internal/common/logger"
	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/remote"
)

// Exchange is the fanout exchange change events travel on.
const Exchange = "restaurant_changes"

// Broker is the part of the RabbitMQ client the feed needs.
type Broker interface {
	ConsumeFanout(exchange, consumer string) (io.Closer, <-chan amqp.Delivery, error)
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table, contentType string, persistent bool) error
}

var (
	_ remote.Feed      = (*Feed)(nil)
	_ remote.Announcer = (*Feed)(nil)
)

type Feed struct {
	broker   Broker
	consumer string
	log      *logger.Logger
	backoff  remote.Backoff
}

// New builds a feed; consumer tags this process's queue consumer.
func New(broker Broker, consumer string, log *logger.Logger) *Feed {
	return &Feed{broker: broker, consumer: consumer, log: log.With("amqp-feed"), backoff: remote.DefaultBackoff}
}

func (f *Feed) Announce(ctx context.Context, ev domain.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	headers := amqp.Table{"table": ev.Table, "action": string(ev.Action)}
	if err := f.broker.Publish(ctx, Exchange, "", body, headers, "application/json", false); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

func (f *Feed) Listen(ctx context.Context, subs []remote.Subscription, fn func(domain.ChangeEvent)) error {
	f.backoff.Reconnect(ctx, func(ctx context.Context) (bool, error) {
		return f.consume(ctx, subs, fn)
	}, func(err error, wait time.Duration) {
		f.log.Warn("consumer_interrupted", err, map[string]any{"retry_in": wait.String()})
	})
	return nil
}

// consume reports established once the queue is bound and consuming.
func (f *Feed) consume(ctx context.Context, subs []remote.Subscription, fn func(domain.ChangeEvent)) (established bool, err error) {
	closer, msgs, err := f.broker.ConsumeFanout(Exchange, f.consumer)
	if err != nil {
		return false, fmt.Errorf("consume %s: %w", Exchange, err)
	}
	defer closer.Close()

	f.log.Info("consuming", map[string]any{"exchange": Exchange, "consumer": f.consumer})
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case d, ok := <-msgs:
			if !ok {
				return true, errors.New("delivery channel closed")
			}
			ev, err := decodeDelivery(d)
			if err != nil {
				f.log.Warn("bad_delivery", err, map[string]any{"message_id": d.MessageId})
				continue
			}
			if remote.Match(subs, ev) {
				fn(ev)
			}
		}
	}
}

func decodeDelivery(d amqp.Delivery) (domain.ChangeEvent, error) {
	var ev domain.ChangeEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("decode body: %w", err)
	}
	if ev.Table == "" || ev.Action == "" {
		return domain.ChangeEvent{}, errors.New("event missing table or action")
	}
	return ev, nil
}
