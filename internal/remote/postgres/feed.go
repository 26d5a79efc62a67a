package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-ops/internal/common/logger"
	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/remote"
)

var _ remote.Feed = (*Feed)(nil)

// Feed turns trigger notifications on Channel into change events. It holds
// one pooled connection for as long as Listen runs and re-listens on a fresh
// connection after a failure.
type Feed struct {
	pool    *pgxpool.Pool
	log     *logger.Logger
	backoff remote.Backoff
}

func NewFeed(pool *pgxpool.Pool, log *logger.Logger) *Feed {
	return &Feed{pool: pool, log: log.With("pg-feed"), backoff: remote.DefaultBackoff}
}

func (f *Feed) Listen(ctx context.Context, subs []remote.Subscription, fn func(domain.ChangeEvent)) error {
	f.backoff.Reconnect(ctx, func(ctx context.Context) (bool, error) {
		return f.listenOnce(ctx, subs, fn)
	}, func(err error, wait time.Duration) {
		f.log.Warn("listen_interrupted", err, map[string]any{"retry_in": wait.String()})
	})
	return nil
}

// listenOnce reports established once LISTEN succeeded.
func (f *Feed) listenOnce(ctx context.Context, subs []remote.Subscription, fn func(domain.ChangeEvent)) (established bool, err error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return false, fmt.Errorf("listen %s: %w", Channel, err)
	}
	f.log.Info("listening", map[string]any{"channel": Channel, "subscriptions": len(subs)})

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return true, err
		}
		ev, err := decodeNotification(n)
		if err != nil {
			f.log.Warn("bad_notification", err, map[string]any{"payload": n.Payload})
			continue
		}
		if remote.Match(subs, ev) {
			fn(ev)
		}
	}
}

func decodeNotification(n *pgconn.Notification) (domain.ChangeEvent, error) {
	if n == nil {
		return domain.ChangeEvent{}, errors.New("nil notification")
	}
	if n.Channel != Channel {
		return domain.ChangeEvent{}, fmt.Errorf("unexpected channel %q", n.Channel)
	}
	var ev domain.ChangeEvent
	if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("decode payload: %w", err)
	}
	if ev.Table == "" || ev.Action == "" {
		return domain.ChangeEvent{}, errors.New("payload missing table or action")
	}
	return ev, nil
}
