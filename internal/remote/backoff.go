package remote

import (
	"context"
	"time"
)

// Backoff is the reconnect policy of the change feeds: the delay doubles
// after each failed attempt up to Max and drops back to Min once a
// connection was established.
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

var DefaultBackoff = Backoff{Min: 500 * time.Millisecond, Max: 30 * time.Second}

func (b Backoff) next(d time.Duration) time.Duration {
	return min(d*2, b.Max)
}

// Reconnect calls connect until ctx is done. connect reports whether it got
// as far as an established subscription before failing. onRetry, if set, is
// told about each failure and the wait before the next attempt.
func (b Backoff) Reconnect(ctx context.Context,
	connect func(ctx context.Context) (established bool, err error),
	onRetry func(err error, wait time.Duration)) {

	wait := b.Min
	for {
		established, err := connect(ctx)
		if ctx.Err() != nil {
			return
		}
		if established {
			wait = b.Min
		}
		if onRetry != nil {
			onRetry(err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		wait = b.next(wait)
	}
}
