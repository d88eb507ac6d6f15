// Package notify polls the unread-notification count as an explicit
// subscription: a fixed refresh interval plus an invalidation signal
// that forces an immediate refetch.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Counter fetches the current unread count.
type Counter interface {
	UnreadNotifications(ctx context.Context) (int, error)
}

// Watcher delivers unread counts on C until its context is cancelled.
type Watcher struct {
	src      Counter
	interval time.Duration
	log      *zap.Logger

	invalidate chan struct{}

	// C receives the count after every successful fetch.
	C chan int
}

// NewWatcher builds a Watcher polling src every interval.
func NewWatcher(src Counter, interval time.Duration, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Watcher{
		src:        src,
		interval:   interval,
		log:        log,
		invalidate: make(chan struct{}, 1),
		C:          make(chan int, 1),
	}
}

// Invalidate requests an immediate refetch, e.g. after the user acts on
// a notification. Coalesces when a request is already pending.
func (w *Watcher) Invalidate() {
	select {
	case w.invalidate <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done. Fetch failures are logged and the next
// tick retries; the channel only ever carries confirmed counts.
func (w *Watcher) Run(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()

	w.fetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.fetch(ctx)
		case <-w.invalidate:
			w.fetch(ctx)
		}
	}
}

func (w *Watcher) fetch(ctx context.Context) {
	n, err := w.src.UnreadNotifications(ctx)
	if err != nil {
		w.log.Debug("unread count fetch failed", zap.Error(err))
		return
	}
	select {
	case w.C <- n:
	default:
		// Drop stale undelivered count in favor of the fresh one.
		select {
		case <-w.C:
		default:
		}
		select {
		case w.C <- n:
		default:
		}
	}
}
