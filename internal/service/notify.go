package service

import (
	"context"
	"sync"
	"time"

	"go-invoice-ws/internal/events"

	"github.com/rs/zerolog"
)

const publishTimeout = 5 * time.Second

var pending sync.WaitGroup

// notify publishes an event in the background and never fails the caller.
// The publish is detached from the request's cancellation and bounded by
// publishTimeout.
func notify(ctx context.Context, pub events.Publisher, log zerolog.Logger, event events.Event) {
	if pub == nil {
		return
	}
	detached := context.WithoutCancel(ctx)

	pending.Add(1)
	go func() {
		defer pending.Done()
		ctx, cancel := context.WithTimeout(detached, publishTimeout)
		defer cancel()

		if err := pub.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("action", event.Action).Msg("Failed to publish event")
		}
	}()
}

// FlushEvents waits up to timeout for background publishes to finish and
// reports whether they all did. Call it once no new operations can start,
// before closing the publishers.
func FlushEvents(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
