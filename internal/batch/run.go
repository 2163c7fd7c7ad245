package batch

import (
	"context"
	"time"

	"github.com/bft-labs/dexcell/pkg/message"
)

// FlushFunc sends one batch.
type FlushFunc func(ctx context.Context, msgs []message.ServiceMessage) error

// Run drains in into b and calls flush whenever the batch is full or the
// flush interval elapsed. When in is closed the remaining readings are
// flushed and Run returns nil. A flush error stops the loop.
//
// When ctx is canceled, readings already queued on in are still sent, using
// a context that is not canceled.
func Run(ctx context.Context, b Batcher, in <-chan message.ServiceMessage, tick time.Duration, flush FlushFunc) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	send := func(ctx context.Context) error {
		if !b.HasPending() {
			return nil
		}
		msgs := b.Batch()
		b.Reset()
		return flush(ctx, msgs)
	}

	for {
		select {
		case <-ctx.Done():
			final := context.WithoutCancel(ctx)
			if err := drain(final, b, in, send); err != nil {
				return err
			}
			if err := send(final); err != nil {
				return err
			}
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return send(ctx)
			}
			if b.Add(msg) {
				if err := send(ctx); err != nil {
					return err
				}
			}
		case <-ticker.C:
			if b.ShouldSend() {
				if err := send(ctx); err != nil {
					return err
				}
			}
		}
	}
}

// drain moves whatever is queued on in into b without blocking.
func drain(ctx context.Context, b Batcher, in <-chan message.ServiceMessage, send func(context.Context) error) error {
	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			if b.Add(msg) {
				if err := send(ctx); err != nil {
					return err
				}
			}
		default:
			return nil
		}
	}
}
