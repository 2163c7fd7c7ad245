package dexcell

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/dexcell/internal/batch"
	"github.com/bft-labs/dexcell/pkg/lifecycle"
	"github.com/bft-labs/dexcell/pkg/log"
	"github.com/bft-labs/dexcell/pkg/message"
	"github.com/bft-labs/dexcell/pkg/sender"
)

// Defaults for StreamConfig.
const (
	DefaultMaxReadings   = 100
	DefaultFlushInterval = 5 * time.Second
)

// StreamConfig tunes a Streamer.
type StreamConfig struct {
	// MaxReadings sends a batch as soon as this many readings are pending.
	MaxReadings int

	// FlushInterval sends pending readings at least this often.
	FlushInterval time.Duration

	// QueueSize is the number of readings Add can buffer ahead of the
	// batch loop. Defaults to MaxReadings.
	QueueSize int

	// SubmitOptions apply to every insert, e.g. sender.WithTimezone.
	SubmitOptions []sender.SubmitOption
}

// DefaultStreamConfig returns a StreamConfig with sensible defaults.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		MaxReadings:   DefaultMaxReadings,
		FlushInterval: DefaultFlushInterval,
	}
}

func (c *StreamConfig) setDefaults() {
	if c.MaxReadings <= 0 {
		c.MaxReadings = DefaultMaxReadings
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.QueueSize <= 0 {
		c.QueueSize = c.MaxReadings
	}
}

// Streamer inserts readings in the background, several per request.
// Use Client.NewStreamer, then Start. Readings whose insert gives up are
// reported to the EventHandler and dropped; nothing is retried later.
type Streamer struct {
	client *Client
	cfg    StreamConfig
	loop   *lifecycle.Loop
	events eventEmitterWrapper
	logger log.Logger

	mu sync.RWMutex
	in chan message.ServiceMessage
}

// NewStreamer creates a stopped Streamer. handler may be nil.
func (c *Client) NewStreamer(cfg StreamConfig, handler EventHandler) *Streamer {
	cfg.setDefaults()
	events := eventEmitterWrapper{handler: handler}
	return &Streamer{
		client: c,
		cfg:    cfg,
		loop:   lifecycle.New(c.logger, events),
		events: events,
		logger: c.logger,
	}
}

// Start begins batching in the background and returns immediately.
// The provided context bounds the lifetime of the streaming goroutine. When
// it is canceled, readings already queued are flushed once and the Streamer
// stops; it can then be started again.
func (s *Streamer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, exit, err := s.loop.Launch(ctx, "Start() called")
	if err != nil {
		return err
	}
	s.in = make(chan message.ServiceMessage, s.cfg.QueueSize)

	in := s.in
	go func() {
		b := batch.NewDefaultBatcher(s.cfg.MaxReadings, s.cfg.FlushInterval)
		err := batch.Run(runCtx, b, in, tick(s.cfg.FlushInterval), s.flush)
		if err != nil && runCtx.Err() == nil {
			s.logger.Error("batch loop stopped", log.Err(err))
		}
		exit(err)
	}()
	return nil
}

// tick is how often the flush interval is checked.
func tick(flushInterval time.Duration) time.Duration {
	t := flushInterval / 4
	if t < 10*time.Millisecond {
		t = 10 * time.Millisecond
	}
	return t
}

// Add queues msg. It blocks while the queue is full.
func (s *Streamer) Add(ctx context.Context, msg message.ServiceMessage) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loop.State() != lifecycle.StateRunning {
		return ErrNotRunning
	}
	done := s.loop.Done()
	select {
	case <-done:
		return ErrNotRunning
	default:
	}
	select {
	case s.in <- msg:
		return nil
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop flushes pending readings and waits for the batch loop to finish.
// It returns ErrNotRunning when the Streamer is not running, the loop's
// error when the final flush failed, and ErrShutdownTimeout if the flush
// takes longer than lifecycle.ShutdownTimeout.
func (s *Streamer) Stop() error {
	s.mu.Lock()
	done, err := s.loop.Drain("Stop() called")
	if err != nil {
		s.mu.Unlock()
		return err
	}
	close(s.in)
	s.mu.Unlock()

	return s.loop.Await(done, lifecycle.ShutdownTimeout)
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Streamer) Status() lifecycle.State {
	return s.loop.State()
}

// Err returns the error that stopped the last run, or nil.
func (s *Streamer) Err() error {
	return s.loop.Err()
}

func (s *Streamer) flush(ctx context.Context, msgs []message.ServiceMessage) error {
	start := time.Now()
	resp, err := s.client.Sender.SubmitMany(ctx, msgs, s.cfg.SubmitOptions...)
	ev := BatchEvent{
		Readings:   msgs,
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
		Err:        err,
	}

	switch {
	case err != nil && ctx.Err() != nil:
		s.events.batchFailed(ev)
		return nil
	case err != nil:
		s.events.batchFailed(ev)
		return err
	case resp.Failed():
		ev.Err = ErrSubmitFailed
		s.events.batchFailed(ev)
		s.logger.Warn("batch dropped", log.Int("readings", len(msgs)))
		return nil
	}

	s.events.batchSent(ev)
	return nil
}
