package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bft-labs/dexcell/pkg/log"
)

var (
	ErrNotRunning      = errors.New("dexcell: not running")
	ErrAlreadyRunning  = errors.New("dexcell: already running")
	ErrShutdownTimeout = errors.New("dexcell: shutdown timeout")
)

// ShutdownTimeout is the default time Await gives a draining loop.
// One insert may spend up to eleven attempts and ten retry sleeps, so this
// is well above the default retry budget.
const ShutdownTimeout = 60 * time.Second

// Loop tracks one background goroutine across runs: its state, how to
// cancel it and when it has exited.
type Loop struct {
	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
	logger   log.Logger
	listener Listener
}

// New returns a stopped Loop. Both arguments may be nil.
func New(logger log.Logger, listener Listener) *Loop {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Loop{logger: logger, listener: listener}
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the error the last run crashed with, or nil.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Done returns a channel closed when the current run exits. It is nil
// before the first Launch.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Launch moves to Running and returns the context the goroutine must run
// under, plus the exit func it must call exactly once when it returns.
//
// exit(nil) or an exit with a context error ends in Stopped; any other
// error ends in Crashed.
func (l *Loop) Launch(ctx context.Context, reason string) (context.Context, func(error), error) {
	l.mu.Lock()
	if !canMove(l.state, StateRunning) {
		l.mu.Unlock()
		return nil, nil, ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel, l.done, l.err = cancel, done, nil
	prev := l.state
	l.state = StateRunning
	l.mu.Unlock()

	l.notify(prev, StateRunning, reason)

	var once sync.Once
	exit := func(err error) {
		once.Do(func() { l.exit(done, cancel, err) })
	}
	return runCtx, exit, nil
}

func (l *Loop) exit(done chan struct{}, cancel context.CancelFunc, err error) {
	to, reason := StateStopped, "loop finished"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "context canceled"
	default:
		to, reason = StateCrashed, err.Error()
	}

	l.mu.Lock()
	prev := l.state
	l.state = to
	if to == StateCrashed {
		l.err = err
	}
	l.mu.Unlock()

	cancel()
	l.notify(prev, to, reason)
	close(done)
}

// Drain moves a running loop to Draining. The caller then closes the loop's
// input and waits on the returned channel, usually through Await.
func (l *Loop) Drain(reason string) (<-chan struct{}, error) {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		return nil, ErrNotRunning
	}
	l.state = StateDraining
	done := l.done
	l.mu.Unlock()

	l.notify(StateRunning, StateDraining, reason)
	return done, nil
}

// Await waits for done. When timeout expires first, the run's context is
// canceled and ErrShutdownTimeout returned. A run that crashed while
// draining returns its error.
func (l *Loop) Await(done <-chan struct{}, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return l.Err()
	case <-timer.C:
		l.logger.Warn("shutdown timeout, canceling loop", log.Duration("timeout", timeout))
		l.mu.Lock()
		cancel := l.cancel
		l.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return ErrShutdownTimeout
	}
}

func (l *Loop) notify(prev, cur State, reason string) {
	if l.listener != nil {
		l.listener.OnStateChange(prev, cur, reason)
	}
	l.logger.Debug("state transition",
		log.String("from", prev.String()),
		log.String("to", cur.String()),
		log.String("reason", reason))
}
