// Package configwatcher reloads the dexcell configuration file when it
// changes on disk. Every write or create of the file is debounced and then
// handed to a reload callback, which the stream command uses to rebind its
// Sender without restarting.
package configwatcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/dexcell/pkg/log"
)

// Error codes for config file issues.
const (
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	ErrCodeReadError        = "READ_ERROR"
)

// ReloadFunc is called with the path of the changed file. Returning an error
// schedules another attempt after the retry interval.
type ReloadFunc func(ctx context.Context, path string) error

// Plugin watches one config file.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path          string
	reload        ReloadFunc
	retryInterval time.Duration
	debounceDelay time.Duration
	maxAttempts   int
	logger        log.Logger

	// Runtime state
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the config watcher.
type Config struct {
	// RetryInterval is the delay between reload attempts after a failure.
	// Default: 5 seconds
	RetryInterval time.Duration

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// MaxAttempts bounds reload attempts per change. Default: 3
	MaxAttempts int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryInterval: 5 * time.Second,
		DebounceDelay: 100 * time.Millisecond,
		MaxAttempts:   3,
	}
}

// New creates a watcher for path. reload runs on a timer goroutine, never
// concurrently with itself.
func New(path string, reload ReloadFunc, cfg Config, opts ...Option) *Plugin {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	p := &Plugin{
		path:          filepath.Clean(path),
		reload:        reload,
		retryInterval: cfg.RetryInterval,
		debounceDelay: cfg.DebounceDelay,
		maxAttempts:   cfg.MaxAttempts,
		logger:        log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Path returns the watched file.
func (p *Plugin) Path() string {
	return p.path
}

// Start begins watching. The directory is watched rather than the file so
// that editors which replace the file by rename are noticed too.
func (p *Plugin) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher started", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher and waits for a running reload to finish.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Lock()
	if p.debounce != nil && p.debounce.Stop() {
		p.wg.Done()
	}
	p.debounce = nil
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A timer stopped before firing never runs its func, so release its slot here.
	if p.debounce != nil && p.debounce.Stop() {
		p.wg.Done()
	}

	p.wg.Add(1)
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		defer p.wg.Done()
		p.reloadWithRetry(ctx)
	})
}

// reloadWithRetry retries at a fixed interval until success, MaxAttempts
// or cancellation.
func (p *Plugin) reloadWithRetry(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	attempt := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		return p.reload(ctx, p.path)
	}
	notify := func(err error, next time.Duration) {
		p.logger.Error("config reload failed",
			log.String("path", p.path),
			log.String("code", errorToCode(err)),
			log.Int("attempt", attempt),
			log.Duration("retry_in", next),
			log.Err(err))
	}

	// WithMaxRetries treats zero as unlimited.
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if p.maxAttempts > 1 {
		policy = backoff.WithMaxRetries(backoff.NewConstantBackOff(p.retryInterval), uint64(p.maxAttempts-1))
	}
	policy = backoff.WithContext(policy, ctx)

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if ctx.Err() == nil {
			p.logger.Error("giving up config reload",
				log.String("path", p.path),
				log.String("code", errorToCode(err)),
				log.Int("attempts", attempt),
				log.Err(err))
		}
		return
	}
	if attempt > 1 {
		p.logger.Info("config reloaded after retries", log.Int("attempts", attempt))
	} else {
		p.logger.Info("config reloaded", log.String("path", p.path))
	}
}

func errorToCode(err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrCodeFileNotFound
	}
	if errors.Is(err, fs.ErrPermission) || os.IsPermission(err) {
		return ErrCodePermissionDenied
	}
	if strings.Contains(err.Error(), "permission denied") {
		return ErrCodePermissionDenied
	}
	return ErrCodeReadError
}
