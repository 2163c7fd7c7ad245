package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/dexcell/internal/cliconfig"
	"github.com/bft-labs/dexcell/pkg/dexcell"
	"github.com/bft-labs/dexcell/pkg/log"
	"github.com/bft-labs/dexcell/pkg/message"
	"github.com/bft-labs/dexcell/pkg/sender"
	"github.com/bft-labs/dexcell/pkg/state"
	"github.com/bft-labs/dexcell/plugins/configwatcher"
)

func newStreamCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Read JSON lines from stdin and insert them in batches",
		Long: `Read readings from stdin, one JSON object per line:

  {"node":"n1","service":"active_energy","value":12.5,"seq":7,"ts":"2024-01-01T10:00:00Z"}

"seq" and "ts" are optional. Readings are sent when --max-readings are
pending or --flush-interval elapsed. Edits to the config file are applied
without restarting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.stream(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().IntVar(&a.cfg.MaxReadings, "max-readings", a.cfg.MaxReadings, "readings per insert request")
	cmd.Flags().DurationVar(&a.cfg.FlushInterval, "flush-interval", a.cfg.FlushInterval, "send pending readings at least this often")
	return cmd
}

func (a *app) stream(ctx context.Context, in io.Reader) error {
	repo := state.NewFileRepository(a.cfg.StateDir)
	loaded, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load sequence state: %w", err)
	}
	seqs := &sequences{st: loaded}

	streamer := a.client.NewStreamer(dexcell.StreamConfig{
		MaxReadings:   a.cfg.MaxReadings,
		FlushInterval: a.cfg.FlushInterval,
		SubmitOptions: []sender.SubmitOption{sender.WithTimezone(a.cfg.Timezone)},
	}, &streamEvents{a: a, repo: repo, seqs: seqs})

	if a.cfgPath != "" && cliconfig.FileExists(a.cfgPath) {
		w := configwatcher.New(a.cfgPath, a.reload, configwatcher.DefaultConfig(),
			configwatcher.WithLogger(log.NewZerologAdapterWithLogger(a.logger).Named("configwatcher")))
		if err := w.Start(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("config watcher disabled")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = w.Shutdown(shutdownCtx)
			}()
		}
	}

	if err := streamer.Start(ctx); err != nil {
		return err
	}

	var readErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		readErr = a.readLines(ctx, in, seqs, streamer)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Info().Msg("received signal, stopping")
	}

	// A canceled or crashed loop has already stopped by itself.
	if err := streamer.Stop(); err != nil && !errors.Is(err, dexcell.ErrNotRunning) {
		return fmt.Errorf("stop stream: %w", err)
	}
	if err := streamer.Err(); err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	select {
	case <-done:
		return readErr
	default:
		// still blocked reading stdin
		return nil
	}
}

// streamEvents persists sequence numbers after every inserted batch.
type streamEvents struct {
	a    *app
	repo state.Repository
	seqs *sequences
}

func (e *streamEvents) OnStateChange(ev dexcell.StateChangeEvent) {
	e.a.logger.Debug().
		Stringer("from", ev.Previous).
		Stringer("to", ev.Current).
		Str("reason", ev.Reason).
		Msg("stream state changed")
}

func (e *streamEvents) OnBatchSent(ev dexcell.BatchEvent) {
	if err := e.repo.Save(context.Background(), e.seqs.inserted(time.Now())); err != nil {
		e.a.logger.Warn().Err(err).Msg("failed to save sequence state")
	}
	e.a.logger.Info().
		Int("readings", len(ev.Readings)).
		Int("status", ev.StatusCode).
		Dur("took", ev.Duration).
		Msg("batch inserted")
}

// OnBatchFailed only logs: nothing is buffered for later, so the batch is
// lost and streaming goes on.
func (e *streamEvents) OnBatchFailed(ev dexcell.BatchEvent) {
	e.a.logger.Error().
		Err(ev.Err).
		Int("readings", len(ev.Readings)).
		Msg("batch failed")
}

// sequences guards the state shared by the reading goroutine, which assigns
// numbers, and the batch loop, which saves them.
type sequences struct {
	mu sync.Mutex
	st state.State
}

func (s *sequences) assign(msg *message.ServiceMessage, hasSeq bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hasSeq {
		s.st.Observe(msg.Node, msg.SeqNum)
		return
	}
	msg.SeqNum = s.st.Next(msg.Node)
}

// inserted marks a successful insert and returns a copy safe to persist.
func (s *sequences) inserted(at time.Time) state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.MarkInserted(at)
	nodes := make(map[string]int64, len(s.st.Nodes))
	for k, v := range s.st.Nodes {
		nodes[k] = v
	}
	return state.State{Nodes: nodes, LastInsertAt: s.st.LastInsertAt}
}

// readLines decodes in and queues each reading until EOF. Malformed lines
// are logged and skipped.
func (a *app) readLines(ctx context.Context, in io.Reader, seqs *sequences, streamer *dexcell.Streamer) error {
	sc := bufio.NewScanner(in)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		msg, hasSeq, err := decodeLine(b, time.Now())
		if err != nil {
			a.logger.Warn().Err(err).Int("line", line).Msg("skipping reading")
			continue
		}
		seqs.assign(&msg, hasSeq)

		if err := streamer.Add(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("queue reading: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

// reload re-reads the config file and rebinds the sender. Flags given on
// the command line still win over the file; settings removed from the file
// keep their current value, including one set by an earlier reload.
func (a *app) reload(ctx context.Context, path string) error {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()

	cfg := a.cfg
	if err := cliconfig.Load(&cfg, path, a.changed); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	sc := cfg.Library().SenderConfig()
	a.client.Sender.Configure(sc)
	a.logger.Info().
		Str("gateway", sc.Gateway).
		Str("server", sc.Server).
		Msg("sender reconfigured")
	return nil
}
