package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/dexcell/internal/cliconfig"
	"github.com/bft-labs/dexcell/pkg/dexcell"
	"github.com/bft-labs/dexcell/pkg/log"
	"github.com/bft-labs/dexcell/pkg/loghandler"
)

const helpDescription = `
Push sensor readings to the DEXCell energy-management cloud and query its REST API.

Highlights:
  - Inserts are retried every second, up to ten times, before giving up.
  - Sequence numbers are tracked per node when --seq is omitted.
  - Configure via file ($HOME/.dexcell/config.toml), DEXCELL_* env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  dexcell insert --gateway 00:1A:2B:3C --node n1 --service active_energy --value 12.5
  tail -f readings.jsonl | dexcell stream --max-readings 50
  dexcell api get /locations/42/devices --token <api-token>
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries what every subcommand needs once flags, file and env are merged.
// cfgMu guards cfg once the config watcher is running.
type app struct {
	cfgMu   sync.Mutex
	cfg     cliconfig.Config
	cfgPath string
	changed map[string]bool

	logger zerolog.Logger
	closer io.Closer
	client *dexcell.Client
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "dexcell",
		Short:         "DEXCell telemetry client",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "services" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closer != nil {
				_ = a.closer.Close()
			}
		},
	}

	cfg := &a.cfg
	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.dexcell/config.toml)")
	f.StringVar(&cfg.Gateway, "gateway", cfg.Gateway, "gateway id readings are submitted for")
	f.StringVar(&cfg.Server, "server", cfg.Server, "insert server host[:port]")
	f.StringVar(&cfg.URL, "url", cfg.URL, "insert path on the server")
	f.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "use plain HTTP for inserts")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-attempt HTTP timeout")
	f.StringVar(&cfg.Timezone, "timezone", cfg.Timezone, "timezone label appended to reading timestamps")
	f.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "insert retries after the first attempt")
	f.DurationVar(&cfg.RetryInterval, "retry-interval", cfg.RetryInterval, "delay between insert attempts")
	f.StringVar(&cfg.Token, "token", cfg.Token, "REST API token")
	f.StringVar(&cfg.APIEndpoint, "api-endpoint", cfg.APIEndpoint, "REST API base URL")
	f.StringVar(&cfg.LogToken, "log-token", cfg.LogToken, "gateway token for the log endpoint")
	f.StringVar(&cfg.LogEndpoint, "log-endpoint", cfg.LogEndpoint, "log endpoint scheme and host")
	f.BoolVar(&cfg.ForwardLogs, "forward-logs", cfg.ForwardLogs, "also send log output to the gateway log endpoint")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	f.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append JSON logs to this file")
	f.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for sequence.json (default: $HOME/.dexcell)")

	if err := root.PersistentFlags().MarkHidden("url"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to hide url flag: %v\n", err)
	}

	root.AddCommand(
		newInsertCmd(a),
		newStreamCmd(a),
		newAPICmd(a),
		newServicesCmd(),
	)
	return root
}

// setup merges config sources, builds the logger and the client.
func (a *app) setup(cmd *cobra.Command) error {
	if a.cfgPath == "" {
		a.cfgPath = cliconfig.DefaultConfigPath()
	}

	a.changed = map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { a.changed[f.Name] = true })

	if err := cliconfig.Load(&a.cfg, a.cfgPath, a.changed); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := cliconfig.Logger(a.cfg.LogLevel, a.cfg.LogFile)
	if err != nil {
		return err
	}
	a.closer = closer

	if a.cfg.ForwardLogs {
		logs := loghandler.New(a.cfg.Gateway, a.cfg.LogToken, loghandler.WithEndpoint(a.cfg.LogEndpoint))
		logger = logger.Hook(logs.Hook(logger.GetLevel()))
	}
	a.logger = logger

	// The hook above already forwards everything the CLI logs, sender output included.
	lib := a.cfg.Library()
	lib.ForwardLogs = false

	client, err := dexcell.New(lib,
		dexcell.WithLogger(log.NewZerologAdapterWithLogger(logger)),
		dexcell.WithRetry(a.cfg.RetryInterval, uint64(a.cfg.MaxRetries)),
	)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	a.client = client

	a.logger.Debug().Interface("config", a.cfg.Masked()).Msg("configuration")
	return nil
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig()}
	root := newRootCmd(a)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dexcell: %v\n", err)
		os.Exit(1)
	}
}
