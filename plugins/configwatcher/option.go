package configwatcher

import "github.com/bft-labs/dexcell/pkg/log"

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logging sink. If not provided, nothing is logged.
//
// Usage:
//
//	w := configwatcher.New(path, reload, configwatcher.DefaultConfig(),
//	    configwatcher.WithLogger(logger),
//	)
func WithLogger(logger log.Logger) Option {
	return func(p *Plugin) {
		if logger != nil {
			p.logger = logger
		}
	}
}
