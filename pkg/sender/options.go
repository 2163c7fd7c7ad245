package sender

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/dexcell/pkg/log"
)

// Retry policy. See the package documentation before changing it.
const (
	DefaultRetryInterval = time.Second
	DefaultMaxRetries    = 10
)

// Option configures optional behavior of a Sender.
type Option func(*options)

type options struct {
	httpClient    HTTPClient
	logger        log.Logger
	registry      *log.Registry
	registerer    prometheus.Registerer
	retryInterval time.Duration
	maxRetries    uint64
	newTimer      func() backoff.Timer
}

func defaultOptions() options {
	return options{
		retryInterval: DefaultRetryInterval,
		maxRetries:    DefaultMaxRetries,
	}
}

// WithHTTPClient sets the client used for every attempt.
// If not provided, a default *http.Client is used; Config.Timeout applies either way.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logging sink.
// When a Registry is also given, the logger is registered under Config.LoggerName.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry resolves the logger by Config.LoggerName. Senders sharing a
// registry and a logger name share the first logger registered under it.
func WithRegistry(r *log.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithMetrics registers the sender collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithRetryInterval overrides the constant delay between attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		o.retryInterval = d
	}
}

// WithMaxRetries overrides how many times a failed attempt is retried.
func WithMaxRetries(n uint64) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithTimer sets the factory for the timer that paces retries.
// Tests use it to observe delays without sleeping.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(o *options) {
		o.newTimer = newTimer
	}
}

// SubmitOption customises a single submission.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	timezone string
	extra    map[string]interface{}
}

func newSubmitOptions(opts []SubmitOption) submitOptions {
	o := submitOptions{timezone: DefaultTimezone}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTimezone sets the label appended to every reading timestamp.
// The timestamp itself is always rendered in UTC: a label other than "UTC"
// does not shift the digits, so "10:00:00.000 CET" still means 10:00 UTC.
func WithTimezone(tz string) SubmitOption {
	return func(o *submitOptions) {
		o.timezone = tz
	}
}

// WithExtraFields merges fields into the top level of the envelope. They are
// applied after gatewayId and service, so they can replace either. The map
// is copied; later changes by the caller have no effect.
func WithExtraFields(fields map[string]interface{}) SubmitOption {
	return func(o *submitOptions) {
		if o.extra == nil {
			o.extra = make(map[string]interface{}, len(fields))
		}
		for k, v := range fields {
			o.extra[k] = v
		}
	}
}
