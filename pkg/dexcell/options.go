package dexcell

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/bft-labs/dexcell/pkg/log"
)

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient    *http.Client
	logger        log.Logger
	registry      *log.Registry
	registerer    prometheus.Registerer
	breaker       *gobreaker.Settings
	retryInterval time.Duration
	maxRetries    *uint64
}

// WithHTTPClient sets the client shared by the sender, the REST API and the
// log handler. If not provided, each gets a client with its own timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logging sink. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry shares loggers by name with other senders.
func WithRegistry(r *log.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithMetrics registers the sender metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithCircuitBreaker guards REST API calls with a circuit breaker.
func WithCircuitBreaker(settings gobreaker.Settings) Option {
	return func(o *options) {
		o.breaker = &settings
	}
}

// WithRetry overrides the insert retry policy.
func WithRetry(interval time.Duration, maxRetries uint64) Option {
	return func(o *options) {
		o.retryInterval = interval
		o.maxRetries = &maxRetries
	}
}
