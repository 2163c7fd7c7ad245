package restapi

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/bft-labs/dexcell/pkg/log"
)

// DefaultEndpoint is the base URL of the public API.
const DefaultEndpoint = "https://api.dexcell.com/v3"

// DefaultTimeout bounds each request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// HTTPClient abstracts HTTP request execution.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client or an Auth.
type Option func(*options)

type options struct {
	endpoint   string
	httpClient HTTPClient
	logger     log.Logger
	breaker    *gobreaker.Settings
}

func defaultOptions() options {
	return options{
		endpoint: DefaultEndpoint,
		logger:   log.NewNoopLogger(),
	}
}

// WithEndpoint overrides the base URL, e.g. "https://api.dexcell.com/v3".
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logging sink.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCircuitBreaker guards requests with a circuit breaker. Transport
// errors and 5xx answers count as failures; while the breaker is open calls
// fail fast with gobreaker.ErrOpenState. Requests are still never retried.
func WithCircuitBreaker(settings gobreaker.Settings) Option {
	return func(o *options) {
		o.breaker = &settings
	}
}
