package dexcell

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/dexcell/pkg/log"
	"github.com/bft-labs/dexcell/pkg/loghandler"
	"github.com/bft-labs/dexcell/pkg/message"
	"github.com/bft-labs/dexcell/pkg/restapi"
	"github.com/bft-labs/dexcell/pkg/sender"
)

// Config holds everything needed to talk to the DEXCell cloud.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// Gateway identifies the device readings are submitted for.
	Gateway string

	// Server, URL and HTTPS locate the insert endpoint.
	Server string
	URL    string
	HTTPS  bool

	// Timeout bounds each insert attempt.
	Timeout time.Duration

	// LoggerName selects the sender logger when a registry is used.
	LoggerName string

	// APIToken enables the REST API client.
	APIToken string

	// APIEndpoint is the REST API base URL.
	APIEndpoint string

	// LogToken enables the gateway log handler.
	LogToken string

	// LogEndpoint is the scheme and host of the log endpoint.
	LogEndpoint string

	// ForwardLogs also sends the sender's own log output to the log handler.
	ForwardLogs bool
}

// DefaultConfig returns a Config for the public DEXCell services.
func DefaultConfig() Config {
	s := sender.DefaultConfig()
	return Config{
		Gateway:     s.Gateway,
		Server:      s.Server,
		URL:         s.URL,
		HTTPS:       s.HTTPS,
		Timeout:     s.Timeout,
		LoggerName:  s.LoggerName,
		APIEndpoint: restapi.DefaultEndpoint,
		LogEndpoint: loghandler.DefaultEndpoint,
	}
}

// SenderConfig returns the sender part of c.
func (c Config) SenderConfig() sender.Config {
	return sender.Config{
		Gateway:    c.Gateway,
		Server:     c.Server,
		URL:        c.URL,
		HTTPS:      c.HTTPS,
		Timeout:    c.Timeout,
		LoggerName: c.LoggerName,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	sc := c.SenderConfig()
	sc.SetDefaults()
	if _, err := sc.Endpoint(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ForwardLogs && c.LogToken == "" {
		return fmt.Errorf("%w: forwarding logs requires a log token", ErrInvalidConfig)
	}
	return nil
}

// Client bundles the insert sender with the optional REST API client and
// log handler. API is nil without an APIToken, Logs is nil without a LogToken.
type Client struct {
	Sender *sender.Sender
	API    *restapi.Client
	Logs   *loghandler.Handler

	logger log.Logger
}

// New creates a Client. Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	c := &Client{}

	if cfg.LogToken != "" {
		var lopts []loghandler.Option
		if cfg.LogEndpoint != "" {
			lopts = append(lopts, loghandler.WithEndpoint(cfg.LogEndpoint))
		}
		if o.httpClient != nil {
			lopts = append(lopts, loghandler.WithHTTPClient(o.httpClient))
		}
		c.Logs = loghandler.New(cfg.Gateway, cfg.LogToken, lopts...)
		if cfg.ForwardLogs {
			logger = log.NewMulti(logger, c.Logs)
		}
	}
	c.logger = logger

	sopts := []sender.Option{sender.WithLogger(logger)}
	if o.httpClient != nil {
		sopts = append(sopts, sender.WithHTTPClient(o.httpClient))
	}
	if o.registry != nil {
		sopts = append(sopts, sender.WithRegistry(o.registry))
	}
	if o.registerer != nil {
		sopts = append(sopts, sender.WithMetrics(o.registerer))
	}
	if o.maxRetries != nil {
		sopts = append(sopts, sender.WithRetryInterval(o.retryInterval), sender.WithMaxRetries(*o.maxRetries))
	}
	c.Sender = sender.New(cfg.SenderConfig(), sopts...)

	if cfg.APIToken != "" {
		aopts := []restapi.Option{restapi.WithLogger(logger)}
		if cfg.APIEndpoint != "" {
			aopts = append(aopts, restapi.WithEndpoint(cfg.APIEndpoint))
		}
		if o.httpClient != nil {
			aopts = append(aopts, restapi.WithHTTPClient(o.httpClient))
		}
		if o.breaker != nil {
			aopts = append(aopts, restapi.WithCircuitBreaker(*o.breaker))
		}
		c.API = restapi.NewClient(cfg.APIToken, aopts...)
	}

	return c, nil
}

// Submit inserts msgs in one envelope. It returns ErrSubmitFailed when the
// sender gave up, so callers that only care about success can skip
// inspecting the Response.
func (c *Client) Submit(ctx context.Context, msgs ...message.ServiceMessage) error {
	return c.SubmitWith(ctx, msgs, nil)
}

// SubmitWith is Submit with per-call options such as the timezone label.
func (c *Client) SubmitWith(ctx context.Context, msgs []message.ServiceMessage, opts []sender.SubmitOption) error {
	resp, err := c.Sender.SubmitMany(ctx, msgs, opts...)
	if err != nil {
		return err
	}
	if resp.Failed() {
		return ErrSubmitFailed
	}
	c.logger.Debug("readings inserted",
		log.Int("count", len(msgs)),
		log.Int("status", resp.StatusCode))
	return nil
}

// RestAPI returns the REST API client or ErrNoAPIToken.
func (c *Client) RestAPI() (*restapi.Client, error) {
	if c.API == nil {
		return nil, ErrNoAPIToken
	}
	return c.API, nil
}
