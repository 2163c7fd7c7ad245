package sender

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bft-labs/dexcell/pkg/log"
	"github.com/bft-labs/dexcell/pkg/message"
)

// Sentinel response returned once every attempt has failed.
const (
	FailStatus = -1
	FailData   = "FAIL"
)

// Response is what the insert endpoint answered.
type Response struct {
	// StatusCode is the HTTP status, or FailStatus.
	StatusCode int

	// Data is the opaque "data" response header, or FailData.
	Data string
}

// Failed reports whether r is the sentinel returned after giving up.
func (r Response) Failed() bool {
	return r.StatusCode == FailStatus
}

func failure() Response {
	return Response{StatusCode: FailStatus, Data: FailData}
}

// Sender posts readings on behalf of one gateway.
// Calls are synchronous; the mutex only keeps Configure and ChangeGateway
// from tearing the snapshot a submission works with.
type Sender struct {
	mu       sync.RWMutex
	cfg      Config
	logger   log.Logger
	fallback log.Logger

	client        HTTPClient
	registry      *log.Registry
	retryInterval time.Duration
	maxRetries    uint64
	newTimer      func() backoff.Timer
	metrics       *metrics
}

// New creates a Sender. Empty fields of cfg are filled with defaults.
func New(cfg Config, opts ...Option) *Sender {
	cfg.SetDefaults()

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	client := o.httpClient
	if client == nil {
		client = &http.Client{}
	}
	fallback := o.logger
	if fallback == nil {
		fallback = log.NewNoopLogger()
	}

	s := &Sender{
		cfg:           cfg,
		fallback:      fallback,
		client:        client,
		registry:      o.registry,
		retryInterval: o.retryInterval,
		maxRetries:    o.maxRetries,
		newTimer:      o.newTimer,
		metrics:       newMetrics(o.registerer),
	}
	s.logger = s.resolveLogger(cfg.LoggerName)
	return s
}

func (s *Sender) resolveLogger(name string) log.Logger {
	if s.registry == nil {
		return s.fallback
	}
	l, _ := s.registry.Register(name, s.fallback)
	return l
}

// Configure rebinds the connection parameters. It may be called any number
// of times; submissions already running keep the configuration they started
// with. Empty fields fall back to defaults.
func (s *Sender) Configure(cfg Config) {
	cfg.SetDefaults()
	logger := s.resolveLogger(cfg.LoggerName)

	s.mu.Lock()
	s.cfg = cfg
	s.logger = logger
	s.mu.Unlock()
}

// ChangeGateway sets the gateway id used by subsequent submissions.
func (s *Sender) ChangeGateway(gateway string) {
	s.mu.Lock()
	s.cfg.Gateway = gateway
	s.mu.Unlock()
}

// Gateway returns the current gateway id.
func (s *Sender) Gateway() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Gateway
}

// Config returns a copy of the current configuration.
func (s *Sender) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Sender) snapshot() (Config, log.Logger) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.logger
}

// Envelope returns the JSON document SubmitMany would post for msgs.
func (s *Sender) Envelope(msgs []message.ServiceMessage, opts ...SubmitOption) ([]byte, error) {
	return buildEnvelope(s.Gateway(), msgs, newSubmitOptions(opts))
}

// SubmitOne posts a single reading.
// The error is non-nil only when the envelope cannot be built or the
// endpoint is malformed; transport failures end in resp.Failed().
func (s *Sender) SubmitOne(ctx context.Context, msg message.ServiceMessage, opts ...SubmitOption) (Response, error) {
	return s.submit(ctx, []message.ServiceMessage{msg}, opts)
}

// SubmitMany posts msgs in one envelope, preserving their order.
func (s *Sender) SubmitMany(ctx context.Context, msgs []message.ServiceMessage, opts ...SubmitOption) (Response, error) {
	return s.submit(ctx, msgs, opts)
}

func (s *Sender) submit(ctx context.Context, msgs []message.ServiceMessage, opts []SubmitOption) (Response, error) {
	cfg, logger := s.snapshot()

	body, err := buildEnvelope(cfg.Gateway, msgs, newSubmitOptions(opts))
	if err != nil {
		return failure(), err
	}
	s.metrics.readings.Add(float64(len(msgs)))
	return s.post(ctx, cfg, logger, body)
}

// PostEnvelope posts an already serialised envelope.
func (s *Sender) PostEnvelope(ctx context.Context, envelope []byte) (Response, error) {
	cfg, logger := s.snapshot()
	return s.post(ctx, cfg, logger, envelope)
}

func (s *Sender) post(ctx context.Context, cfg Config, logger log.Logger, envelope []byte) (Response, error) {
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return failure(), err
	}
	form := url.Values{"data": {string(envelope)}}.Encode()

	var (
		resp     Response
		failures int
		start    = time.Now()
	)
	op := func() error {
		s.metrics.attempts.Inc()
		r, err := s.attempt(ctx, cfg.Timeout, endpoint, form)
		if err != nil {
			failures++
			s.metrics.transportFailures.Inc()
			logger.Error("error inserting data",
				log.String("gateway", cfg.Gateway),
				log.Int("failures", failures),
				log.Err(err))
			return err
		}
		resp = r
		return nil
	}

	// WithMaxRetries treats zero as unlimited, so no retries needs its own policy.
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if s.maxRetries > 0 {
		policy = backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryInterval), s.maxRetries)
	}
	policy = backoff.WithContext(policy, ctx)

	var timer backoff.Timer
	if s.newTimer != nil {
		timer = s.newTimer()
	}

	err = backoff.RetryNotifyWithTimer(op, policy, nil, timer)
	s.metrics.latency.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Warn("insert canceled",
				log.String("gateway", cfg.Gateway),
				log.Int("failures", failures),
				log.Err(ctxErr))
			return failure(), ctxErr
		}
		s.metrics.giveUps.Inc()
		logger.Error("giving up inserting data",
			log.String("gateway", cfg.Gateway),
			log.Int("attempts", failures),
			log.Err(err))
		return failure(), nil
	}

	s.metrics.observeResponse(resp.StatusCode)
	logger.Debug("insert",
		log.String("gateway", cfg.Gateway),
		log.Int("status", resp.StatusCode),
		log.String("data", resp.Data))
	return resp, nil
}

// attempt performs one POST. Only failures to get a complete response are
// errors; the status code is never inspected.
func (s *Sender) attempt(ctx context.Context, timeout time.Duration, endpoint, form string) (Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Data: resp.Header.Get("data")}, nil
}
