package sender

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/dexcell/pkg/log"
	"github.com/bft-labs/dexcell/pkg/message"
)

var ts = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type clientFunc func(*http.Request) (*http.Response, error)

func (f clientFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

// fakeTimer fires immediately and records every requested delay.
type fakeTimer struct {
	mu     sync.Mutex
	c      chan time.Time
	delays []time.Duration
}

func newFakeTimer() *fakeTimer { return &fakeTimer{c: make(chan time.Time, 1)} }

func (f *fakeTimer) Start(d time.Duration) {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()
	f.c <- time.Now()
}
func (f *fakeTimer) Stop()                  {}
func (f *fakeTimer) C() <-chan time.Time    { return f.c }
func (f *fakeTimer) factory() backoff.Timer { return f }

func okResponse(status int, data string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Data": {data}},
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

// captureServer records the "data" form field of every request.
type captureServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []string
}

func newCaptureServer(t *testing.T, status int, data string) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/insert-json.htm", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		require.NoError(t, r.ParseForm())

		cs.mu.Lock()
		cs.bodies = append(cs.bodies, r.PostForm.Get("data"))
		cs.mu.Unlock()

		w.Header().Set("data", data)
		w.WriteHeader(status)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *captureServer) config(gateway string) Config {
	cfg := DefaultConfig()
	cfg.Gateway = gateway
	cfg.Server = strings.TrimPrefix(cs.URL, "http://")
	cfg.HTTPS = false
	cfg.Timeout = 5 * time.Second
	return cfg
}

func (cs *captureServer) last(t *testing.T) string {
	t.Helper()
	cs.mu.Lock()
	defer cs.mu.Unlock()
	require.NotEmpty(t, cs.bodies)
	return cs.bodies[len(cs.bodies)-1]
}

func TestSubmitOne_Envelope(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK, "inserted:1")
	s := New(srv.config("gw-1"))

	msg := message.MustNew("N1", 402, ts, 12.5, 7)
	resp, err := s.SubmitOne(context.Background(), msg, WithTimezone("UTC"))
	require.NoError(t, err)

	assert.Equal(t, Response{StatusCode: 200, Data: "inserted:1"}, resp)
	assert.False(t, resp.Failed())
	assert.Equal(t,
		`{"gatewayId":"gw-1","service":[{"nodeNetworkId":"N1","serviceNetworkId":402,"value":12.5,"seqNum":7,"timeStamp":"2024-01-01T10:00:00.000 UTC"}]}`,
		srv.last(t))
}

func TestSubmitMany_PreservesOrder(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK, "inserted:2")
	s := New(srv.config("gw-1"))

	m1 := message.MustNew("N2", 401, ts, 1, 2)
	m2 := message.MustNew("N1", 301, ts.Add(time.Minute), 21.5, 1)
	resp, err := s.SubmitMany(context.Background(), []message.ServiceMessage{m1, m2})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	assert.Equal(t,
		`{"gatewayId":"gw-1","service":[`+
			`{"nodeNetworkId":"N2","serviceNetworkId":401,"value":1,"seqNum":2,"timeStamp":"2024-01-01T10:00:00.000 UTC"},`+
			`{"nodeNetworkId":"N1","serviceNetworkId":301,"value":21.5,"seqNum":1,"timeStamp":"2024-01-01T10:01:00.000 UTC"}]}`,
		srv.last(t))
}

func TestEnvelope_ExtraFields(t *testing.T) {
	s := New(Config{Gateway: "gw-1"})
	msg := message.MustNew("N1", 402, ts, 12.5, 7)

	body, err := s.Envelope([]message.ServiceMessage{msg}, WithExtraFields(map[string]interface{}{"foo": "bar"}))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"foo":"bar"`)
	assert.Contains(t, string(body), `"gatewayId":"gw-1"`)

	body, err = s.Envelope([]message.ServiceMessage{msg}, WithExtraFields(map[string]interface{}{"gatewayId": "override"}))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"gatewayId":"override"`)
	assert.NotContains(t, string(body), "gw-1")

	// Extra fields never leak into the next call.
	body, err = s.Envelope([]message.ServiceMessage{msg})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "foo")
	assert.Contains(t, string(body), `"gatewayId":"gw-1"`)
}

func TestEnvelope_MemberOrder(t *testing.T) {
	s := New(Config{Gateway: "gw-1"})
	msg := message.MustNew("N1", 402, ts, 12.5, 7)

	body, err := s.Envelope([]message.ServiceMessage{msg}, WithExtraFields(map[string]interface{}{
		"zone":      "b",
		"foo":       "bar",
		"gatewayId": "override",
	}))
	require.NoError(t, err)
	assert.Equal(t,
		`{"gatewayId":"override","service":[{"nodeNetworkId":"N1","serviceNetworkId":402,"value":12.5,"seqNum":7,"timeStamp":"2024-01-01T10:00:00.000 UTC"}],"foo":"bar","zone":"b"}`,
		string(body))
}

func TestEnvelope_TimezoneLabelAndUTC(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	s := New(Config{Gateway: "gw"})
	msg := message.MustNew("N<1>", 402, ts.In(madrid), 1, 1)

	body, err := s.Envelope([]message.ServiceMessage{msg}, WithTimezone("CET"))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"timeStamp":"2024-01-01T10:00:00.000 CET"`)
	assert.Contains(t, string(body), `"nodeNetworkId":"N<1>"`)
}

func TestEnvelope_UnencodableExtraField(t *testing.T) {
	s := New(Config{})
	_, err := s.SubmitOne(context.Background(), message.MustNew("N1", 402, ts, 1, 1),
		WithExtraFields(map[string]interface{}{"bad": make(chan int)}))
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2024-01-01T10:00:00.000 UTC", FormatTimestamp(ts, "UTC"))
	assert.Equal(t, "2024-01-01T10:00:00.000 ", FormatTimestamp(ts.Add(999*time.Millisecond), ""))
}

func TestPostEnvelope_Headers(t *testing.T) {
	var got http.Header
	client := clientFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Clone()
		return okResponse(http.StatusOK, "ok"), nil
	})
	s := New(Config{Gateway: "gw"}, WithHTTPClient(client))

	_, err := s.PostEnvelope(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", got.Get("Content-Type"))
	assert.Equal(t, "dexcell-sender/"+Version, got.Get("User-Agent"))
}

func TestPostEnvelope_GivesUpAfterTenRetries(t *testing.T) {
	var attempts int
	client := clientFunc(func(*http.Request) (*http.Response, error) {
		attempts++
		return nil, errors.New("connection refused")
	})
	timer := newFakeTimer()
	reg := prometheus.NewRegistry()

	s := New(Config{Gateway: "gw"}, WithHTTPClient(client), WithTimer(timer.factory), WithMetrics(reg))
	resp, err := s.PostEnvelope(context.Background(), []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, Response{StatusCode: -1, Data: "FAIL"}, resp)
	assert.True(t, resp.Failed())
	assert.Equal(t, 11, attempts)
	require.Len(t, timer.delays, 10)
	for _, d := range timer.delays {
		assert.Equal(t, time.Second, d)
	}

	assert.Equal(t, 11.0, testutil.ToFloat64(s.metrics.attempts))
	assert.Equal(t, 11.0, testutil.ToFloat64(s.metrics.transportFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.giveUps))
}

func TestPostEnvelope_RecoversAfterFailures(t *testing.T) {
	var attempts int
	client := clientFunc(func(*http.Request) (*http.Response, error) {
		attempts++
		if attempts <= 3 {
			return nil, errors.New("timeout")
		}
		return okResponse(http.StatusOK, "ok"), nil
	})
	timer := newFakeTimer()

	s := New(Config{Gateway: "gw"}, WithHTTPClient(client), WithTimer(timer.factory))
	resp, err := s.PostEnvelope(context.Background(), []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, Response{StatusCode: 200, Data: "ok"}, resp)
	assert.Equal(t, 4, attempts)
	assert.Len(t, timer.delays, 3)
}

func TestPostEnvelope_ReadFailureIsRetried(t *testing.T) {
	var attempts int
	client := clientFunc(func(*http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{},
				Body:       io.NopCloser(iotest.ErrReader(errors.New("connection reset"))),
			}, nil
		}
		return okResponse(http.StatusOK, "second"), nil
	})

	s := New(Config{}, WithHTTPClient(client), WithTimer(newFakeTimer().factory))
	resp, err := s.PostEnvelope(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Data)
	assert.Equal(t, 2, attempts)
}

func TestPostEnvelope_ServerErrorIsNotRetried(t *testing.T) {
	srv := newCaptureServer(t, http.StatusInternalServerError, "")
	timer := newFakeTimer()
	reg := prometheus.NewRegistry()

	s := New(srv.config("gw"), WithTimer(timer.factory), WithMetrics(reg))
	resp, err := s.SubmitOne(context.Background(), message.MustNew("N1", 402, ts, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, Response{StatusCode: 500, Data: ""}, resp)
	assert.Empty(t, timer.delays)
	assert.Len(t, srv.bodies, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.responses.WithLabelValues("500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.readings))
}

func TestPostEnvelope_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts int
	client := clientFunc(func(r *http.Request) (*http.Response, error) {
		attempts++
		cancel()
		return nil, r.Context().Err()
	})

	s := New(Config{}, WithHTTPClient(client), WithTimer(newFakeTimer().factory))
	resp, err := s.PostEnvelope(ctx, []byte(`{}`))
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, resp.Failed())
	assert.Equal(t, 1, attempts)
}

func TestPostEnvelope_ZeroRetries(t *testing.T) {
	var attempts int
	client := clientFunc(func(*http.Request) (*http.Response, error) {
		attempts++
		return nil, errors.New("down")
	})

	s := New(Config{}, WithHTTPClient(client), WithMaxRetries(0), WithTimer(newFakeTimer().factory))
	resp, err := s.PostEnvelope(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, resp.Failed())
	assert.Equal(t, 1, attempts)
}

func TestPostEnvelope_BadEndpoint(t *testing.T) {
	s := New(Config{Server: "bad host:%%", HTTPS: false})
	resp, err := s.PostEnvelope(context.Background(), []byte(`{}`))
	assert.Error(t, err)
	assert.True(t, resp.Failed())
}

func TestConfigureAndChangeGateway(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK, "ok")
	s := New(srv.config("gw-1"))
	msg := message.MustNew("N1", 402, ts, 1, 1)

	s.ChangeGateway("gw-2")
	assert.Equal(t, "gw-2", s.Gateway())
	_, err := s.SubmitOne(context.Background(), msg)
	require.NoError(t, err)
	assert.Contains(t, srv.last(t), `"gatewayId":"gw-2"`)

	cfg := srv.config("gw-3")
	s.Configure(cfg)
	s.Configure(cfg)
	assert.Equal(t, cfg, s.Config())
	_, err = s.SubmitOne(context.Background(), msg)
	require.NoError(t, err)
	assert.Contains(t, srv.last(t), `"gatewayId":"gw-3"`)

	s.Configure(Config{})
	assert.Equal(t, DefaultServer, s.Config().Server)
	assert.Equal(t, DefaultGateway, s.Gateway())
}

func TestDefaultConfig_Endpoint(t *testing.T) {
	cfg := DefaultConfig()
	endpoint, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "https://insert.dexcell.com/insert-json.htm", endpoint)

	cfg.HTTPS = false
	endpoint, err = cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "http://insert.dexcell.com/insert-json.htm", endpoint)
}

type countingLogger struct {
	log.NoopLogger
	errors int
}

func (c *countingLogger) Error(string, ...log.Field) { c.errors++ }

func TestRegistry_SharedLoggerByName(t *testing.T) {
	reg := log.NewRegistry()
	first, second := &countingLogger{}, &countingLogger{}
	failing := clientFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("down") })

	a := New(Config{}, WithRegistry(reg), WithLogger(first), WithHTTPClient(failing), WithMaxRetries(0))
	b := New(Config{}, WithRegistry(reg), WithLogger(second), WithHTTPClient(failing), WithMaxRetries(0))

	_, _ = a.PostEnvelope(context.Background(), []byte(`{}`))
	_, _ = b.PostEnvelope(context.Background(), []byte(`{}`))

	// One transport error and one give-up per call, both on the first logger.
	assert.Equal(t, 4, first.errors)
	assert.Zero(t, second.errors)
}
