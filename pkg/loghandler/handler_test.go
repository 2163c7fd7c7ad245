package loghandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/dexcell/pkg/log"
)

type received struct {
	path    string
	token   string
	ctype   string
	payload map[string]string
}

type logServer struct {
	*httptest.Server
	mu   sync.Mutex
	reqs []received
}

func newLogServer(t *testing.T, status int) *logServer {
	t.Helper()
	ls := &logServer{}
	ls.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))

		ls.mu.Lock()
		ls.reqs = append(ls.reqs, received{
			path:    r.URL.Path,
			token:   r.Header.Get(TokenHeader),
			ctype:   r.Header.Get("Content-Type"),
			payload: p,
		})
		ls.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *logServer) all() []received {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]received(nil), ls.reqs...)
}

func TestEmit(t *testing.T) {
	srv := newLogServer(t, http.StatusOK)
	h := New("00:11:22", "tok", WithEndpoint(srv.URL), WithName("DexcellSender"))

	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))
	h.Emit(Record{Level: LevelWarning, Message: "battery low", Time: at})

	reqs := srv.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/v2/gateway/log/set/00:11:22", reqs[0].path)
	assert.Equal(t, "tok", reqs[0].token)
	assert.Equal(t, "application/json", reqs[0].ctype)
	assert.Equal(t, map[string]string{
		"level":   "WARNING",
		"message": "DexcellSender - battery low",
		"tz":      "UTC",
		"ts":      "20240304040607",
	}, reqs[0].payload)
}

func TestEmit_ResponseStatusIgnored(t *testing.T) {
	srv := newLogServer(t, http.StatusInternalServerError)
	var errs []error
	h := New("gw", "tok", WithEndpoint(srv.URL), WithErrorHandler(func(err error) { errs = append(errs, err) }))

	h.Emit(Record{Level: LevelInfo, Message: "hello"})
	assert.Len(t, srv.all(), 1)
	assert.Empty(t, errs)
}

func TestEmit_FailureGoesToErrorHandler(t *testing.T) {
	var errs []error
	h := New("gw", "tok",
		WithEndpoint("http://127.0.0.1:1"),
		WithHTTPClient(&http.Client{Timeout: time.Second}),
		WithErrorHandler(func(err error) { errs = append(errs, err) }))

	assert.NotPanics(t, func() {
		h.Emit(Record{Level: LevelError, Message: "unreachable"})
	})
	require.Len(t, errs, 1)
}

func TestDefaultErrorHandler_UsesZerolog(t *testing.T) {
	orig := zerolog.ErrorHandler
	t.Cleanup(func() { zerolog.ErrorHandler = orig })

	var got error
	zerolog.ErrorHandler = func(err error) { got = err }
	defaultErrorHandler(errors.New("write failed"))
	assert.EqualError(t, got, "write failed")
}

func TestHandler_AsLogger(t *testing.T) {
	srv := newLogServer(t, http.StatusOK)
	var sink log.Logger = New("gw", "tok", WithEndpoint(srv.URL))

	sink.Info("insert", log.String("gateway", "gw"), log.Int("status", 200))
	sink.Debug("plain")

	reqs := srv.all()
	require.Len(t, reqs, 2)
	assert.Equal(t, "INFO", reqs[0].payload["level"])
	assert.Equal(t, "insert gateway=gw status=200", reqs[0].payload["message"])
	assert.Equal(t, "DEBUG", reqs[1].payload["level"])
	assert.Equal(t, "plain", reqs[1].payload["message"])
}

func TestHook(t *testing.T) {
	srv := newLogServer(t, http.StatusOK)
	h := New("gw", "tok", WithEndpoint(srv.URL))

	var local bytes.Buffer
	logger := zerolog.New(&local).Hook(h.Hook(zerolog.InfoLevel))

	logger.Debug().Msg("too verbose")
	logger.Info().Str("k", "v").Msg("started")
	logger.Error().Msg("failed")
	logger.Log().Msg("no level")

	reqs := srv.all()
	require.Len(t, reqs, 2)
	assert.Equal(t, "INFO", reqs[0].payload["level"])
	assert.Equal(t, "started", reqs[0].payload["message"])
	assert.Equal(t, "ERROR", reqs[1].payload["level"])
	assert.Contains(t, local.String(), "too verbose")
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, LevelDebug, levelName(zerolog.TraceLevel))
	assert.Equal(t, LevelWarning, levelName(zerolog.WarnLevel))
	assert.Equal(t, LevelCritical, levelName(zerolog.FatalLevel))
	assert.Equal(t, LevelCritical, levelName(zerolog.PanicLevel))
}
