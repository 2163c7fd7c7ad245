package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	NoopLogger
	infos []string
}

func (r *recordingLogger) Info(msg string, fields ...Field) { r.infos = append(r.infos, msg) }

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf)).Named("DexcellSender")

	adapter.Info("insert completed",
		String("gateway", "gw-1"),
		Int("status", 200),
		Duration("elapsed", 2*time.Second),
		Err(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "insert completed", got["message"])
	assert.Equal(t, "DexcellSender", got["logger"])
	assert.Equal(t, "gw-1", got["gateway"])
	assert.Equal(t, float64(200), got["status"])
	assert.Equal(t, "boom", got["error"])
}

func TestZerologAdapter_DisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	adapter.Debug("hidden", String("k", "v"))
	assert.Zero(t, buf.Len())
}

func TestMulti(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMulti(a, nil, b)

	m.Info("hello")
	m.Debug("ignored by recorder")

	assert.Equal(t, []string{"hello"}, a.infos)
	assert.Equal(t, []string{"hello"}, b.infos)
}

func TestRegistry_FirstRegistrationWins(t *testing.T) {
	r := NewRegistry()
	first, second := &recordingLogger{}, &recordingLogger{}

	got, stored := r.Register("DexcellSender", first)
	assert.True(t, stored)
	assert.Same(t, first, got)

	got, stored = r.Register("DexcellSender", second)
	assert.False(t, stored)
	assert.Same(t, first, got)
	assert.Equal(t, 1, r.Len())

	l, ok := r.Get("DexcellSender")
	require.True(t, ok)
	assert.Same(t, first, l)

	_, ok = r.Get("other")
	assert.False(t, ok)
}

func TestRegistry_NilBecomesNoop(t *testing.T) {
	r := NewRegistry()
	got, stored := r.Register("quiet", nil)
	assert.True(t, stored)
	assert.IsType(t, &NoopLogger{}, got)
}
