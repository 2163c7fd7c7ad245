// Package loghandler forwards log records to the DEXCell gateway log
// endpoint, where they show up next to the gateway's readings.
//
// A Handler can be used three ways: call Emit directly, install Hook() on a
// zerolog.Logger, or inject the Handler itself wherever a log.Logger is
// expected. Forwarding is best effort. Failures go to the error handler and
// never reach the code that logged.
package loghandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/dexcell/pkg/log"
)

// Defaults of the public log endpoint.
const (
	DefaultEndpoint = "http://www.dexcell.com"
	DefaultPath     = "/api/v2/gateway/log/set/"
	DefaultTimeout  = 10 * time.Second

	// TokenHeader carries the gateway token.
	TokenHeader = "x-dexcell-token"
)

// Level names understood by the endpoint.
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// Record is one log entry.
type Record struct {
	Level   string
	Message string
	Time    time.Time
}

// payload is the JSON document the endpoint expects.
type payload struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timezone  string `json:"tz"`
	Timestamp string `json:"ts"`
}

// Handler posts records for one gateway.
type Handler struct {
	gateway  string
	token    string
	endpoint string
	path     string
	name     string
	client   *http.Client
	onError  func(error)
	now      func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithEndpoint overrides scheme and host, e.g. "https://www.dexcell.com:8443".
func WithEndpoint(endpoint string) Option {
	return func(h *Handler) {
		h.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithPath overrides the path prefix the gateway id is appended to.
func WithPath(path string) Option {
	return func(h *Handler) {
		h.path = path
	}
}

// WithHTTPClient sets the client used to post records.
func WithHTTPClient(client *http.Client) Option {
	return func(h *Handler) {
		h.client = client
	}
}

// WithName prefixes every message with "<name> - ".
func WithName(name string) Option {
	return func(h *Handler) {
		h.name = name
	}
}

// WithErrorHandler receives every forwarding failure.
func WithErrorHandler(fn func(error)) Option {
	return func(h *Handler) {
		h.onError = fn
	}
}

// New creates a handler posting to <endpoint><path><gateway>.
func New(gateway, token string, opts ...Option) *Handler {
	h := &Handler{
		gateway:  gateway,
		token:    token,
		endpoint: DefaultEndpoint,
		path:     DefaultPath,
		client:   &http.Client{Timeout: DefaultTimeout},
		onError:  defaultErrorHandler,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// defaultErrorHandler reports through zerolog's global error handler, the
// same hook zerolog uses when a writer fails.
func defaultErrorHandler(err error) {
	if zerolog.ErrorHandler != nil {
		zerolog.ErrorHandler(err)
		return
	}
	fmt.Fprintf(os.Stderr, "dexcell log handler: %v\n", err)
}

// URL returns the address records are posted to.
func (h *Handler) URL() string {
	return h.endpoint + h.path + h.gateway
}

// Emit posts r and ignores the answer. It never returns an error.
func (h *Handler) Emit(r Record) {
	if err := h.send(r); err != nil {
		h.onError(err)
	}
}

func (h *Handler) send(r Record) error {
	if r.Time.IsZero() {
		r.Time = h.now()
	}
	msg := r.Message
	if h.name != "" {
		msg = h.name + " - " + msg
	}

	body, err := json.Marshal(payload{
		Level:     r.Level,
		Message:   msg,
		Timezone:  "UTC",
		Timestamp: r.Time.UTC().Format("20060102150405"),
	})
	if err != nil {
		return fmt.Errorf("marshal log record: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, h.URL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TokenHeader, h.token)
	req.Header.Set("User-Agent", UserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("send log record: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Debug forwards a debug record. Fields are appended as key=value pairs.
func (h *Handler) Debug(msg string, fields ...log.Field) { h.emitFields(LevelDebug, msg, fields) }

// Info forwards an info record.
func (h *Handler) Info(msg string, fields ...log.Field) { h.emitFields(LevelInfo, msg, fields) }

// Warn forwards a warning record.
func (h *Handler) Warn(msg string, fields ...log.Field) { h.emitFields(LevelWarning, msg, fields) }

// Error forwards an error record.
func (h *Handler) Error(msg string, fields ...log.Field) { h.emitFields(LevelError, msg, fields) }

func (h *Handler) emitFields(level, msg string, fields []log.Field) {
	h.Emit(Record{Level: level, Message: formatFields(msg, fields)})
}

func formatFields(msg string, fields []log.Field) string {
	if len(fields) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}
