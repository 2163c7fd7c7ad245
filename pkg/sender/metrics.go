package sender

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "dexcell_sender"

type metrics struct {
	attempts          prometheus.Counter
	transportFailures prometheus.Counter
	giveUps           prometheus.Counter
	readings          prometheus.Counter
	responses         *prometheus.CounterVec
	latency           prometheus.Histogram
}

// newMetrics builds the sender collectors and registers them with reg when
// it is not nil. Collectors already registered by another Sender are reused.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "attempts_total",
			Help:      "HTTP attempts made to post an envelope, retries included.",
		}),
		transportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transport_failures_total",
			Help:      "Attempts that ended without an HTTP response.",
		}),
		giveUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "give_ups_total",
			Help:      "Envelopes abandoned after exhausting retries.",
		}),
		readings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "readings_total",
			Help:      "Readings serialised into submitted envelopes.",
		}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "responses_total",
			Help:      "HTTP responses received, by status code.",
		}, []string{"code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "post_duration_seconds",
			Help:      "Time spent posting one envelope, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	if reg == nil {
		return m
	}

	m.attempts = register(reg, m.attempts)
	m.transportFailures = register(reg, m.transportFailures)
	m.giveUps = register(reg, m.giveUps)
	m.readings = register(reg, m.readings)
	m.responses = register(reg, m.responses)
	m.latency = register(reg, m.latency)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) observeResponse(status int) {
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}
