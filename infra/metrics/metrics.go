package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fxconvert"

// Conversion outcomes recorded by RecordConversion.
const (
	OutcomeSuccess     = "success"
	OutcomeIdentity    = "identity"
	OutcomeMissingRate = "missing_rate"
	OutcomeError       = "error"
)

// Metrics holds the collectors for the rate client and the conversion state.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Upstream requests by operation and result
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec

	// Conversions by outcome
	ConversionsTotal *prometheus.CounterVec

	// Currency loads by outcome
	CurrencyLoadsTotal *prometheus.CounterVec

	// Operations currently running
	InFlight prometheus.Gauge
}

// New registers the collectors on reg. Passing prometheus.DefaultRegisterer
// exposes them through promhttp.Handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Requests sent to the exchange-rate API",
			},
			[]string{"op", "result"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Latency of exchange-rate API requests",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"op"},
		),
		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Settled conversions by outcome",
			},
			[]string{"outcome"},
		),
		CurrencyLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "currency_loads_total",
				Help:      "Settled currency list loads by outcome",
			},
			[]string{"outcome"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "operations_in_flight",
				Help:      "Load and convert operations currently running",
			},
		),
	}
}

// ObserveUpstream records one exchange-rate API request.
func (m *Metrics) ObserveUpstream(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.UpstreamRequestsTotal.WithLabelValues(op, result).Inc()
	m.UpstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RecordConversion counts a settled conversion.
func (m *Metrics) RecordConversion(outcome string) {
	if m == nil {
		return
	}
	m.ConversionsTotal.WithLabelValues(outcome).Inc()
}

// RecordCurrencyLoad counts a settled currency load.
func (m *Metrics) RecordCurrencyLoad(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.CurrencyLoadsTotal.WithLabelValues(outcome).Inc()
}

// OperationStarted and OperationFinished track InFlight.
func (m *Metrics) OperationStarted() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *Metrics) OperationFinished() {
	if m == nil {
		return
	}
	m.InFlight.Dec()
}
