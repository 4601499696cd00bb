package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes engine counters and gauges via Prometheus.
type Recorder struct {
	evaluations  *prometheus.CounterVec
	gateVerdicts *prometheus.CounterVec
	signals      *prometheus.CounterVec
	relaxSteps   prometheus.Counter
	lastEdge     *prometheus.GaugeVec
	lastPrice    *prometheus.GaugeVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepulse_evaluations_total",
				Help: "Total symbol evaluations",
			},
			[]string{"symbol", "result"},
		),
		gateVerdicts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepulse_gate_verdicts_total",
				Help: "Risk gate verdicts by outcome reason",
			},
			[]string{"allowed", "reason"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepulse_signals_total",
				Help: "Signals by lifecycle transition",
			},
			[]string{"status"},
		),
		relaxSteps: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "edgepulse_relaxation_steps_total",
				Help: "Threshold relaxation steps taken during scans",
			},
		),
		lastEdge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edgepulse_last_edge",
				Help: "Last fused edge score for a symbol",
			},
			[]string{"symbol", "side"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edgepulse_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepulse_errors_total",
				Help: "Total errors by type",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgepulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluation records a per-symbol evaluation outcome.
func (r *Recorder) RecordEvaluation(symbol, result string) {
	r.evaluations.WithLabelValues(symbol, result).Inc()
}

// RecordGateVerdict records a risk gate decision.
func (r *Recorder) RecordGateVerdict(allowed bool, reason string) {
	v := "false"
	if allowed {
		v = "true"
		reason = "ok"
	}
	r.gateVerdicts.WithLabelValues(v, reason).Inc()
}

// RecordSignal records a signal lifecycle event.
func (r *Recorder) RecordSignal(status string) {
	r.signals.WithLabelValues(status).Inc()
}

// RecordRelaxStep records one threshold relaxation step.
func (r *Recorder) RecordRelaxStep() {
	r.relaxSteps.Inc()
}

// RecordEdge records the latest fused edge for a symbol.
func (r *Recorder) RecordEdge(symbol, side string, edge float64) {
	r.lastEdge.WithLabelValues(symbol, side).Set(edge)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
