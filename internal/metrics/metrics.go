package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the run collectors on a private registry. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	RunAttempts      prometheus.Histogram
	RunDuration      *prometheus.HistogramVec
	FinalConfidence  prometheus.Histogram
	VerdictsTotal    *prometheus.CounterVec
	EscalationsTotal *prometheus.CounterVec
	ModelCallsTotal  *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tastegate_runs_total",
				Help: "Total number of generation runs by outcome",
			},
			[]string{"outcome", "task_type"},
		),
		RunAttempts: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tastegate_run_attempts",
				Help:    "Generation attempts spent per run",
				Buckets: []float64{0, 1, 2, 3, 4},
			},
		),
		RunDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tastegate_run_duration_seconds",
				Help:    "Duration of a generation run in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"outcome"},
		),
		FinalConfidence: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tastegate_final_confidence",
				Help:    "Overall confidence when a run ends",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		VerdictsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tastegate_verdicts_total",
				Help: "Critique verdicts by severity and the check that decided them",
			},
			[]string{"severity", "rule"},
		),
		EscalationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tastegate_escalations_total",
				Help: "Escalations to human review by reason",
			},
			[]string{"reason", "urgency"},
		),
		ModelCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tastegate_model_calls_total",
				Help: "Model calls by backend and result",
			},
			[]string{"backend", "result"},
		),
	}
}

// Registry exposes the registry for scraping or textfile export.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(outcome, taskType string, attempts int, confidence float64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome, taskType).Inc()
	m.RunAttempts.Observe(float64(attempts))
	m.RunDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	m.FinalConfidence.Observe(confidence)
}

// ObserveVerdict records one critique verdict.
func (m *Metrics) ObserveVerdict(severity, rule string) {
	if m == nil {
		return
	}
	m.VerdictsTotal.WithLabelValues(severity, rule).Inc()
}

// ObserveEscalation records one escalation.
func (m *Metrics) ObserveEscalation(reason, urgency string) {
	if m == nil {
		return
	}
	m.EscalationsTotal.WithLabelValues(reason, urgency).Inc()
}

// ObserveModelCall records one model call outcome ("ok" or "error").
func (m *Metrics) ObserveModelCall(backend string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ModelCallsTotal.WithLabelValues(backend, result).Inc()
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
