package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/procura/internal/core/domain"
)

// PipelineMetrics implements ports.PipelineObserver.
type PipelineMetrics struct {
	service string

	runTotal    *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	runInFlight prometheus.Gauge
}

func NewPipelineMetrics(service string, registry *prometheus.Registry) *PipelineMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by mode and outcome.",
		},
		[]string{"service", "mode", "outcome"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds by mode.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"service", "mode"},
	)
	runInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Number of in-flight pipeline runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(runTotal, runDuration, runInFlight)

	return &PipelineMetrics{
		service:     service,
		runTotal:    runTotal,
		runDuration: runDuration,
		runInFlight: runInFlight,
	}
}

func (m *PipelineMetrics) StartRun(domain.PipelineMode) {
	m.runInFlight.Inc()
}

func (m *PipelineMetrics) FinishRun(mode domain.PipelineMode, duration time.Duration, err error) {
	m.runInFlight.Dec()
	m.runTotal.WithLabelValues(m.service, string(mode), Outcome(err)).Inc()
	m.runDuration.WithLabelValues(m.service, string(mode)).Observe(duration.Seconds())
}

// Outcome buckets a pipeline error into a low-cardinality label.
func Outcome(err error) string {
	var (
		validationErr *domain.ValidationError
		resolutionErr *domain.ResolutionError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &validationErr):
		return "invalid"
	case errors.As(err, &resolutionErr):
		return "unresolved"
	case errors.Is(err, domain.ErrTemporary):
		return "unavailable"
	case errors.Is(err, domain.ErrRenderFailed):
		return "render_failed"
	default:
		return "error"
	}
}
