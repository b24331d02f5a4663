package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

type SweeperMetrics struct {
	registry *prometheus.Registry

	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	analysisInFlight prometheus.Gauge
	sweepDuration    *prometheus.HistogramVec
	sweepCandidates  *prometheus.CounterVec
	queueEventsTotal *prometheus.CounterVec
}

func NewSweeperMetrics(service string) *SweeperMetrics {
	registry := prometheus.NewRegistry()

	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "sweeper",
			Name:      "analysis_total",
			Help:      "Total grade analysis runs by status.",
		},
		[]string{"service", "status"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recruit",
			Subsystem: "sweeper",
			Name:      "analysis_duration_seconds",
			Help:      "Grade analysis duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	analysisInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "recruit",
			Subsystem: "sweeper",
			Name:      "analysis_in_flight",
			Help:      "Number of in-flight grade analysis runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sweepDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recruit",
			Subsystem: "sweeper",
			Name:      "sweep_duration_seconds",
			Help:      "Full reconciliation sweep duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service"},
	)
	sweepCandidates := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "sweeper",
			Name:      "sweep_candidates_total",
			Help:      "Candidates seen by reconciliation sweeps, by outcome.",
		},
		[]string{"service", "outcome"},
	)
	queueEventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "sweeper",
			Name:      "queue_events_total",
			Help:      "Completion events consumed from the queue by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(analysisTotal, analysisDuration, analysisInFlight, sweepDuration, sweepCandidates, queueEventsTotal)

	return &SweeperMetrics{
		registry:         registry,
		analysisTotal:    analysisTotal,
		analysisDuration: analysisDuration,
		analysisInFlight: analysisInFlight,
		sweepDuration:    sweepDuration,
		sweepCandidates:  sweepCandidates,
		queueEventsTotal: queueEventsTotal,
	}
}

func (m *SweeperMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SweeperMetrics) StartAnalysis() {
	m.analysisInFlight.Inc()
}

func (m *SweeperMetrics) FinishAnalysis(service string, duration time.Duration, err error) {
	m.analysisInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.analysisTotal.WithLabelValues(service, status).Inc()
	m.analysisDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *SweeperMetrics) ObserveSweep(service string, duration time.Duration, report domain.SweepReport) {
	m.sweepDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.sweepCandidates.WithLabelValues(service, "created").Add(float64(report.Created))
	m.sweepCandidates.WithLabelValues(service, "skipped").Add(float64(report.Skipped))
	m.sweepCandidates.WithLabelValues(service, "failed").Add(float64(report.Failed))
}

func (m *SweeperMetrics) RecordQueueEvent(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.queueEventsTotal.WithLabelValues(service, status).Inc()
}
