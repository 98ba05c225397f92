package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	pagesProcessed  *prometheus.CounterVec
	costEstimate    *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vlens",
			Subsystem: "worker",
			Name:      "job_process_total",
			Help:      "Total processed jobs by outcome.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vlens",
			Subsystem: "worker",
			Name:      "job_process_duration_seconds",
			Help:      "Job pipeline duration in seconds by outcome.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vlens",
			Subsystem: "worker",
			Name:      "job_process_in_flight",
			Help:      "Number of in-flight pipeline runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	pagesProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vlens",
			Subsystem: "worker",
			Name:      "pages_processed_total",
			Help:      "Total parsed document pages.",
		},
		[]string{"service"},
	)
	costEstimate := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vlens",
			Subsystem: "worker",
			Name:      "cost_estimate_total",
			Help:      "Accumulated per-job processing cost estimate.",
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, pagesProcessed, costEstimate)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		pagesProcessed:  pagesProcessed,
		costEstimate:    costEstimate,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordJobUsage(service string, pages int, cost float64) {
	if pages > 0 {
		m.pagesProcessed.WithLabelValues(service).Add(float64(pages))
	}
	if cost > 0 {
		m.costEstimate.WithLabelValues(service).Add(cost)
	}
}
