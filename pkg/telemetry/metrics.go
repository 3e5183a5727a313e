package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by the engine. A disabled
// Metrics, or a nil one, ignores every call.
type Metrics struct {
	address  string
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	trials   *prometheus.CounterVec
	steps    *prometheus.CounterVec
	faults   *prometheus.CounterVec
}

// NewMetrics registers the collectors on a private registry.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{}
	}

	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	ns := cfg.Namespace

	m := &Metrics{
		address:  cfg.Address,
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "runs_completed_total",
			Help: "Runs completed, by kind and final status.",
		}, []string{"kind", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "run_duration_seconds",
			Help: "Wall time of completed runs.", Buckets: buckets,
		}, []string{"kind"}),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "trials_total",
			Help: "Machine or network executions inside runs.",
		}, []string{"kind"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "instructions_executed_total",
			Help: "Intcode instructions executed.",
		}, []string{"kind"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "faults_total",
			Help: "Machine faults, by fault kind.",
		}, []string{"fault"}),
	}
	m.registry.MustRegister(m.runs, m.duration, m.trials, m.steps, m.faults)
	return m
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

func (m *Metrics) RecordRun(kind, status string, d time.Duration) {
	if !m.enabled() {
		return
	}
	m.runs.WithLabelValues(kind, status).Inc()
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) RecordTrial(kind string, steps uint64) {
	if !m.enabled() {
		return
	}
	m.trials.WithLabelValues(kind).Inc()
	m.steps.WithLabelValues(kind).Add(float64(steps))
}

func (m *Metrics) RecordFault(kind string) {
	if !m.enabled() {
		return
	}
	m.faults.WithLabelValues(kind).Inc()
}

// Registry returns the registry, or nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if !m.enabled() {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the OpenMetrics format.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve listens on the configured address in the background. It returns
// nil when metrics are disabled or no address is set.
func (m *Metrics) Serve(logger *Logger) *http.Server {
	if !m.enabled() || m.address == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              m.address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()
	logger.WithField("address", m.address).Info("serving metrics")
	return server
}
