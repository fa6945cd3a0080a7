// Package metrics exposes Prometheus counters and gauges for the scheduler,
// the conversation engine and the Telegram channel.
//
// All methods are safe on a nil *Metrics so components can run without
// instrumentation in tests.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mailbot"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	jobsScheduled  *prometheus.CounterVec
	jobsFired      *prometheus.CounterVec
	jobDuration    prometheus.Histogram
	jobsPending    prometheus.Gauge
	messagesTotal  *prometheus.CounterVec
	llmRequests    *prometheus.CounterVec
	sessionsActive prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		jobsScheduled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_scheduled_total",
				Help:      "Number of delivery jobs registered",
			},
			[]string{"kind"},
		),
		jobsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_fired_total",
				Help:      "Number of delivery jobs executed by outcome",
			},
			[]string{"outcome"},
		),
		jobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Duration of delivery job execution",
				Buckets:   []float64{.1, .5, 1, 2, 5, 10, 30, 60},
			},
		),
		jobsPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "jobs_pending",
				Help:      "Jobs currently held by the job store",
			},
		),
		messagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Inbound messages by type",
			},
			[]string{"type"},
		),
		llmRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "LLM chat requests by status",
			},
			[]string{"status"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Conversation sessions currently held in memory",
			},
		),
	}

	reg.MustRegister(
		m.jobsScheduled,
		m.jobsFired,
		m.jobDuration,
		m.jobsPending,
		m.messagesTotal,
		m.llmRequests,
		m.sessionsActive,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns the underlying registry (used by tests and the HTTP handler).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) JobScheduled(kind string) {
	if m == nil {
		return
	}
	m.jobsScheduled.WithLabelValues(kind).Inc()
}

func (m *Metrics) JobFired(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobsFired.WithLabelValues(outcome).Inc()
	m.jobDuration.Observe(d.Seconds())
}

func (m *Metrics) SetJobsPending(n int) {
	if m == nil {
		return
	}
	m.jobsPending.Set(float64(n))
}

func (m *Metrics) MessageReceived(kind string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) LLMRequest(status string) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

// Server serves /metrics over HTTP.
type Server struct {
	srv    *http.Server
	logger *logger.Logger
}

// NewServer builds an HTTP server exposing m on listen.
func NewServer(listen string, m *Metrics, log *logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	return &Server{
		srv: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

// Start listens in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server listening", logger.Field{Key: "addr", Value: s.srv.Addr})
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
