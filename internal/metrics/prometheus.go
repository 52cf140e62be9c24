package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oarkflow/smsc-simulator/pkg/smpp"
)

// PrometheusMetricsCollector implements smpp.MetricsCollector using Prometheus
type PrometheusMetricsCollector struct {
	registry *prometheus.Registry
	logger   smpp.Logger

	// Counters
	pdusTotal          *prometheus.CounterVec
	bindsTotal         *prometheus.CounterVec
	submitsTotal       *prometheus.CounterVec
	deliveriesTotal    *prometheus.CounterVec
	forcedUnbindsTotal *prometheus.CounterVec
	rejectedConnsTotal *prometheus.CounterVec

	// Gauges
	activeSessions *prometheus.GaugeVec
	queuedMessages *prometheus.GaugeVec

	// Histograms
	tickDuration *prometheus.HistogramVec

	server *http.Server
}

// NewPrometheusMetricsCollector creates a collector registering its metrics
// under namespace on a private registry.
func NewPrometheusMetricsCollector(namespace string, logger smpp.Logger) *PrometheusMetricsCollector {
	registry := prometheus.NewRegistry()

	pmc := &PrometheusMetricsCollector{
		registry: registry,
		logger:   logger,
	}

	pmc.pdusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdus_total",
			Help:      "Total number of PDUs received and sent",
		},
		[]string{"direction", "command"},
	)

	pmc.bindsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "binds_total",
			Help:      "Total number of bind attempts",
		},
		[]string{"bind_type", "result"},
	)

	pmc.submitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submits_total",
			Help:      "Total number of submit_sm requests by response status",
		},
		[]string{"status"},
	)

	pmc.deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of deliver_sm PDUs sent",
		},
		[]string{"kind"},
	)

	pmc.forcedUnbindsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_unbinds_total",
			Help:      "Sessions unbound after an unanswered enquire_link",
		},
		nil,
	)

	pmc.rejectedConnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections refused because max_connections was reached",
		},
		nil,
	)

	pmc.activeSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of open SMPP sessions",
		},
		nil,
	)

	pmc.queuedMessages = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queued_messages",
			Help:      "Messages waiting in the store for delivery",
		},
		nil,
	)

	pmc.tickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one maintenance pass over all sessions",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		nil,
	)

	registry.MustRegister(
		pmc.pdusTotal,
		pmc.bindsTotal,
		pmc.submitsTotal,
		pmc.deliveriesTotal,
		pmc.forcedUnbindsTotal,
		pmc.rejectedConnsTotal,
		pmc.activeSessions,
		pmc.queuedMessages,
		pmc.tickDuration,
	)

	return pmc
}

// Registry exposes the underlying registry.
func (p *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return p.registry
}

// IncCounter increments a counter metric
func (p *PrometheusMetricsCollector) IncCounter(name string, labels map[string]string) {
	switch name {
	case "pdus_total":
		p.pdusTotal.With(labels).Inc()
	case "binds_total":
		p.bindsTotal.With(labels).Inc()
	case "submits_total":
		p.submitsTotal.With(labels).Inc()
	case "deliveries_total":
		p.deliveriesTotal.With(labels).Inc()
	case "forced_unbinds_total":
		p.forcedUnbindsTotal.With(labels).Inc()
	case "connections_rejected_total":
		p.rejectedConnsTotal.With(labels).Inc()
	default:
		p.unknown("counter", name)
	}
}

// SetGauge sets a gauge metric
func (p *PrometheusMetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	switch name {
	case "active_sessions":
		p.activeSessions.With(labels).Set(value)
	case "queued_messages":
		p.queuedMessages.With(labels).Set(value)
	default:
		p.unknown("gauge", name)
	}
}

// ObserveHistogram observes a value for a histogram metric
func (p *PrometheusMetricsCollector) ObserveHistogram(name string, value float64, labels map[string]string) {
	switch name {
	case "tick_duration":
		p.tickDuration.With(labels).Observe(value)
	default:
		p.unknown("histogram", name)
	}
}

// RecordDuration records a duration metric
func (p *PrometheusMetricsCollector) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	p.ObserveHistogram(name+"_duration", duration.Seconds(), labels)
}

func (p *PrometheusMetricsCollector) unknown(kind, name string) {
	if p.logger != nil {
		p.logger.Debug("Unknown metric", "kind", kind, "name", name)
	}
}

// Handler returns the HTTP handler serving the registry.
func (p *PrometheusMetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Start serves path on host:port in the background.
func (p *PrometheusMetricsCollector) Start(host string, port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, p.Handler())

	addr := net.JoinHostPort(host, fmt.Sprint(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	p.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if p.logger != nil {
				p.logger.Error("Metrics server failed", "error", err)
			}
		}
	}()

	if p.logger != nil {
		p.logger.Info("Metrics endpoint started", "address", listener.Addr().String(), "path", path)
	}
	return nil
}

// Stop stops the metrics HTTP server
func (p *PrometheusMetricsCollector) Stop(ctx context.Context) error {
	if p.server != nil {
		return p.server.Shutdown(ctx)
	}
	return nil
}
