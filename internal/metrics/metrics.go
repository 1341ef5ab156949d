// Package metrics exposes Prometheus collectors for the ledger service.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors, registered on a dedicated registry
type Metrics struct {
	Registry *prometheus.Registry

	RPCRequests          *prometheus.CounterVec
	RPCDuration          *prometheus.HistogramVec
	EventPublishFailures prometheus.Counter
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caixinha",
			Name:      "rpc_requests_total",
			Help:      "Handled gRPC requests by method and status code.",
		}, []string{"method", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "caixinha",
			Name:      "rpc_duration_seconds",
			Help:      "gRPC handler latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		EventPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caixinha",
			Name:      "event_publish_failures_total",
			Help:      "Ledger events that could not be published after commit.",
		}),
	}

	m.Registry.MustRegister(
		m.RPCRequests,
		m.RPCDuration,
		m.EventPublishFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveRPC records one finished call
func (m *Metrics) ObserveRPC(method, code string, elapsed time.Duration) {
	m.RPCRequests.WithLabelValues(method, code).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
