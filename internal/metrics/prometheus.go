package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gftdcojp/tiervec/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Collection metrics
	Pushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiervec_pushes_total",
		Help: "Total elements pushed into each collection",
	}, []string{"collection"})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiervec_transitions_total",
		Help: "Tier transitions per collection",
	}, []string{"collection", "from_tier", "to_tier"})

	Length = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tiervec_length",
		Help: "Current number of elements in each collection",
	}, []string{"collection"})

	CurrentTier = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tiervec_tier",
		Help: "Current tier of each collection (0=small, 1=medium, 2=large)",
	}, []string{"collection"})

	// Request path metrics
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiervec_requests_total",
		Help: "API requests by surface, operation and status",
	}, []string{"surface", "op", "status"})

	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tiervec_request_duration_seconds",
		Help:    "API request latency",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"surface", "op"})
)

// ObserveRequest records one API request.
func ObserveRequest(surface, op, status string, started time.Time) {
	Requests.WithLabelValues(surface, op, status).Inc()
	RequestLatency.WithLabelValues(surface, op).Observe(time.Since(started).Seconds())
}

// RunServer starts the Prometheus metrics HTTP server.
func RunServer(ctx context.Context, cfg config.MetricsConfig) error {
	mux := http.NewServeMux()
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
