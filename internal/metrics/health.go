package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gftdcojp/tiervec/internal/config"
	"github.com/nats-io/nats.go"
)

// HealthStatus represents the overall health state.
type HealthStatus struct {
	OK     bool    `json:"ok"`
	Checks []Check `json:"checks,omitempty"`
}

// Check represents an individual health check.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Counter reports how many collections are being served.
type Counter interface {
	Len() int
}

// HealthChecker runs health probes.
type HealthChecker struct {
	natsConn    *nats.Conn
	collections Counter
}

// NewHealthChecker creates a new health checker. Either dependency may be nil.
func NewHealthChecker(nc *nats.Conn, collections Counter) *HealthChecker {
	return &HealthChecker{
		natsConn:    nc,
		collections: collections,
	}
}

// Liveness checks if the process is alive.
func (h *HealthChecker) Liveness() HealthStatus {
	return HealthStatus{OK: true}
}

// Readiness checks if the service can handle requests.
func (h *HealthChecker) Readiness() HealthStatus {
	status := HealthStatus{OK: true}

	if h.natsConn != nil {
		if h.natsConn.IsConnected() {
			status.Checks = append(status.Checks, Check{
				Name: "nats", Status: "connected",
			})
		} else {
			status.OK = false
			status.Checks = append(status.Checks, Check{
				Name: "nats", Status: "disconnected",
			})
		}
	}

	if h.collections != nil {
		if h.collections.Len() == 0 {
			status.OK = false
			status.Checks = append(status.Checks, Check{
				Name: "collections", Status: "error", Error: "no collections registered",
			})
		} else {
			status.Checks = append(status.Checks, Check{
				Name: "collections", Status: "ok",
			})
		}
	}

	return status
}

// Handler returns the mux serving the liveness and readiness probes.
func (h *HealthChecker) Handler(cfg config.HealthConfig) http.Handler {
	livenessPath := cfg.LivenessPath
	if livenessPath == "" {
		livenessPath = "/healthz"
	}
	readinessPath := cfg.ReadinessPath
	if readinessPath == "" {
		readinessPath = "/readyz"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(livenessPath, func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, h.Liveness())
	})
	mux.HandleFunc(readinessPath, func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, h.Readiness())
	})
	return mux
}

func writeStatus(w http.ResponseWriter, status HealthStatus) {
	code := http.StatusOK
	if !status.OK {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

// RunHealthServer starts the health check HTTP server.
func RunHealthServer(ctx context.Context, cfg config.HealthConfig, checker *HealthChecker) error {
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: checker.Handler(cfg),
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
