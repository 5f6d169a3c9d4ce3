package serve

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gftdcojp/tiervec/internal/collection"
	"github.com/gftdcojp/tiervec/internal/config"
	"github.com/gftdcojp/tiervec/internal/metrics"
	"go.uber.org/zap"
)

type handler struct {
	registry *collection.Registry
	maxBody  int64
	logger   *zap.Logger
}

func newHandler(reg *collection.Registry, cfg config.APIConfig, logger *zap.Logger) *handler {
	maxBody := int64(cfg.MaxBody)
	if maxBody <= 0 {
		maxBody = 1024 * 1024
	}
	return &handler{
		registry: reg,
		maxBody:  maxBody,
		logger:   logger,
	}
}

func (h *handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/status", h.handleStatus)
	mux.HandleFunc("GET /v1/collections", h.handleList)
	mux.HandleFunc("GET /v1/collections/{name}", h.handleGet)
	mux.HandleFunc("POST /v1/collections/{name}/push", h.handlePush)
	mux.HandleFunc("POST /v1/collections/{name}/sort", h.handleSort)
	mux.HandleFunc("PUT /v1/collections/{name}/items/{index}", h.handleSet)
	return mux
}

// RunHTTP starts the HTTP API server.
func RunHTTP(ctx context.Context, cfg config.APIConfig, reg *collection.Registry, logger *zap.Logger) error {
	h := newHandler(reg, cfg, logger)

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: h.routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP API listening", zap.String("addr", cfg.Listen))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"collections": h.registry.Len(),
	})
	metrics.ObserveRequest("http", "status", "ok", started)
}

func (h *handler) handleList(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	writeJSON(w, http.StatusOK, h.registry.Summaries())
	metrics.ObserveRequest("http", "list", "ok", started)
}

func (h *handler) handleGet(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	c, err := h.registry.Get(r.PathValue("name"))
	if err != nil {
		h.writeError(w, "get", err, started)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
	metrics.ObserveRequest("http", "get", "ok", started)
}

func (h *handler) handlePush(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	c, err := h.registry.Get(r.PathValue("name"))
	if err != nil {
		h.writeError(w, "push", err, started)
		return
	}

	body, ok := h.readBody(w, r, "push", started)
	if !ok {
		return
	}

	vs, err := decodeValues(body)
	if err != nil {
		h.writeError(w, "push", err, started)
		return
	}

	writeJSON(w, http.StatusOK, c.Extend(vs))
	metrics.ObserveRequest("http", "push", "ok", started)
}

func (h *handler) handleSort(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	c, err := h.registry.Get(r.PathValue("name"))
	if err != nil {
		h.writeError(w, "sort", err, started)
		return
	}
	writeJSON(w, http.StatusOK, c.Sort())
	metrics.ObserveRequest("http", "sort", "ok", started)
}

func (h *handler) handleSet(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	c, err := h.registry.Get(r.PathValue("name"))
	if err != nil {
		h.writeError(w, "set", err, started)
		return
	}

	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid index"})
		metrics.ObserveRequest("http", "set", "bad_request", started)
		return
	}

	body, ok := h.readBody(w, r, "set", started)
	if !ok {
		return
	}

	v, err := decodeValue(body)
	if err != nil {
		h.writeError(w, "set", err, started)
		return
	}

	snap, err := c.Set(idx, v)
	if err != nil {
		h.writeError(w, "set", err, started)
		return
	}
	writeJSON(w, http.StatusOK, snap)
	metrics.ObserveRequest("http", "set", "ok", started)
}

// readBody reads the request body up to maxBody, answering 413 beyond it.
func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string, started time.Time) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			metrics.ObserveRequest("http", op, "too_large", started)
			return nil, false
		}
		h.writeError(w, op, err, started)
		return nil, false
	}
	return body, true
}

func (h *handler) writeError(w http.ResponseWriter, op string, err error, started time.Time) {
	status := statusFor(err)
	code := http.StatusInternalServerError
	switch status {
	case "not_found":
		code = http.StatusNotFound
	case "bad_request":
		code = http.StatusBadRequest
	default:
		h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
	metrics.ObserveRequest("http", op, status, started)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
