package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/fraudform/internal/engine"
	"github.com/gyaneshwarpardhi/fraudform/internal/inference"
	"github.com/gyaneshwarpardhi/fraudform/internal/metrics"
	"github.com/gyaneshwarpardhi/fraudform/internal/transaction"
)

const maxBodyBytes = 1 << 20

// ReloadFunc rebuilds the predictor from disk and installs it in the engine.
type ReloadFunc func() error

// Options configures optional handler behaviour.
type Options struct {
	// ShowDebug renders the aligned feature table under each form verdict.
	ShowDebug bool
	// Reload backs POST /v1/artifacts/reload; nil disables the route.
	Reload ReloadFunc
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng  *engine.Engine
	opts Options
	mux  *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, opts Options) http.Handler {
	h := &Handler{eng: eng, opts: opts, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /{$}", h.showForm)
	h.mux.HandleFunc("POST /predict", h.submitForm)
	h.mux.HandleFunc("POST /v1/predictions", h.predict)
	h.mux.HandleFunc("POST /v1/predictions/batch", h.predictBatch)
	h.mux.HandleFunc("GET /v1/schema", h.schema)
	h.mux.HandleFunc("POST /v1/artifacts/reload", h.reloadArtifacts)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/predictions — score a single transaction.
func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	var tx transaction.Transaction
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&tx); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}

	res, err := h.eng.Score(r.Context(), tx)
	if err != nil {
		writeError(w, engineStatus(err), err.Error())
		return
	}
	if !wantDebug(r) {
		res.Debug = nil
	}
	writeJSON(w, resultStatus(res), res)
}

// POST /v1/predictions/batch — score several transactions concurrently.
func (h *Handler) predictBatch(w http.ResponseWriter, r *http.Request) {
	var txs []transaction.Transaction
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&txs); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	for i := range txs {
		if txs[i].ID == "" {
			txs[i].ID = uuid.New().String()
		}
	}

	results, err := h.eng.ScoreBatch(r.Context(), txs)
	if err != nil {
		writeError(w, engineStatus(err), err.Error())
		return
	}

	debug := wantDebug(r)
	succeeded := 0
	for _, res := range results {
		if res.OK() {
			succeeded++
		}
		if !debug {
			res.Debug = nil
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id":  uuid.New().String(),
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
		"results":   results,
	})
}

// GET /v1/schema — the column order the model is fed with.
func (h *Handler) schema(w http.ResponseWriter, r *http.Request) {
	p := h.eng.Predictor()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns":     p.Order().Columns(),
		"source":      p.Order().Source(),
		"path":        p.Order().Path(),
		"probability": p.HasProbability(),
		"loaded_at":   p.LoadedAt(),
	})
}

// POST /v1/artifacts/reload — rebuild the predictor from disk.
func (h *Handler) reloadArtifacts(w http.ResponseWriter, r *http.Request) {
	if h.opts.Reload == nil {
		writeError(w, http.StatusNotFound, "artifact reload is disabled")
		return
	}
	if err := h.opts.Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	p := h.eng.Predictor()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":     true,
		"columns":      p.Order().Len(),
		"order_source": p.Order().Source(),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the scoring queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

func engineStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, engine.ErrEmptyBatch), errors.Is(err, engine.ErrBatchTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func resultStatus(res *inference.Result) int {
	if res.OK() {
		return http.StatusOK
	}
	switch res.Failure.Kind {
	case inference.KindInvalidInput:
		return http.StatusBadRequest
	case inference.KindRejected:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}

func wantDebug(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("debug"))
	return v
}
