package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/promptarena/promptarena/internal/service"
)

const defaultListLimit = 20

// Handlers holds the HTTP handlers for the run API.
type Handlers struct {
	runs *service.RunService
}

// NewHandlers creates the handler set around the run service.
func NewHandlers(runs *service.RunService) *Handlers {
	return &Handlers{runs: runs}
}

type submitRequest struct {
	InputText string `json:"input_text"`
}

type submitResponse struct {
	RunID string `json:"run_id"`
}

// SubmitRun handles POST /api/v1/runs.
func (h *Handlers) SubmitRun(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[submitRequest](w, r)
	if !ok {
		return
	}

	runID, err := h.runs.Submit(r.Context(), req.InputText)
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{RunID: runID})
}

// GetRun handles GET /api/v1/runs/{id}.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	snap, err := h.runs.Get(urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListRuns handles GET /api/v1/runs?limit=N.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.runs.List(limit))
}

// ListRunEvents handles GET /api/v1/runs/{id}/events: the full event history
// so far, without live tailing.
func (h *Handlers) ListRunEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.runs.Events(urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// StreamRunEvents handles GET /api/v1/runs/{id}/stream as Server-Sent
// Events: full replay of the log so far, then a live tail until the run
// reaches a terminal status.
func (h *Handlers) StreamRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := urlParam(r, "id")

	ch, err := h.runs.Watch(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range ch {
		data, err := json.Marshal(ev)
		if err != nil {
			slog.Error("marshal stream event", "run_id", runID, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

// ExplainVariant handles GET /api/v1/runs/{id}/variants/{variantID}/explain.
func (h *Handlers) ExplainVariant(w http.ResponseWriter, r *http.Request) {
	exp, err := h.runs.Explain(urlParam(r, "id"), urlParam(r, "variantID"))
	if err != nil {
		writeDomainError(w, err, "run or variant not found")
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// GetConfig handles GET /api/v1/config.
func (h *Handlers) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.runs.Config())
}

// GetStats handles GET /api/v1/stats.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.runs.Stats())
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
