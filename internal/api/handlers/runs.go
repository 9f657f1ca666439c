package handlers

import (
	"context"
	"net/http"

	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/pkg/logger"
)

// TriggerFunc starts one pipeline run on demand
type TriggerFunc func(ctx context.Context) (*contracts.PipelineRun, error)

// RunsHandler exposes pipeline run reports and manual triggering
type RunsHandler struct {
	runs    contracts.RunStore
	trigger TriggerFunc
	logger  *logger.Logger
}

// NewRunsHandler creates a new runs handler. runs and trigger may be
// nil when the corresponding backend is not configured.
func NewRunsHandler(runs contracts.RunStore, trigger TriggerFunc, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		runs:    runs,
		trigger: trigger,
		logger:  log,
	}
}

// GetLatest returns the most recent pipeline run report
// GET /api/runs/latest
func (h *RunsHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Run history is not configured")
		return
	}

	run, err := h.runs.LatestRun(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to read latest run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest run")
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "No pipeline runs recorded yet")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// Trigger starts a pipeline run and returns its report
// POST /api/runs/trigger
func (h *RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		respondError(w, http.StatusServiceUnavailable, "Manual runs are not configured")
		return
	}

	h.logger.Info("Pipeline run triggered via API")

	run, err := h.trigger(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Triggered run failed")
		if run != nil {
			respondJSON(w, http.StatusInternalServerError, run)
			return
		}
		respondError(w, http.StatusInternalServerError, "Pipeline run failed")
		return
	}

	respondJSON(w, http.StatusOK, run)
}
