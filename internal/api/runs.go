package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborline-systems/flotilla/internal/optimize"
	"github.com/harborline-systems/flotilla/internal/runner"
	"github.com/harborline-systems/flotilla/internal/store"
)

// OptimizerFactory builds an optimizer over the service's configured
// search space. The API layer supplies only the tunables.
type OptimizerFactory func(params optimize.Params, cons optimize.ConstraintSet) (*optimize.Optimizer, error)

type RunsHandler struct {
	runner  *runner.Runner
	store   store.Store
	factory OptimizerFactory
}

func NewRunsHandler(r *runner.Runner, s store.Store, factory OptimizerFactory) *RunsHandler {
	return &RunsHandler{runner: r, store: s, factory: factory}
}

type StartRunRequest struct {
	Params      optimize.Params        `json:"params"`
	Constraints optimize.ConstraintSet `json:"constraints"`
}

func (h *RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	opt, err := h.factory(req.Params, req.Constraints)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// Population seeding happens in the background run, so an infeasible
	// search space surfaces on the sealed record, not here.
	id, err := h.runner.Start(r.Context(), opt)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": id.String(),
		"status": string(store.RunRunning),
	})
}

func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := store.RunStatus(s)
		filter.Status = &status
	}

	runs, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}

	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *RunsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}

	if !h.runner.Cancel(id) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "run is not active"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"run_id": id.String(),
		"status": "cancelling",
	})
}
