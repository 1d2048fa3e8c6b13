package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborline-systems/flotilla/internal/ahp"
	"github.com/harborline-systems/flotilla/internal/evaluate"
	"github.com/harborline-systems/flotilla/internal/events"
	"github.com/harborline-systems/flotilla/internal/scenario"
	"github.com/harborline-systems/flotilla/internal/store"
)

type EvaluationsHandler struct {
	orch   *evaluate.Orchestrator
	store  store.Store
	events events.Client
	logger *slog.Logger
}

func NewEvaluationsHandler(o *evaluate.Orchestrator, s store.Store, ev events.Client, logger *slog.Logger) *EvaluationsHandler {
	return &EvaluationsHandler{orch: o, store: s, events: ev, logger: logger}
}

type EvaluateRequest struct {
	Configuration scenario.Configuration `json:"configuration"`
}

type EvaluateBatchRequest struct {
	Configurations []scenario.Configuration `json:"configurations"`
}

func (h *EvaluationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := req.Configuration.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.orch.EvaluateSingle(r.Context(), req.Configuration)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}

	h.persist(r, result)
	writeJSON(w, http.StatusCreated, result)
}

func (h *EvaluationsHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req EvaluateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Configurations) < 2 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least 2 configurations required"})
		return
	}
	for _, cfg := range req.Configurations {
		if err := cfg.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	batch, err := h.orch.EvaluateBatch(r.Context(), req.Configurations)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}

	for _, result := range batch.Results {
		h.persist(r, result)
	}
	writeJSON(w, http.StatusCreated, batch)
}

func (h *EvaluationsHandler) List(w http.ResponseWriter, r *http.Request) {
	evals, err := h.store.ListEvaluations(r.Context(), 0)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if evals == nil {
		evals = []*store.Evaluation{}
	}
	writeJSON(w, http.StatusOK, evals)
}

func (h *EvaluationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid evaluation id"})
		return
	}
	eval, err := h.store.GetEvaluation(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if eval == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "evaluation not found"})
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

// Weights reports the composed global weight vector and the per-matrix
// consistency results behind it.
func (h *EvaluationsHandler) Weights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"weights":  h.orch.Weights(),
		"matrices": h.orch.WeightResults(),
	})
}

func (h *EvaluationsHandler) persist(r *http.Request, result *evaluate.Result) {
	rec := &store.Evaluation{
		ID:              result.ID,
		ConfigurationID: result.ConfigurationID,
		Ci:              result.Ci,
		Rank:            result.Rank,
		Payload:         resultDoc(result),
	}
	if err := h.store.SaveEvaluation(r.Context(), rec); err != nil {
		h.logger.Error("failed to persist evaluation", "evaluation_id", result.ID, "error", err)
	}
	if h.events != nil {
		_ = h.events.Publish(events.SubjectEvaluationCompleted(result.ID.String()), events.EvaluationCompletedEvent{
			EvaluationID:    result.ID.String(),
			ConfigurationID: result.ConfigurationID,
			Ci:              result.Ci,
			Rank:            result.Rank,
		})
	}
}

func writeEvaluationError(w http.ResponseWriter, err error) {
	var consistency *ahp.ConsistencyError
	switch {
	case errors.As(err, &consistency):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":     "judgment matrix inconsistent",
			"matrix_id": consistency.MatrixID,
			"cr":        consistency.CR,
		})
	case errors.Is(err, evaluate.ErrIndicatorMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func resultDoc(result *evaluate.Result) map[string]interface{} {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc
}
