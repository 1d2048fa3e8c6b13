package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborline-systems/flotilla/internal/evaluate"
	"github.com/harborline-systems/flotilla/internal/events"
	"github.com/harborline-systems/flotilla/internal/runner"
	"github.com/harborline-systems/flotilla/internal/store"
)

func NewRouter(s store.Store, ev events.Client, orch *evaluate.Orchestrator, run *runner.Runner, factory OptimizerFactory, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	evals := NewEvaluationsHandler(orch, s, ev, logger)
	runs := NewRunsHandler(run, s, factory)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/evaluations", evals.Create)
		r.Post("/evaluations/batch", evals.CreateBatch)
		r.Get("/evaluations", evals.List)
		r.Get("/evaluations/{id}", evals.Get)
		r.Get("/weights", evals.Weights)

		r.Post("/runs", runs.Create)
		r.Get("/runs", runs.List)
		r.Get("/runs/{id}", runs.Get)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Post("/runs/{id}/cancel", runs.Cancel)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
