package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborline-systems/flotilla/internal/api"
	"github.com/harborline-systems/flotilla/internal/config"
	"github.com/harborline-systems/flotilla/internal/evaluate"
	"github.com/harborline-systems/flotilla/internal/events"
	"github.com/harborline-systems/flotilla/internal/fce"
	"github.com/harborline-systems/flotilla/internal/model"
	"github.com/harborline-systems/flotilla/internal/optimize"
	"github.com/harborline-systems/flotilla/internal/runner"
	"github.com/harborline-systems/flotilla/internal/scenario"
	"github.com/harborline-systems/flotilla/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	modelPath := flag.String("model", "model.yaml", "path to domain model file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	def, err := model.Load(*modelPath)
	if err != nil {
		logger.Error("failed to load domain model", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Events (optional)
	var eventsClient events.Client
	if cfg.Events.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to nats, running without events", "error", err)
		} else {
			eventsClient = ec
			defer ec.Close()
			logger.Info("connected to event bus")
		}
	}

	// Evaluation pipeline
	simCfg := def.Simulator
	simCfg.Scenario = def.Scenario
	sim, err := scenario.NewDefaultSimulator(simCfg)
	if err != nil {
		logger.Error("failed to build simulator", "error", err)
		os.Exit(1)
	}

	scale, err := fce.NewScale(cfg.Evaluation.ScaleTerms, cfg.Evaluation.ScaleValues)
	if err != nil {
		logger.Error("invalid assessment scale", "error", err)
		os.Exit(1)
	}

	bucketer, err := buildBucketer(cfg.Evaluation)
	if err != nil {
		logger.Error("invalid bucket tables", "error", err)
		os.Exit(1)
	}

	orch, err := evaluate.New(evaluate.Options{
		Hierarchy: def.Hierarchy,
		Matrices:  def.Matrices,
		Scale:     scale,
		Bucketer:  bucketer,
		Simulator: sim,
		Baseline:  cfg.Evaluation.Baseline,
		Scenario:  def.Scenario,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to build evaluation pipeline", "error", err)
		os.Exit(1)
	}
	logger.Info("evaluation pipeline ready",
		"indicators", def.Hierarchy.NumIndicators(),
		"groups", len(def.Hierarchy.Groups),
	)

	// Genetic search space
	encoding, err := def.Encoding()
	if err != nil {
		logger.Error("failed to build search space", "error", err)
		os.Exit(1)
	}

	fitness := optimize.EvaluatorFunc(func(ctx context.Context, c scenario.Configuration) (float64, error) {
		res, err := orch.EvaluateSingle(ctx, c)
		if err != nil {
			return 0, err
		}
		return res.Ci, nil
	})

	factory := func(params optimize.Params, cons optimize.ConstraintSet) (*optimize.Optimizer, error) {
		params = mergeParams(cfg.Optimizer, params)
		if isZeroConstraints(cons) {
			cons = def.Constraints
		}
		return optimize.NewOptimizer(encoding, cons, params, fitness, logger)
	}

	// Runner
	run := runner.New(db, eventsClient, logger)
	defer run.Stop()

	// API server
	router := api.NewRouter(db, eventsClient, orch, run, factory, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsRouter := api.NewMetricsRouter()
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	// run.Stop() handled by defer above

	logger.Info("shutdown complete")
}

func buildBucketer(ev config.EvaluationConfig) (*scenario.Bucketer, error) {
	families := make(map[string]scenario.BucketTable, len(ev.Buckets))
	for family, bc := range ev.Buckets {
		families[family] = scenario.BucketTable{
			Thresholds: bc.Thresholds,
			Descending: bc.Descending,
		}
	}
	def := scenario.BucketTable{
		Thresholds: ev.DefaultBucket.Thresholds,
		Descending: ev.DefaultBucket.Descending,
	}
	return scenario.NewBucketer(families, def)
}

// mergeParams fills unset request fields from the configured defaults.
func mergeParams(def config.OptimizerConfig, p optimize.Params) optimize.Params {
	if p.PopulationSize == 0 {
		p.PopulationSize = def.PopulationSize
	}
	if p.MaxGenerations == 0 {
		p.MaxGenerations = def.MaxGenerations
	}
	if p.Selection == "" {
		p.Selection = optimize.SelectionMethod(def.Selection)
	}
	if p.TournamentSize == 0 {
		p.TournamentSize = def.TournamentSize
	}
	if p.Crossover == "" {
		p.Crossover = optimize.CrossoverMethod(def.Crossover)
	}
	if p.CrossoverRate == 0 {
		p.CrossoverRate = def.CrossoverRate
	}
	if p.MutationRate == 0 {
		p.MutationRate = def.MutationRate
	}
	if p.MutationStdDev == 0 {
		p.MutationStdDev = def.MutationStdDev
	}
	if p.Elitism == 0 {
		p.Elitism = def.Elitism
	}
	if p.ConvergenceEps == 0 {
		p.ConvergenceEps = def.ConvergenceEps
	}
	if p.ConvergenceWindow == 0 {
		p.ConvergenceWindow = def.ConvergenceWindow
	}
	if p.MaxRepairAttempts == 0 {
		p.MaxRepairAttempts = def.MaxRepairAttempts
	}
	if p.Parallelism == 0 {
		p.Parallelism = def.Parallelism
	}
	return p
}

func isZeroConstraints(cs optimize.ConstraintSet) bool {
	return cs.MinPlatforms == 0 && cs.MaxPlatforms == 0 && cs.Budget == 0 &&
		len(cs.PlatformCosts) == 0 && cs.Area == nil && !cs.RequireTaskCoverage
}
