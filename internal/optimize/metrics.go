package optimize

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flotilla_optimizer_runs_started_total",
		Help: "Optimization runs started.",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flotilla_optimizer_runs_total",
		Help: "Optimization runs finished, by termination reason.",
	}, []string{"reason"})

	generationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flotilla_optimizer_generations_total",
		Help: "Generations evolved across all runs.",
	})

	fitnessEvals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flotilla_optimizer_fitness_evaluations_total",
		Help: "Fitness evaluations performed.",
	})

	repairFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flotilla_optimizer_repair_failures_total",
		Help: "Repair attempts that could not reach feasibility.",
	})

	bestGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flotilla_optimizer_best_fitness",
		Help: "Best fitness of the most recent generation.",
	})
)
