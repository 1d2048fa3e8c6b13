package evaluate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flotilla_evaluations_total",
		Help: "Configurations evaluated, by mode.",
	}, []string{"mode"})

	evaluationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flotilla_evaluation_failures_total",
		Help: "Evaluations that failed before producing a result.",
	})
)
