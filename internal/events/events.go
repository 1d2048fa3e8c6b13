package events

// RunStartedEvent announces a new optimization run.
type RunStartedEvent struct {
	RunID          string `json:"run_id"`
	PopulationSize int    `json:"population_size"`
	MaxGenerations int    `json:"max_generations"`
	Seed           int64  `json:"seed"`
}

// RunGenerationEvent streams per-generation progress.
type RunGenerationEvent struct {
	RunID       string  `json:"run_id"`
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	AvgFitness  float64 `json:"avg_fitness"`
	Diversity   float64 `json:"diversity"`
}

// RunCompletedEvent seals a run on the wire.
type RunCompletedEvent struct {
	RunID       string  `json:"run_id"`
	Reason      string  `json:"reason"`
	Generations int     `json:"generations"`
	BestFitness float64 `json:"best_fitness"`
	DurationSec float64 `json:"duration_seconds"`
}

// RunFailedEvent reports a run that aborted with an error.
type RunFailedEvent struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}

// EvaluationCompletedEvent announces a persisted evaluation result.
type EvaluationCompletedEvent struct {
	EvaluationID    string  `json:"evaluation_id"`
	ConfigurationID string  `json:"configuration_id"`
	Ci              float64 `json:"ci"`
	Rank            int     `json:"rank"`
}
