package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// Evaluation is the persisted form of one configuration evaluation. Payload
// carries the full result document (indicator vectors, distances, audit
// trail) as JSON; the scalar columns exist for querying.
type Evaluation struct {
	ID              uuid.UUID              `json:"id"`
	ConfigurationID string                 `json:"configuration_id"`
	Ci              float64                `json:"ci"`
	Rank            int                    `json:"rank"`
	Payload         map[string]interface{} `json:"payload,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// Run is the persisted record of an optimization run. History and
// BestConfiguration are JSON documents.
type Run struct {
	ID                uuid.UUID                `json:"id"`
	Status            RunStatus                `json:"status"`
	Reason            string                   `json:"reason,omitempty"`
	BestFitness       *float64                 `json:"best_fitness,omitempty"`
	BestConfiguration map[string]interface{}   `json:"best_configuration,omitempty"`
	Params            map[string]interface{}   `json:"params,omitempty"`
	History           []map[string]interface{} `json:"history,omitempty"`
	Error             string                   `json:"error,omitempty"`
	StartedAt         time.Time                `json:"started_at"`
	FinishedAt        *time.Time               `json:"finished_at,omitempty"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

type RunFilter struct {
	Status *RunStatus
	Limit  int
}

type Store interface {
	SaveEvaluation(ctx context.Context, e *Evaluation) error
	GetEvaluation(ctx context.Context, id uuid.UUID) (*Evaluation, error)
	ListEvaluations(ctx context.Context, limit int) ([]*Evaluation, error)

	CreateRun(ctx context.Context, r *Run) error
	UpdateRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	Close() error
}
