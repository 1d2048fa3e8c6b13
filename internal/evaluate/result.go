package evaluate

import (
	"time"

	"github.com/google/uuid"
)

// Result is the immutable record of one configuration's evaluation. Every
// intermediate artifact that influenced the final score is retained so the
// outcome can be reproduced from the record alone.
type Result struct {
	ID              uuid.UUID  `json:"id"`
	ConfigurationID string     `json:"configuration_id"`
	IndicatorIDs    []string   `json:"indicator_ids"`
	Raw             []float64  `json:"raw"`
	Normalized      []float64  `json:"normalized"`
	Weighted        []float64  `json:"weighted"`
	DPlus           float64    `json:"d_plus"`
	DMinus          float64    `json:"d_minus"`
	Ci              float64    `json:"ci"`
	Rank            int        `json:"rank"`
	Tied            bool       `json:"tied,omitempty"`
	Undetermined    bool       `json:"undetermined,omitempty"`
	Audit           AuditTrail `json:"audit"`
	CreatedAt       time.Time  `json:"created_at"`

	// Baseline comparison fields, populated by single evaluations only.
	BaselineCi         float64 `json:"baseline_ci,omitempty"`
	BetterThanBaseline bool    `json:"better_than_baseline,omitempty"`

	// SuccessScore is the scenario mission-success score, present only
	// when the evaluation ran under a scenario with objectives.
	SuccessScore *float64 `json:"success_score,omitempty"`
}

// BatchResult groups the per-configuration results of one comparative
// evaluation. Results appear in input order; Best points at the rank-1
// entry (the first of them when tied).
type BatchResult struct {
	Results     []*Result `json:"results"`
	Best        *Result   `json:"best"`
	Weights     []float64 `json:"weights"`
	Degenerate  []int     `json:"degenerate,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
