// Package evaluate composes the AHP, FCE and TOPSIS stages into the full
// configuration evaluation pipeline, producing audited, immutable results.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/harborline-systems/flotilla/internal/ahp"
	"github.com/harborline-systems/flotilla/internal/fce"
	"github.com/harborline-systems/flotilla/internal/hierarchy"
	"github.com/harborline-systems/flotilla/internal/scenario"
	"github.com/harborline-systems/flotilla/internal/topsis"
)

// ErrIndicatorMismatch marks a structural disagreement between the
// simulation output and the indicator hierarchy.
var ErrIndicatorMismatch = errors.New("indicator set does not match hierarchy")

// MatrixSet bundles the judgment matrices an evaluation needs: one for the
// primary capabilities and one per capability group for its secondary
// indicators. Groups with a single indicator need no matrix.
type MatrixSet struct {
	Primary   ahp.Matrix            `json:"primary" yaml:"primary"`
	Secondary map[string]ahp.Matrix `json:"secondary" yaml:"secondary"`
}

// Options assembles everything one evaluation run depends on. The
// orchestrator validates and freezes these at construction; nothing global
// is consulted afterwards.
type Options struct {
	Hierarchy hierarchy.Hierarchy
	Matrices  MatrixSet
	Scale     fce.Scale
	Bucketer  *scenario.Bucketer
	Simulator scenario.Simulator
	// Baseline supplies the reference indicator vector a single
	// configuration is compared against. Must cover every indicator.
	Baseline map[string]float64
	Scenario *scenario.Scenario
	Logger   *slog.Logger
}

// Orchestrator runs the AHP-FCE-TOPSIS pipeline for one or more
// configurations. It is immutable after construction and safe for
// concurrent use.
type Orchestrator struct {
	hier       hierarchy.Hierarchy
	indicators []hierarchy.Indicator
	polarities []topsis.Polarity
	weights    []float64
	weightRes  []ahp.Result
	scale      fce.Scale
	bucketer   *scenario.Bucketer
	sim        scenario.Simulator
	baseline   []float64
	scn        *scenario.Scenario
	logger     *slog.Logger
}

// New validates every judgment matrix (the CR < 0.1 hard gate applies here:
// any inconsistent matrix aborts construction with the offending matrix
// identified), composes the hierarchical weights into one flat global
// vector, and freezes the evaluation context.
func New(opts Options) (*Orchestrator, error) {
	if err := opts.Hierarchy.Validate(); err != nil {
		return nil, err
	}
	if opts.Simulator == nil {
		return nil, fmt.Errorf("evaluate: simulator is required")
	}
	if opts.Bucketer == nil {
		return nil, fmt.Errorf("evaluate: bucketer is required")
	}
	if len(opts.Scale.Terms) == 0 {
		opts.Scale = fce.DefaultScale()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Scenario != nil {
		if err := opts.Scenario.Validate(); err != nil {
			return nil, err
		}
	}

	o := &Orchestrator{
		hier:       opts.Hierarchy,
		indicators: opts.Hierarchy.Flatten(),
		polarities: opts.Hierarchy.Polarities(),
		scale:      opts.Scale,
		bucketer:   opts.Bucketer,
		sim:        opts.Simulator,
		scn:        opts.Scenario,
		logger:     opts.Logger,
	}

	weights, results, err := o.composeWeights(opts.Matrices)
	if err != nil {
		return nil, err
	}
	if o.scn != nil {
		weights = o.scn.AdjustWeights(o.indicatorIDs(), weights)
	}
	o.weights = weights
	o.weightRes = results

	if opts.Baseline != nil {
		baseline := make([]float64, len(o.indicators))
		for i, ind := range o.indicators {
			v, ok := opts.Baseline[ind.ID]
			if !ok {
				return nil, fmt.Errorf("evaluate: baseline missing indicator %q: %w", ind.ID, ErrIndicatorMismatch)
			}
			baseline[i] = v
		}
		o.baseline = baseline
	}
	return o, nil
}

// Weights returns the composed global weight vector in Flatten order.
func (o *Orchestrator) Weights() []float64 {
	out := make([]float64, len(o.weights))
	copy(out, o.weights)
	return out
}

// WeightResults exposes the per-matrix AHP results for reporting.
func (o *Orchestrator) WeightResults() []ahp.Result { return o.weightRes }

// composeWeights derives the flat global weight vector: primary capability
// weight times the indicator's weight within its group, renormalized.
func (o *Orchestrator) composeWeights(ms MatrixSet) ([]float64, []ahp.Result, error) {
	groups := o.hier.Groups
	if ms.Primary.Order() != len(groups) {
		return nil, nil, fmt.Errorf("evaluate: primary matrix order %d vs %d capability groups: %w",
			ms.Primary.Order(), len(groups), ErrIndicatorMismatch)
	}

	primary, err := ahp.CalculateWeights(ms.Primary)
	if err != nil {
		return nil, nil, err
	}
	if err := ahp.RequireConsistent(primary); err != nil {
		return nil, nil, err
	}
	results := []ahp.Result{primary}

	global := make([]float64, 0, o.hier.NumIndicators())
	var sum float64
	for gi, g := range groups {
		switch {
		case len(g.Indicators) == 1:
			global = append(global, primary.Weights[gi])
			sum += primary.Weights[gi]
		default:
			m, ok := ms.Secondary[g.ID]
			if !ok {
				return nil, nil, fmt.Errorf("evaluate: no judgment matrix for group %q: %w", g.ID, ErrIndicatorMismatch)
			}
			if m.Order() != len(g.Indicators) {
				return nil, nil, fmt.Errorf("evaluate: matrix %q order %d vs %d indicators in group %q: %w",
					m.ID, m.Order(), len(g.Indicators), g.ID, ErrIndicatorMismatch)
			}
			sec, err := ahp.CalculateWeights(m)
			if err != nil {
				return nil, nil, err
			}
			if err := ahp.RequireConsistent(sec); err != nil {
				return nil, nil, err
			}
			results = append(results, sec)
			for j := range g.Indicators {
				w := primary.Weights[gi] * sec.Weights[j]
				global = append(global, w)
				sum += w
			}
		}
	}
	if sum <= 0 {
		return nil, nil, fmt.Errorf("evaluate: composed weights sum to %g", sum)
	}
	for i := range global {
		global[i] /= sum
	}
	return global, results, nil
}

func (o *Orchestrator) indicatorIDs() []string {
	ids := make([]string, len(o.indicators))
	for i, ind := range o.indicators {
		ids[i] = ind.ID
	}
	return ids
}

// indicatorVector simulates the configuration and routes fuzzy indicators
// through FCE: real expert counts when present, synthetic bucketing
// otherwise. FCE normalization failures fail the evaluation and name the
// indicator.
func (o *Orchestrator) indicatorVector(cfg scenario.Configuration, audit *AuditTrail) ([]float64, error) {
	values, err := o.sim.Indicators(cfg)
	if err != nil {
		return nil, fmt.Errorf("simulate %q: %w", cfg.ID, err)
	}
	audit.record("simulation", map[string]any{
		"configuration_id": cfg.ID,
		"indicator_count":  len(values),
	})

	row := make([]float64, len(o.indicators))
	fuzzyScores := map[string]float64{}
	for i, ind := range o.indicators {
		v, ok := values[ind.ID]
		if !ok {
			return nil, fmt.Errorf("evaluate %q: simulation omitted indicator %q: %w", cfg.ID, ind.ID, ErrIndicatorMismatch)
		}
		if !ind.Fuzzy {
			row[i] = v
			continue
		}

		counts, ok := cfg.ExpertAssessments[ind.ID]
		if !ok {
			counts, err = o.bucketer.Assess(ind.ID, v, o.scale.Terms)
			if err != nil {
				return nil, fmt.Errorf("evaluate %q: %w", cfg.ID, err)
			}
		}
		res, err := fce.Evaluate(counts, o.scale)
		if err != nil {
			return nil, fmt.Errorf("evaluate %q: fuzzy indicator %q: %w", cfg.ID, ind.ID, err)
		}
		row[i] = res.Score
		fuzzyScores[ind.ID] = res.Score
	}
	if len(fuzzyScores) > 0 {
		audit.record("fuzzy_evaluation", map[string]any{"scores": fuzzyScores})
	}
	return row, nil
}

// EvaluateSingle scores one configuration against the configured baseline
// vector. This is the documented degenerate form of ranking: the result's
// Ci expresses closeness relative to the baseline only, and Rank is always
// 1 within its own result.
func (o *Orchestrator) EvaluateSingle(ctx context.Context, cfg scenario.Configuration) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.baseline == nil {
		return nil, fmt.Errorf("evaluate: single evaluation requires a baseline vector")
	}

	var audit AuditTrail
	audit.record("weights", map[string]any{"global_weights": o.weights})

	row, err := o.indicatorVector(cfg, &audit)
	if err != nil {
		evaluationFailures.Inc()
		return nil, err
	}

	matrix := [][]float64{o.baseline, row}
	tr, err := topsis.Rank(matrix, o.weights, o.polarities)
	if err != nil {
		evaluationFailures.Inc()
		return nil, fmt.Errorf("evaluate %q: %w", cfg.ID, err)
	}
	evaluationsTotal.WithLabelValues("single").Inc()
	audit.record("ranking", map[string]any{
		"ci":          tr.Ci[1],
		"baseline_ci": tr.Ci[0],
		"degenerate":  tr.Degenerate,
	})

	res := o.buildResult(cfg.ID, row, tr, 1, &audit)
	res.Rank = 1
	res.BaselineCi = tr.Ci[0]
	res.BetterThanBaseline = tr.Ci[1] > tr.Ci[0]
	res.SuccessScore = o.successScore(row)
	return res, nil
}

// EvaluateBatch ranks two or more configurations against each other,
// producing one audited result per configuration in input order.
func (o *Orchestrator) EvaluateBatch(ctx context.Context, cfgs []scenario.Configuration) (*BatchResult, error) {
	if len(cfgs) < 2 {
		return nil, fmt.Errorf("evaluate: batch requires at least 2 configurations, got %d", len(cfgs))
	}

	rows := make([][]float64, len(cfgs))
	audits := make([]AuditTrail, len(cfgs))
	for i, cfg := range cfgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		audits[i].record("weights", map[string]any{"global_weights": o.weights})
		row, err := o.indicatorVector(cfg, &audits[i])
		if err != nil {
			evaluationFailures.Inc()
			return nil, err
		}
		rows[i] = row
	}

	tr, err := topsis.Rank(rows, o.weights, o.polarities)
	if err != nil {
		evaluationFailures.Inc()
		return nil, err
	}
	evaluationsTotal.WithLabelValues("batch").Add(float64(len(cfgs)))

	batch := &BatchResult{
		Weights:     o.Weights(),
		Degenerate:  tr.Degenerate,
		EvaluatedAt: time.Now().UTC(),
	}
	for i, cfg := range cfgs {
		audits[i].record("ranking", map[string]any{
			"ci":   tr.Ci[i],
			"rank": tr.Ranks[i],
			"tied": tr.Tied[i],
		})
		res := o.buildResult(cfg.ID, rows[i], tr, i, &audits[i])
		res.SuccessScore = o.successScore(rows[i])
		batch.Results = append(batch.Results, res)
		if res.Rank == 1 && batch.Best == nil {
			batch.Best = res
		}
	}
	o.logger.Info("batch evaluation complete",
		"configurations", len(cfgs),
		"best", batch.Best.ConfigurationID,
		"best_ci", batch.Best.Ci,
	)
	return batch, nil
}

// successScore reports mission success against the scenario's objectives,
// or nil when the evaluation runs without objectives.
func (o *Orchestrator) successScore(row []float64) *float64 {
	if o.scn == nil || len(o.scn.Objectives) == 0 {
		return nil
	}
	values := make(map[string]float64, len(row))
	for i, ind := range o.indicators {
		values[ind.ID] = row[i]
	}
	s := o.scn.SuccessScore(values)
	return &s
}

func (o *Orchestrator) buildResult(cfgID string, raw []float64, tr *topsis.Result, row int, audit *AuditTrail) *Result {
	return &Result{
		ID:              uuid.New(),
		ConfigurationID: cfgID,
		IndicatorIDs:    o.indicatorIDs(),
		Raw:             raw,
		Normalized:      tr.Normalized[row],
		Weighted:        tr.Weighted[row],
		DPlus:           tr.DPlus[row],
		DMinus:          tr.DMinus[row],
		Ci:              tr.Ci[row],
		Rank:            tr.Ranks[row],
		Tied:            tr.Tied[row],
		Undetermined:    tr.Undetermined[row],
		Audit:           *audit,
		CreatedAt:       time.Now().UTC(),
	}
}
