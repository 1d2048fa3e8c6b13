package optimize

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harborline-systems/flotilla/internal/scenario"
)

// Evaluator scores a feasible configuration. Higher is better.
type Evaluator interface {
	Fitness(ctx context.Context, cfg scenario.Configuration) (float64, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, cfg scenario.Configuration) (float64, error)

func (f EvaluatorFunc) Fitness(ctx context.Context, cfg scenario.Configuration) (float64, error) {
	return f(ctx, cfg)
}

// InfeasibleError reports that no feasible individual could be produced
// within the repair budget. The search space is over-constrained.
type InfeasibleError struct {
	Attempts int
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("optimize: no feasible configuration after %d repair attempts", e.Attempts)
}

// Reason records why a run terminated.
type Reason string

const (
	ReasonConverged      Reason = "converged"
	ReasonMaxGenerations Reason = "max_generations"
	ReasonUserCancelled  Reason = "user_cancelled"
)

// Params tunes the genetic search. Zero values take the documented
// defaults via Normalize.
type Params struct {
	PopulationSize    int             `json:"population_size" yaml:"population_size"`
	MaxGenerations    int             `json:"max_generations" yaml:"max_generations"`
	Selection         SelectionMethod `json:"selection" yaml:"selection"`
	TournamentSize    int             `json:"tournament_size" yaml:"tournament_size"`
	Crossover         CrossoverMethod `json:"crossover" yaml:"crossover"`
	CrossoverRate     float64         `json:"crossover_rate" yaml:"crossover_rate"`
	MutationRate      float64         `json:"mutation_rate" yaml:"mutation_rate"`
	MutationStdDev    float64         `json:"mutation_std_dev" yaml:"mutation_std_dev"`
	Elitism           int             `json:"elitism" yaml:"elitism"`
	ConvergenceEps    float64         `json:"convergence_eps" yaml:"convergence_eps"`
	ConvergenceWindow int             `json:"convergence_window" yaml:"convergence_window"`
	MaxRepairAttempts int             `json:"max_repair_attempts" yaml:"max_repair_attempts"`
	Seed              int64           `json:"seed" yaml:"seed"`
	Parallelism       int             `json:"parallelism" yaml:"parallelism"`
}

// Normalize fills defaults and returns the effective parameters.
func (p Params) Normalize() Params {
	if p.PopulationSize <= 0 {
		p.PopulationSize = 50
	}
	if p.MaxGenerations <= 0 {
		p.MaxGenerations = 100
	}
	if p.Selection == "" {
		p.Selection = SelectionTournament
	}
	if p.TournamentSize <= 0 {
		p.TournamentSize = 3
	}
	if p.Crossover == "" {
		p.Crossover = CrossoverTwoPoint
	}
	if p.CrossoverRate <= 0 {
		p.CrossoverRate = 0.9
	}
	if p.MutationRate <= 0 {
		p.MutationRate = 0.1
	}
	if p.MutationStdDev <= 0 {
		p.MutationStdDev = 0.1
	}
	if p.Elitism <= 0 {
		p.Elitism = 2
	}
	if p.ConvergenceEps <= 0 {
		p.ConvergenceEps = 1e-6
	}
	if p.ConvergenceWindow <= 0 {
		p.ConvergenceWindow = 10
	}
	if p.MaxRepairAttempts <= 0 {
		p.MaxRepairAttempts = 20
	}
	if p.Parallelism <= 0 {
		p.Parallelism = 1
	}
	return p
}

// Validate rejects parameter combinations that cannot run.
func (p Params) Validate() error {
	switch p.Selection {
	case SelectionTournament, SelectionRoulette, SelectionRank:
	default:
		return fmt.Errorf("optimize: unknown selection method %q", p.Selection)
	}
	switch p.Crossover {
	case CrossoverSinglePoint, CrossoverTwoPoint, CrossoverUniform:
	default:
		return fmt.Errorf("optimize: unknown crossover method %q", p.Crossover)
	}
	if p.Elitism >= p.PopulationSize {
		return fmt.Errorf("optimize: elitism %d must be below population size %d", p.Elitism, p.PopulationSize)
	}
	if p.CrossoverRate > 1 || p.MutationRate > 1 {
		return fmt.Errorf("optimize: rates must be at most 1")
	}
	return nil
}

// GenerationStats summarizes one generation for history and streaming.
type GenerationStats struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	AvgFitness  float64 `json:"avg_fitness"`
	Diversity   float64 `json:"diversity"`
}

// Run is the sealed record of one optimization.
type Run struct {
	ID                uuid.UUID              `json:"id"`
	Params            Params                 `json:"params"`
	History           []GenerationStats      `json:"history"`
	BestChromosome    Chromosome             `json:"best_chromosome"`
	BestConfiguration scenario.Configuration `json:"best_configuration"`
	BestFitness       float64                `json:"best_fitness"`
	Reason            Reason                 `json:"reason"`
	StartedAt         time.Time              `json:"started_at"`
	FinishedAt        time.Time              `json:"finished_at"`
}

// Optimizer performs one genetic search. Construct with NewOptimizer and
// call Run once; a fresh Optimizer is cheap.
type Optimizer struct {
	runID  uuid.UUID
	enc    Encoding
	cons   ConstraintSet
	params Params
	eval   Evaluator
	logger *slog.Logger

	// OnGeneration, when set, is invoked after every generation with its
	// stats. It runs on the search goroutine; keep it fast.
	OnGeneration func(GenerationStats)
}

// NewOptimizer validates the encoding and parameters.
func NewOptimizer(enc Encoding, cons ConstraintSet, params Params, eval Evaluator, logger *slog.Logger) (*Optimizer, error) {
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, fmt.Errorf("optimize: evaluator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{runID: uuid.New(), enc: enc, cons: cons, params: params, eval: eval, logger: logger}, nil
}

// RunID identifies the run this optimizer will produce, fixed at
// construction so callers can track it before Run returns.
func (o *Optimizer) RunID() uuid.UUID { return o.runID }

// Params returns the effective, normalized parameters.
func (o *Optimizer) Params() Params { return o.params }

// Run executes the search until convergence, the generation cap, or
// context cancellation. Cancellation is honored at generation boundaries
// and still seals a run with the best individual found so far.
func (o *Optimizer) Run(ctx context.Context) (*Run, error) {
	p := o.params
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		p.Seed = seed
	}
	rng := rand.New(rand.NewSource(seed))

	run := &Run{
		ID:        o.runID,
		Params:    p,
		StartedAt: time.Now().UTC(),
	}
	o.logger.Info("optimization started",
		"run_id", run.ID,
		"population", p.PopulationSize,
		"max_generations", p.MaxGenerations,
		"seed", seed,
	)
	runsStarted.Inc()

	pop, err := o.seedPopulation(rng)
	if err != nil {
		runsTotal.WithLabelValues("infeasible").Inc()
		return nil, err
	}

	// Scoring runs detached from the run context so cancellation lands at
	// the generation boundary below, never inside an in-flight pass. The
	// sealed record then keeps the best individual found so far.
	evalCtx := context.WithoutCancel(ctx)
	if err := o.score(evalCtx, pop); err != nil {
		return nil, err
	}

	best := o.fittest(pop)
	bestHistory := []float64{best.fitness}
	reason := ReasonMaxGenerations

	for gen := 1; gen <= p.MaxGenerations; gen++ {
		if ctx.Err() != nil {
			reason = ReasonUserCancelled
			break
		}

		next, err := o.breed(rng, pop)
		if err != nil {
			return nil, err
		}
		if err := o.score(evalCtx, next); err != nil {
			return nil, err
		}
		pop = next

		if f := o.fittest(pop); f.fitness > best.fitness {
			best = individual{chrom: f.chrom.Clone(), fitness: f.fitness, scored: true}
		}
		bestGauge.Set(best.fitness)
		generationsTotal.Inc()

		stats := GenerationStats{
			Generation:  gen,
			BestFitness: best.fitness,
			AvgFitness:  avgFitness(pop),
			Diversity:   diversity(o.enc, pop),
		}
		run.History = append(run.History, stats)
		if o.OnGeneration != nil {
			o.OnGeneration(stats)
		}

		bestHistory = append(bestHistory, best.fitness)
		if converged(bestHistory, p.ConvergenceWindow, p.ConvergenceEps) {
			reason = ReasonConverged
			break
		}
	}

	run.BestChromosome = best.chrom.Clone()
	run.BestConfiguration = o.enc.Decode(best.chrom)
	run.BestFitness = best.fitness
	run.Reason = reason
	run.FinishedAt = time.Now().UTC()
	runsTotal.WithLabelValues(string(reason)).Inc()

	o.logger.Info("optimization finished",
		"run_id", run.ID,
		"reason", reason,
		"generations", len(run.History),
		"best_fitness", best.fitness,
	)
	return run, nil
}

// seedPopulation fills the initial population with feasible individuals,
// repairing random draws and resampling when repair fails.
func (o *Optimizer) seedPopulation(rng *rand.Rand) ([]individual, error) {
	pop := make([]individual, 0, o.params.PopulationSize)
	for len(pop) < o.params.PopulationSize {
		ch, err := o.feasibleChromosome(rng, nil)
		if err != nil {
			return nil, err
		}
		pop = append(pop, individual{chrom: ch})
	}
	return pop, nil
}

// feasibleChromosome repairs the candidate, resampling fresh randoms when
// repair cannot reach feasibility. A nil candidate starts with a resample.
func (o *Optimizer) feasibleChromosome(rng *rand.Rand, candidate Chromosome) (Chromosome, error) {
	for attempt := 0; attempt < o.params.MaxRepairAttempts; attempt++ {
		if candidate == nil {
			candidate = o.enc.Random(rng)
		}
		if o.cons.Repair(o.enc, candidate) {
			return candidate, nil
		}
		repairFailures.Inc()
		candidate = nil
	}
	return nil, &InfeasibleError{Attempts: o.params.MaxRepairAttempts}
}

// breed produces the next generation: elites carried over unchanged, the
// rest bred by selection, crossover, mutation and repair.
func (o *Optimizer) breed(rng *rand.Rand, pop []individual) ([]individual, error) {
	p := o.params
	next := make([]individual, 0, p.PopulationSize)
	for _, e := range elites(pop, p.Elitism) {
		next = append(next, individual{chrom: e.chrom.Clone(), fitness: e.fitness, scored: true})
	}

	for len(next) < p.PopulationSize {
		ai, err := selectParent(rng, pop, p.Selection, p.TournamentSize)
		if err != nil {
			return nil, err
		}
		bi, err := selectParent(rng, pop, p.Selection, p.TournamentSize)
		if err != nil {
			return nil, err
		}

		ca, cb := pop[ai].chrom.Clone(), pop[bi].chrom.Clone()
		if rng.Float64() < p.CrossoverRate {
			ca, cb, err = crossover(rng, ca, cb, p.Crossover)
			if err != nil {
				return nil, err
			}
		}
		for _, child := range []Chromosome{ca, cb} {
			if len(next) >= p.PopulationSize {
				break
			}
			mutate(rng, o.enc, child, p.MutationRate, p.MutationStdDev)
			fixed, err := o.feasibleChromosome(rng, child)
			if err != nil {
				return nil, err
			}
			next = append(next, individual{chrom: fixed})
		}
	}
	return next, nil
}

// score evaluates every individual not yet scored. Elites keep theirs.
// With Parallelism above 1 the evaluations fan out over an errgroup.
func (o *Optimizer) score(ctx context.Context, pop []individual) error {
	pending := make([]int, 0, len(pop))
	for i := range pop {
		if !pop[i].scored {
			pending = append(pending, i)
		}
	}

	if o.params.Parallelism <= 1 {
		for _, i := range pending {
			f, err := o.eval.Fitness(ctx, o.enc.Decode(pop[i].chrom))
			if err != nil {
				return err
			}
			pop[i].fitness = f
			pop[i].scored = true
			fitnessEvals.Inc()
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.params.Parallelism)
	var mu sync.Mutex
	for _, i := range pending {
		i := i
		cfg := o.enc.Decode(pop[i].chrom)
		g.Go(func() error {
			f, err := o.eval.Fitness(gctx, cfg)
			if err != nil {
				return err
			}
			mu.Lock()
			pop[i].fitness = f
			pop[i].scored = true
			mu.Unlock()
			fitnessEvals.Inc()
			return nil
		})
	}
	return g.Wait()
}

func (o *Optimizer) fittest(pop []individual) individual {
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.fitness > best.fitness {
			best = ind
		}
	}
	return best
}

func elites(pop []individual, n int) []individual {
	out := make([]individual, len(pop))
	copy(out, pop)
	// Partial selection sort; n is small.
	for i := 0; i < n && i < len(out); i++ {
		top := i
		for j := i + 1; j < len(out); j++ {
			if out[j].fitness > out[top].fitness {
				top = j
			}
		}
		out[i], out[top] = out[top], out[i]
	}
	return out[:n]
}

func avgFitness(pop []individual) float64 {
	var sum float64
	for _, ind := range pop {
		sum += ind.fitness
	}
	return sum / float64(len(pop))
}

// converged reports whether the best fitness improved by less than eps
// over the last window generations.
func converged(best []float64, window int, eps float64) bool {
	if len(best) <= window {
		return false
	}
	return math.Abs(best[len(best)-1]-best[len(best)-1-window]) < eps
}
