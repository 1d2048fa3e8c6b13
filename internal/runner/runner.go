// Package runner supervises optimization runs: it launches them in the
// background, streams their progress over the event bus, persists sealed
// records and supports cancellation by run ID.
package runner

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborline-systems/flotilla/internal/events"
	"github.com/harborline-systems/flotilla/internal/optimize"
	"github.com/harborline-systems/flotilla/internal/store"
)

type Runner struct {
	store  store.Store
	events events.Client
	logger *slog.Logger

	mu     sync.Mutex
	active map[uuid.UUID]context.CancelFunc

	wg sync.WaitGroup
}

func New(s store.Store, ev events.Client, logger *slog.Logger) *Runner {
	return &Runner{
		store:  s,
		events: ev,
		logger: logger,
		active: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start records the run, launches the search in the background and returns
// its ID immediately. The run keeps going until it terminates on its own or
// Cancel is called.
func (r *Runner) Start(ctx context.Context, opt *optimize.Optimizer) (uuid.UUID, error) {
	id := opt.RunID()
	rec := &store.Run{
		ID:     id,
		Status: store.RunRunning,
		Params: toDoc(opt.Params()),
	}
	if err := r.store.CreateRun(ctx, rec); err != nil {
		return uuid.Nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.mu.Lock()
	r.active[id] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.execute(runCtx, opt, rec)
	return id, nil
}

// Cancel stops a running run. It reports whether the ID was active.
func (r *Runner) Cancel(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.active[id]
	if ok {
		cancel()
	}
	return ok
}

// Active returns the IDs of runs still in flight.
func (r *Runner) Active() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	return ids
}

// Stop cancels everything in flight and waits for the records to seal.
func (r *Runner) Stop() {
	r.mu.Lock()
	for _, cancel := range r.active {
		cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) execute(ctx context.Context, opt *optimize.Optimizer, rec *store.Run) {
	defer r.wg.Done()
	id := opt.RunID()
	defer func() {
		r.mu.Lock()
		delete(r.active, id)
		r.mu.Unlock()
	}()

	p := opt.Params()
	r.publish(events.SubjectRunStarted(id.String()), events.RunStartedEvent{
		RunID:          id.String(),
		PopulationSize: p.PopulationSize,
		MaxGenerations: p.MaxGenerations,
		Seed:           p.Seed,
	})

	opt.OnGeneration = func(gs optimize.GenerationStats) {
		r.publish(events.SubjectRunGeneration(id.String()), events.RunGenerationEvent{
			RunID:       id.String(),
			Generation:  gs.Generation,
			BestFitness: gs.BestFitness,
			AvgFitness:  gs.AvgFitness,
			Diversity:   gs.Diversity,
		})
	}

	run, err := opt.Run(ctx)
	now := time.Now().UTC()
	rec.FinishedAt = &now

	if err != nil {
		rec.Status = store.RunFailed
		rec.Error = err.Error()
		r.seal(rec)
		r.publish(events.SubjectRunFailed(id.String()), events.RunFailedEvent{
			RunID: id.String(),
			Error: err.Error(),
		})
		r.logger.Error("run failed", "run_id", id, "error", err)
		return
	}

	rec.Reason = string(run.Reason)
	rec.BestFitness = &run.BestFitness
	rec.BestConfiguration = toDoc(run.BestConfiguration)
	rec.History = toHistory(run.History)

	switch run.Reason {
	case optimize.ReasonUserCancelled:
		rec.Status = store.RunCancelled
		r.seal(rec)
		r.publish(events.SubjectRunCancelled(id.String()), events.RunCompletedEvent{
			RunID:       id.String(),
			Reason:      string(run.Reason),
			Generations: len(run.History),
			BestFitness: run.BestFitness,
			DurationSec: run.FinishedAt.Sub(run.StartedAt).Seconds(),
		})
	default:
		rec.Status = store.RunCompleted
		r.seal(rec)
		r.publish(events.SubjectRunCompleted(id.String()), events.RunCompletedEvent{
			RunID:       id.String(),
			Reason:      string(run.Reason),
			Generations: len(run.History),
			BestFitness: run.BestFitness,
			DurationSec: run.FinishedAt.Sub(run.StartedAt).Seconds(),
		})
	}
}

func (r *Runner) seal(rec *store.Run) {
	if err := r.store.UpdateRun(context.Background(), rec); err != nil {
		r.logger.Error("failed to seal run", "run_id", rec.ID, "error", err)
	}
}

func (r *Runner) publish(subject string, payload interface{}) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(subject, payload); err != nil {
		r.logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}

// toDoc round-trips a struct through JSON into a generic document for
// storage.
func toDoc(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func toHistory(stats []optimize.GenerationStats) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(stats))
	for _, gs := range stats {
		out = append(out, toDoc(gs))
	}
	return out
}
