//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE evaluations CASCADE")
		_, _ = s.pool.Exec(ctx, "TRUNCATE optimization_runs CASCADE")
		s.Close()
	})

	return s
}

func TestSaveAndGetEvaluation(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	e := &Evaluation{
		ID:              uuid.New(),
		ConfigurationID: "cfg-alpha",
		Ci:              0.73,
		Rank:            1,
		Payload: map[string]interface{}{
			"raw": []interface{}{0.75, 2.5},
		},
	}
	if err := s.SaveEvaluation(ctx, e); err != nil {
		t.Fatalf("SaveEvaluation failed: %v", err)
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set after save")
	}

	got, err := s.GetEvaluation(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEvaluation failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected evaluation, got nil")
	}
	if got.ConfigurationID != "cfg-alpha" {
		t.Errorf("configuration_id = %q, want cfg-alpha", got.ConfigurationID)
	}
	if got.Ci != 0.73 || got.Rank != 1 {
		t.Errorf("ci/rank = %v/%d, want 0.73/1", got.Ci, got.Rank)
	}
}

func TestGetEvaluationNotFound(t *testing.T) {
	s := setupTestDB(t)
	got, err := s.GetEvaluation(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing evaluation")
	}
}

func TestRunLifecycle(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	r := &Run{
		ID:     uuid.New(),
		Status: RunRunning,
		Params: map[string]interface{}{"population_size": 50},
	}
	if err := s.CreateRun(ctx, r); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if r.StartedAt.IsZero() {
		t.Fatal("expected started_at to be set after create")
	}

	best := 0.81
	r.Status = RunCompleted
	r.Reason = "converged"
	r.BestFitness = &best
	r.History = []map[string]interface{}{
		{"generation": 1, "best_fitness": 0.6},
		{"generation": 2, "best_fitness": 0.81},
	}
	now := r.StartedAt
	r.FinishedAt = &now
	if err := s.UpdateRun(ctx, r); err != nil {
		t.Fatalf("UpdateRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}
	if got.Status != RunCompleted || got.Reason != "converged" {
		t.Errorf("status/reason = %v/%q, want completed/converged", got.Status, got.Reason)
	}
	if got.BestFitness == nil || *got.BestFitness != 0.81 {
		t.Errorf("best_fitness = %v, want 0.81", got.BestFitness)
	}
	if len(got.History) != 2 {
		t.Errorf("history length = %d, want 2", len(got.History))
	}
}

func TestListRunsByStatus(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, st := range []RunStatus{RunRunning, RunCompleted, RunCompleted} {
		r := &Run{ID: uuid.New(), Status: st}
		if err := s.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}

	status := RunCompleted
	runs, err := s.ListRuns(ctx, RunFilter{Status: &status})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 completed runs, got %d", len(runs))
	}
	for _, run := range runs {
		if run.Status != RunCompleted {
			t.Errorf("unexpected status %v in filtered list", run.Status)
		}
	}
}
