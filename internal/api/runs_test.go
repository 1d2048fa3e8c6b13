package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline-systems/flotilla/internal/optimize"
	"github.com/harborline-systems/flotilla/internal/store"
)

func startRunParams() optimize.Params {
	return optimize.Params{
		PopulationSize:    8,
		MaxGenerations:    3,
		ConvergenceWindow: 10,
		Seed:              9,
	}
}

func waitForRunStatus(t *testing.T, s *mockStore, id uuid.UUID, want store.RunStatus) *store.Run {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		rec, _ := s.GetRun(context.Background(), id)
		if rec != nil && rec.Status == want {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s never reached status %q", id, want)
	return nil
}

func TestStartRun(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/v1/runs", StartRunRequest{Params: startRunParams()})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(store.RunRunning), body["status"])
	id, err := uuid.Parse(body["run_id"])
	require.NoError(t, err)

	rec := waitForRunStatus(t, env.store, id, store.RunCompleted)
	assert.Equal(t, string(optimize.ReasonMaxGenerations), rec.Reason)
	require.NotNil(t, rec.BestFitness)
	assert.Len(t, rec.History, 3)
}

func TestStartRunBadRequests(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Factory rejects invalid tunables.
	p := startRunParams()
	p.Selection = "bogus"
	w2 := env.do(t, http.MethodPost, "/api/v1/runs", StartRunRequest{Params: p})
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestStartRunInfeasibleSealsFailed(t *testing.T) {
	env := newTestEnv(t, "")

	// The search space has no platform genes, so a minimum fleet size can
	// never be repaired into. Seeding happens in the background run: the
	// request is still accepted and the failure lands on the record.
	w := env.do(t, http.MethodPost, "/api/v1/runs", StartRunRequest{
		Params:      startRunParams(),
		Constraints: optimize.ConstraintSet{MinPlatforms: 5},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	id := uuid.MustParse(body["run_id"])

	rec := waitForRunStatus(t, env.store, id, store.RunFailed)
	assert.Contains(t, rec.Error, "feasible")
}

func TestListRuns(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/api/v1/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
	assert.Nil(t, env.store.lastRunFilter.Status)

	w = env.do(t, http.MethodGet, "/api/v1/runs?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.store.lastRunFilter.Status)
	assert.Equal(t, store.RunCompleted, *env.store.lastRunFilter.Status)
}

func TestGetRun(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/api/v1/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	cw := env.do(t, http.MethodPost, "/api/v1/runs", StartRunRequest{Params: startRunParams()})
	require.Equal(t, http.StatusAccepted, cw.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(cw.Body.Bytes(), &body))

	w = env.do(t, http.MethodGet, "/api/v1/runs/"+body["run_id"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec store.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, body["run_id"], rec.ID.String())
}

func TestCancelRun(t *testing.T) {
	env := newTestEnv(t, "hunter2")

	// Long run so it is still active when the cancel lands.
	p := startRunParams()
	p.MaxGenerations = 100000
	p.ConvergenceWindow = 100001
	cw := env.do(t, http.MethodPost, "/api/v1/runs", StartRunRequest{Params: p})
	require.Equal(t, http.StatusAccepted, cw.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(cw.Body.Bytes(), &body))
	id := body["run_id"]

	// Admin endpoint: no token, no cancel.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs/"+id+"/cancel", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/runs/"+id+"/cancel", nil)
	req.Header.Set("Authorization", "Bearer hunter2")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rec := waitForRunStatus(t, env.store, uuid.MustParse(id), store.RunCancelled)
	assert.Equal(t, string(optimize.ReasonUserCancelled), rec.Reason)
}

func TestCancelInactiveRun(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs/"+uuid.NewString()+"/cancel", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/runs/not-a-uuid/cancel", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
