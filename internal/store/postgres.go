package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const evaluationColumns = `evaluation_id, configuration_id, ci, rank, payload, created_at`

func (s *PostgresStore) SaveEvaluation(ctx context.Context, e *Evaluation) error {
	payloadJSON, _ := json.Marshal(e.Payload)
	return s.pool.QueryRow(ctx, `
		INSERT INTO evaluations (evaluation_id, configuration_id, ci, rank, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		e.ID, e.ConfigurationID, e.Ci, e.Rank, payloadJSON,
	).Scan(&e.CreatedAt)
}

func (s *PostgresStore) GetEvaluation(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	e := &Evaluation{}
	var payloadJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations WHERE evaluation_id = $1`, id,
	).Scan(&e.ID, &e.ConfigurationID, &e.Ci, &e.Rank, &payloadJSON, &e.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if payloadJSON != nil {
		_ = json.Unmarshal(payloadJSON, &e.Payload)
	}
	return e, nil
}

func (s *PostgresStore) ListEvaluations(ctx context.Context, limit int) ([]*Evaluation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Evaluation
	for rows.Next() {
		e := &Evaluation{}
		var payloadJSON []byte
		if err := rows.Scan(&e.ID, &e.ConfigurationID, &e.Ci, &e.Rank, &payloadJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if payloadJSON != nil {
			_ = json.Unmarshal(payloadJSON, &e.Payload)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const runColumns = `run_id, status, reason, best_fitness, best_configuration, params, history, error,
	started_at, finished_at, updated_at`

func (s *PostgresStore) CreateRun(ctx context.Context, r *Run) error {
	bcJSON, _ := json.Marshal(r.BestConfiguration)
	paramsJSON, _ := json.Marshal(r.Params)
	historyJSON, _ := json.Marshal(r.History)
	return s.pool.QueryRow(ctx, `
		INSERT INTO optimization_runs (run_id, status, reason, best_fitness,
			best_configuration, params, history, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING started_at, updated_at`,
		r.ID, r.Status, r.Reason, r.BestFitness, bcJSON, paramsJSON, historyJSON, r.Error,
	).Scan(&r.StartedAt, &r.UpdatedAt)
}

func (s *PostgresStore) UpdateRun(ctx context.Context, r *Run) error {
	bcJSON, _ := json.Marshal(r.BestConfiguration)
	paramsJSON, _ := json.Marshal(r.Params)
	historyJSON, _ := json.Marshal(r.History)
	_, err := s.pool.Exec(ctx, `
		UPDATE optimization_runs SET
			status = $2, reason = $3, best_fitness = $4,
			best_configuration = $5, params = $6, history = $7, error = $8,
			finished_at = $9, updated_at = now()
		WHERE run_id = $1`,
		r.ID, r.Status, r.Reason, r.BestFitness,
		bcJSON, paramsJSON, historyJSON, r.Error,
		r.FinishedAt,
	)
	return err
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM optimization_runs WHERE run_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM optimization_runs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}

	query += " ORDER BY started_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows pgx.Rows) ([]*Run, error) {
	var out []*Run
	for rows.Next() {
		r := &Run{}
		var bcJSON, paramsJSON, historyJSON []byte
		err := rows.Scan(
			&r.ID, &r.Status, &r.Reason, &r.BestFitness,
			&bcJSON, &paramsJSON, &historyJSON, &r.Error,
			&r.StartedAt, &r.FinishedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if bcJSON != nil {
			_ = json.Unmarshal(bcJSON, &r.BestConfiguration)
		}
		if paramsJSON != nil {
			_ = json.Unmarshal(paramsJSON, &r.Params)
		}
		if historyJSON != nil {
			_ = json.Unmarshal(historyJSON, &r.History)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
