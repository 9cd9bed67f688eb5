package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luwei/stocklab/internal/apperr"
)

// RunRepository persists strategy run records
// ⭐ SSOT: 执行记录存取只在这里
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Insert appends a run record
func (r *RunRepository) Insert(ctx context.Context, run *StrategyRun) error {
	query := `
		INSERT INTO strategy_runs (id, strategy_id, params, result, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, run.ID, run.StrategyID, run.Params, run.Result, run.CreatedAt)
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, apperr.StagePersist, "run insert failed", err)
	}
	return nil
}

// ListByStrategy returns the most recent runs for a strategy.
// limit is clamped to [1, 100].
func (r *RunRepository) ListByStrategy(ctx context.Context, strategyID string, limit int) ([]*StrategyRun, error) {
	query := `
		SELECT id, strategy_id, params, result, created_at
		FROM strategy_runs
		WHERE strategy_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, strategyID, ClampLimit(limit))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, apperr.StagePersist, "run list failed", err)
	}
	defer rows.Close()

	var out []*StrategyRun
	for rows.Next() {
		var run StrategyRun
		if err := rows.Scan(&run.ID, &run.StrategyID, &run.Params, &run.Result, &run.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindUnknown, apperr.StagePersist, "run scan failed", err)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

// ClampLimit bounds a listing limit to [1, 100]
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 100 {
		return 100
	}
	return limit
}
