package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the strategy tables if they do not exist
// ⭐ SSOT: 建表语句只在这里
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS strategies (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			dsl            JSONB NOT NULL,
			generated_code TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS strategy_runs (
			id          TEXT PRIMARY KEY,
			strategy_id TEXT NOT NULL,
			params      JSONB NOT NULL,
			result      JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_strategy_runs_strategy
			ON strategy_runs (strategy_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema setup failed: %w", err)
		}
	}
	return nil
}
