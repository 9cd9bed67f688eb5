package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luwei/stocklab/internal/apperr"
)

// StrategyRepository persists strategies
// ⭐ SSOT: 策略存取只在这里
type StrategyRepository struct {
	pool *pgxpool.Pool
}

// NewStrategyRepository creates a new strategy repository
func NewStrategyRepository(pool *pgxpool.Pool) *StrategyRepository {
	return &StrategyRepository{pool: pool}
}

// Insert persists a new strategy
func (r *StrategyRepository) Insert(ctx context.Context, s *Strategy) error {
	query := `
		INSERT INTO strategies (id, name, dsl, generated_code, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.DSL, s.GeneratedCode, s.CreatedAt)
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, apperr.StagePersist, "strategy insert failed", err)
	}
	return nil
}

// GetByID retrieves one strategy; a missing id is NotFound, not fatal
func (r *StrategyRepository) GetByID(ctx context.Context, id string) (*Strategy, error) {
	query := `
		SELECT id, name, dsl, generated_code, created_at
		FROM strategies
		WHERE id = $1
	`

	var s Strategy
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.DSL, &s.GeneratedCode, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, apperr.StagePersist, "strategy not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, apperr.StagePersist, "strategy query failed", err)
	}
	return &s, nil
}

// List returns all strategies ordered by recency
func (r *StrategyRepository) List(ctx context.Context) ([]*Strategy, error) {
	query := `
		SELECT id, name, dsl, generated_code, created_at
		FROM strategies
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, apperr.StagePersist, "strategy list failed", err)
	}
	defer rows.Close()

	var out []*Strategy
	for rows.Next() {
		var s Strategy
		if err := rows.Scan(&s.ID, &s.Name, &s.DSL, &s.GeneratedCode, &s.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindUnknown, apperr.StagePersist, "strategy scan failed", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
