package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Strategy is a persisted screening strategy.
// Created once; never mutated afterwards.
type Strategy struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	DSL           json.RawMessage `json:"dsl"`
	GeneratedCode string          `json:"generated_code"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StrategyRun is one execution record. Append-only.
type StrategyRun struct {
	ID         string          `json:"id"`
	StrategyID string          `json:"strategy_id"`
	Params     json.RawMessage `json:"params"`
	Result     json.RawMessage `json:"result"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewID returns an opaque id like "stg_9f2c..." (prefix + 16 hex chars)
func NewID(prefix string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return prefix + "_" + hex.EncodeToString(buf)
}
