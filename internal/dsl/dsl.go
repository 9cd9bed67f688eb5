package dsl

import (
	"fmt"

	"github.com/luwei/stocklab/internal/apperr"
)

// TechTrigger names a technical entry condition
type TechTrigger string

const (
	TechNone        TechTrigger = ""
	TechMAUp5       TechTrigger = "ma_up_5"
	TechBreak20D    TechTrigger = "break_20d"
	TechRSIOversold TechTrigger = "rsi_oversold"
)

// ExitPattern names a pattern-based exit condition
type ExitPattern string

const (
	ExitNone              ExitPattern = ""
	ExitCloseBelowMA10    ExitPattern = "close_below_ma10"
	ExitBearishEngulfing  ExitPattern = "bearish_engulfing"
	ExitVolumeBreakdown   ExitPattern = "volume_breakdown"
)

// StrategyFilters is the screening half of a strategy
// 所有数值条件均可缺省, 缺省表示不施加该约束
type StrategyFilters struct {
	PEMax      *float64    `json:"peMax,omitempty"`
	McapMaxYi  *float64    `json:"mcapMaxYi,omitempty"`
	TurnMinPct *float64    `json:"turnMinPct,omitempty"`
	Tech       TechTrigger `json:"tech"`
	Note       string      `json:"note"`
}

// StrategyExits is the position-exit half of a strategy
// 注意: stopLossPct 正负号不做校验, 正值会表现为第二个止盈 — 已知缺陷, 保持原样
type StrategyExits struct {
	TakeProfitPct *float64    `json:"takeProfitPct,omitempty"`
	StopLossPct   *float64    `json:"stopLossPct,omitempty"`
	ExitPattern   ExitPattern `json:"exitPattern"`
}

// StrategyDSL is a complete declarative strategy specification.
// Immutable value object; gains identity only once persisted.
type StrategyDSL struct {
	Version  int             `json:"version"`
	Universe string          `json:"universe"`
	Filters  StrategyFilters `json:"filters"`
	Exits    StrategyExits   `json:"exits"`
}

// Default returns a DSL with all constraints unset
func Default() StrategyDSL {
	return StrategyDSL{
		Version:  1,
		Universe: "A", // A股; 预留多市场扩展
	}
}

// Normalize fills zero-valued version/universe with their fixed defaults
func (d *StrategyDSL) Normalize() {
	if d.Version == 0 {
		d.Version = 1
	}
	if d.Universe == "" {
		d.Universe = "A"
	}
}

// Validate checks enum fields and fixed values.
// Unknown enum values are rejected at the boundary with a SchemaViolation.
// No cross-field validation: contradictory take-profit/stop-loss signs are
// accepted uncritically (documented gap).
func (d *StrategyDSL) Validate() error {
	if d.Version != 1 {
		return apperr.New(apperr.KindSchemaViolation, apperr.StageGenerate,
			fmt.Sprintf("unsupported dsl version %d", d.Version))
	}
	if d.Universe != "A" {
		return apperr.New(apperr.KindSchemaViolation, apperr.StageGenerate,
			fmt.Sprintf("unsupported universe %q", d.Universe))
	}

	switch d.Filters.Tech {
	case TechNone, TechMAUp5, TechBreak20D, TechRSIOversold:
	default:
		return apperr.New(apperr.KindSchemaViolation, apperr.StageGenerate,
			fmt.Sprintf("unknown tech trigger %q", d.Filters.Tech))
	}

	switch d.Exits.ExitPattern {
	case ExitNone, ExitCloseBelowMA10, ExitBearishEngulfing, ExitVolumeBreakdown:
	default:
		return apperr.New(apperr.KindSchemaViolation, apperr.StageGenerate,
			fmt.Sprintf("unknown exit pattern %q", d.Exits.ExitPattern))
	}

	return nil
}

// Float returns a pointer to v, for building DSL literals
func Float(v float64) *float64 {
	return &v
}
