package runner

import (
	"context"
	"fmt"
	"sort"

	"github.com/luwei/stocklab/internal/apperr"
	"github.com/luwei/stocklab/internal/codegen"
	"github.com/luwei/stocklab/pkg/logger"
)

// maxResultRows caps what a run returns after the generator-internal
// top-200 truncation
const maxResultRows = 100

// Result is the output table of one screen execution
type Result struct {
	TradeDate string         `json:"trade_date"`
	Count     int            `json:"count"`
	Items     []CandidateRow `json:"items"`
}

// Runner interprets compiled strategy programs against a market snapshot
// ⭐ SSOT: 策略执行只在这里
type Runner struct {
	logger *logger.Logger
}

// New creates a new runner
func New(log *logger.Logger) *Runner {
	return &Runner{logger: log}
}

// Execute interprets the program's screen instructions in order.
// A zero-row result is a normal outcome; upstream failures and malformed
// programs surface as classified errors and must not be swallowed.
func (r *Runner) Execute(ctx context.Context, program *codegen.Program, ec *Context) (*Result, error) {
	if program == nil || len(program.Instructions) == 0 {
		return nil, apperr.New(apperr.KindInvalidGeneratedCode, apperr.StageExecute,
			"program has no screen instructions")
	}

	rows, err := ec.LatestDailyBasic(ctx)
	if err != nil {
		return nil, err
	}

	for _, ins := range program.Instructions {
		rows, err = r.apply(rows, ins, ec)
		if err != nil {
			return nil, err
		}
	}

	// Runner-level cap after the screen's own head(200)
	if len(rows) > maxResultRows {
		rows = rows[:maxResultRows]
	}

	r.logger.WithFields(map[string]interface{}{
		"strategy":   program.Name,
		"trade_date": ec.TradeDate,
		"rows":       len(rows),
	}).Info("Strategy screen executed")

	return &Result{
		TradeDate: ec.TradeDate,
		Count:     len(rows),
		Items:     rows,
	}, nil
}

// apply interprets a single instruction
func (r *Runner) apply(rows []CandidateRow, ins codegen.Instruction, ec *Context) ([]CandidateRow, error) {
	switch ins.Op {
	case codegen.OpFilterPEMax:
		return keep(rows, func(c CandidateRow) bool { return c.PE <= ins.Arg }), nil
	case codegen.OpFilterMcapMax:
		return keep(rows, func(c CandidateRow) bool { return c.McapYi <= ins.Arg }), nil
	case codegen.OpFilterTurnMin:
		return keep(rows, func(c CandidateRow) bool { return c.TurnoverRate >= ins.Arg }), nil
	case codegen.OpTechFilter:
		return ec.ApplyTechFilter(rows, ins.Tech), nil
	case codegen.OpSortTurnoverTopN:
		sorted := make([]CandidateRow, len(rows))
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].TurnoverRate > sorted[j].TurnoverRate
		})
		if len(sorted) > ins.N {
			sorted = sorted[:ins.N]
		}
		return sorted, nil
	default:
		return nil, apperr.New(apperr.KindInvalidGeneratedCode, apperr.StageExecute,
			fmt.Sprintf("unknown instruction op %d", ins.Op))
	}
}
