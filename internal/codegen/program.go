package codegen

import (
	"strings"

	"github.com/luwei/stocklab/internal/apperr"
	"github.com/luwei/stocklab/internal/dsl"
)

// OpCode enumerates screen-stage instructions
// ⭐ SSOT: 策略可执行指令集只在这里定义
type OpCode int

const (
	// OpFilterPEMax keeps rows with pe <= Arg
	OpFilterPEMax OpCode = iota
	// OpFilterMcapMax keeps rows with mcap_yi <= Arg (亿元口径)
	OpFilterMcapMax
	// OpFilterTurnMin keeps rows with turnover_rate >= Arg
	OpFilterTurnMin
	// OpTechFilter applies the named technical approximation
	OpTechFilter
	// OpSortTurnoverTopN sorts by turnover_rate desc and keeps the first N rows
	OpSortTurnoverTopN
)

// Instruction is one step of a compiled screen
type Instruction struct {
	Op   OpCode
	Arg  float64
	Tech dsl.TechTrigger
	N    int
}

// Program is the executable form of a strategy.
//
// The screen is a closed, ordered instruction list interpreted by the runner;
// arbitrary code is never executed. Source carries the generated audit text
// the instruction list serializes to.
type Program struct {
	Name         string
	DSL          dsl.StrategyDSL
	Instructions []Instruction
	Source       string
}

// screenTopN is the generator-internal candidate cap
const screenTopN = 200

// Compile validates the DSL and lowers it to a Program.
// Instruction order mirrors the generated screen body: pe, mcap, turnover,
// tech filter, then sort-and-truncate. Absent fields contribute nothing.
func Compile(name string, d dsl.StrategyDSL) (*Program, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	p := &Program{
		Name:   name,
		DSL:    d,
		Source: Generate(name, d),
	}

	f := d.Filters
	if f.PEMax != nil {
		p.Instructions = append(p.Instructions, Instruction{Op: OpFilterPEMax, Arg: *f.PEMax})
	}
	if f.McapMaxYi != nil {
		p.Instructions = append(p.Instructions, Instruction{Op: OpFilterMcapMax, Arg: *f.McapMaxYi})
	}
	if f.TurnMinPct != nil {
		p.Instructions = append(p.Instructions, Instruction{Op: OpFilterTurnMin, Arg: *f.TurnMinPct})
	}
	if f.Tech != dsl.TechNone {
		p.Instructions = append(p.Instructions, Instruction{Op: OpTechFilter, Tech: f.Tech})
	}
	p.Instructions = append(p.Instructions, Instruction{Op: OpSortTurnoverTopN, N: screenTopN})

	return p, nil
}

// ExitRules returns the exit-rule mapping for a DSL.
// Key set is exactly the set fields; absent fields contribute no key.
func ExitRules(d dsl.StrategyDSL) map[string]interface{} {
	rules := make(map[string]interface{})
	if d.Exits.TakeProfitPct != nil {
		rules["take_profit_pct"] = *d.Exits.TakeProfitPct
	}
	if d.Exits.StopLossPct != nil {
		rules["stop_loss_pct"] = *d.Exits.StopLossPct
	}
	if d.Exits.ExitPattern != dsl.ExitNone {
		rules["exit_pattern"] = string(d.Exits.ExitPattern)
	}
	return rules
}

// ValidateSource checks that stored strategy code still carries the entry
// points the runner contract requires. Strategies persisted before a template
// change (or hand-edited rows) fail here instead of misbehaving mid-run.
func ValidateSource(code string) error {
	if !strings.Contains(code, "def screen(") {
		return apperr.New(apperr.KindInvalidGeneratedCode, apperr.StageExecute,
			"strategy code missing screen() entry point")
	}
	if !strings.Contains(code, "def exits(") {
		return apperr.New(apperr.KindInvalidGeneratedCode, apperr.StageExecute,
			"strategy code missing exits() entry point")
	}
	return nil
}
