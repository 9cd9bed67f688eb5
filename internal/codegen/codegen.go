package codegen

import (
	"math"
	"strconv"
	"strings"

	"github.com/luwei/stocklab/internal/dsl"
)

// Generate renders readable, auditable strategy code for display.
//
// The text is pandas-flavoured pseudo code kept for audit trails and the
// frontend code viewer; it is never executed. Execution goes through the
// compiled Program (see Compile). Identical DSL and name always produce
// byte-identical output.
func Generate(name string, d dsl.StrategyDSL) string {
	f := d.Filters
	e := d.Exits

	var lines []string
	lines = append(lines, "# Auto-generated strategy code (demo)")
	lines = append(lines, "# StrategyName: "+pyRepr(name))
	lines = append(lines, "")
	lines = append(lines, "def screen(context):")
	lines = append(lines, `    """Return a pandas.DataFrame of candidates."""`)
	lines = append(lines, "    import pandas as pd")
	lines = append(lines, "    universe = context.universe()  # DataFrame with ts_code/name/industry etc.")
	lines = append(lines, "    df = context.latest_daily_basic(universe)  # includes pe,total_mv,turnover_rate")
	lines = append(lines, "    out = df.copy()")

	if f.PEMax != nil {
		lines = append(lines, "    out = out[out['pe'] <= "+pyFloat(*f.PEMax)+"]")
	}
	if f.McapMaxYi != nil {
		// total_mv 统一由 context 换算为亿元口径
		lines = append(lines, "    out = out[out['mcap_yi'] <= "+pyFloat(*f.McapMaxYi)+"]")
	}
	if f.TurnMinPct != nil {
		lines = append(lines, "    out = out[out['turnover_rate'] >= "+pyFloat(*f.TurnMinPct)+"]")
	}

	if f.Tech != dsl.TechNone {
		lines = append(lines, "    out = context.apply_tech_filter(out, tech="+pyRepr(string(f.Tech))+")")
	}

	lines = append(lines, "    return out.sort_values('turnover_rate', ascending=False).head(200)")
	lines = append(lines, "")
	lines = append(lines, "def exits(context, position):")
	lines = append(lines, `    """Return exit rules (for signal generation)."""`)
	lines = append(lines, "    rules = {}")
	if e.TakeProfitPct != nil {
		lines = append(lines, "    rules['take_profit_pct'] = "+pyFloat(*e.TakeProfitPct))
	}
	if e.StopLossPct != nil {
		lines = append(lines, "    rules['stop_loss_pct'] = "+pyFloat(*e.StopLossPct))
	}
	if e.ExitPattern != dsl.ExitNone {
		lines = append(lines, "    rules['exit_pattern'] = "+pyRepr(string(e.ExitPattern)))
	}
	lines = append(lines, "    return rules")
	lines = append(lines, "")

	return strings.Join(lines, "\n")
}

// pyRepr renders a string the way Python repr() does for simple strings
func pyRepr(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// pyFloat renders a float the way Python str(float) does
func pyFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e16 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
