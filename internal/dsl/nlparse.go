package dsl

import (
	"regexp"
	"strconv"
	"strings"
)

// ParseNL maps free-form text to a best-effort StrategyDSL.
//
// This is NOT a grammar. It is an ordered list of independent regex probes,
// each of which may set exactly one field. Later probes overwrite earlier
// ones only when they target the same field (tech/exitPattern: last match
// wins). Unmatched text leaves the field at its default. Output is advisory
// only — callers should let the user review before creating a strategy.
// 解析宽松, 允许任意缺省; 对合法 UTF-8 文本永不报错.
func ParseNL(text string) StrategyDSL {
	d := Default()
	t := strings.TrimSpace(text)
	if t == "" {
		return d
	}

	for _, p := range nlProbes {
		m := p.re.FindStringSubmatch(t)
		if m != nil {
			p.apply(&d, m)
		}
	}
	return d
}

type nlProbe struct {
	re    *regexp.Regexp
	apply func(d *StrategyDSL, m []string)
}

// nlProbes is the fixed probe order. No probe depends on another's outcome.
var nlProbes = []nlProbe{
	{
		re: regexp.MustCompile(`(?i)(?:pe|市盈率)\s*(?:小于|低于|<=|≤|不超过|<)\s*([0-9]+(?:\.[0-9]+)?)`),
		apply: func(d *StrategyDSL, m []string) {
			d.Filters.PEMax = parseFloat(m[1])
		},
	},
	{
		re: regexp.MustCompile(`市值\s*(?:小于|低于|<=|≤|不超过|<)\s*([0-9]+(?:\.[0-9]+)?)\s*(?:亿元|亿)?`),
		apply: func(d *StrategyDSL, m []string) {
			d.Filters.McapMaxYi = parseFloat(m[1])
		},
	},
	{
		re: regexp.MustCompile(`换手\s*(?:大于|高于|>=|≥|不少于|>)\s*([0-9]+(?:\.[0-9]+)?)\s*%?`),
		apply: func(d *StrategyDSL, m []string) {
			d.Filters.TurnMinPct = parseFloat(m[1])
		},
	},
	{
		re: regexp.MustCompile(`(?:5日|五日).*(?:均线|ma).*(?:向上|上行)`),
		apply: func(d *StrategyDSL, m []string) {
			d.Filters.Tech = TechMAUp5
		},
	},
	{
		re: regexp.MustCompile(`突破.*(?:20日|二十日).*(?:高点|新高)`),
		apply: func(d *StrategyDSL, m []string) {
			d.Filters.Tech = TechBreak20D
		},
	},
	{
		re: regexp.MustCompile(`(?i)(?:rsi|超卖).*(?:回升|反弹)`),
		apply: func(d *StrategyDSL, m []string) {
			d.Filters.Tech = TechRSIOversold
		},
	},
	{
		re: regexp.MustCompile(`止盈\s*([+-]?[0-9]+(?:\.[0-9]+)?)\s*%?`),
		apply: func(d *StrategyDSL, m []string) {
			// 符号保留原样
			d.Exits.TakeProfitPct = parseFloat(m[1])
		},
	},
	{
		re: regexp.MustCompile(`止损\s*([+-]?[0-9]+(?:\.[0-9]+)?)\s*%?`),
		apply: func(d *StrategyDSL, m []string) {
			d.Exits.StopLossPct = parseFloat(m[1])
		},
	},
	{
		re: regexp.MustCompile(`跌破.*(?:10日|十日).*(?:均线|线)`),
		apply: func(d *StrategyDSL, m []string) {
			d.Exits.ExitPattern = ExitCloseBelowMA10
		},
	},
	{
		re: regexp.MustCompile(`看跌吞没|吞没形态`),
		apply: func(d *StrategyDSL, m []string) {
			d.Exits.ExitPattern = ExitBearishEngulfing
		},
	},
	{
		re: regexp.MustCompile(`放量.*(?:下破|破位)`),
		apply: func(d *StrategyDSL, m []string) {
			d.Exits.ExitPattern = ExitVolumeBreakdown
		},
	},
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
