package runner

import (
	"context"
	"sort"

	"github.com/luwei/stocklab/internal/apperr"
	"github.com/luwei/stocklab/internal/dsl"
	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/pkg/logger"
)

// SpotProvider supplies the full-market realtime snapshot
type SpotProvider interface {
	FetchSpot(ctx context.Context) ([]eastmoney.SpotRow, error)
}

// UniverseRow is one symbol of the screening universe.
// industry/market 目前恒为空串, 占位字段, 后续接入行业口径
type UniverseRow struct {
	TsCode   string `json:"ts_code"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Market   string `json:"market"`
}

// CandidateRow is one row of the basic-metrics table the screen runs over
type CandidateRow struct {
	TsCode       string  `json:"ts_code"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Industry     string  `json:"industry"`
	Market       string  `json:"market"`
	Close        float64 `json:"close"`
	PctChg       float64 `json:"pct_chg"`
	TurnoverRate float64 `json:"turnover_rate"`
	PE           float64 `json:"pe"`
	TotalMV      float64 `json:"total_mv"`
	McapYi       float64 `json:"mcap_yi"`
}

// Context supplies market data snapshots to a strategy execution.
// It is the only capability a running strategy sees.
type Context struct {
	TradeDate string
	provider  SpotProvider
	logger    *logger.Logger

	// snapshot is fetched once per run and reused for universe and metrics
	snapshot []eastmoney.SpotRow
	fetched  bool
}

// NewContext creates an execution context for one trade date
func NewContext(tradeDate string, provider SpotProvider, log *logger.Logger) *Context {
	return &Context{
		TradeDate: tradeDate,
		provider:  provider,
		logger:    log,
	}
}

// spot lazily fetches and memoizes the market snapshot
func (c *Context) spot(ctx context.Context) ([]eastmoney.SpotRow, error) {
	if c.fetched {
		return c.snapshot, nil
	}

	rows, err := c.provider.FetchSpot(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, apperr.StageFetch,
			"market snapshot unavailable", err)
	}

	c.snapshot = rows
	c.fetched = true
	return rows, nil
}

// Universe returns the full set of screenable symbols
func (c *Context) Universe(ctx context.Context) ([]UniverseRow, error) {
	spot, err := c.spot(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]UniverseRow, 0, len(spot))
	for _, s := range spot {
		rows = append(rows, UniverseRow{
			TsCode: eastmoney.TSCode(s.Code),
			Name:   s.Name,
		})
	}
	return rows, nil
}

// LatestDailyBasic merges live metrics onto the universe by ts_code.
// 市值换算为亿元口径 (mcap_yi = total_mv / 1e8)
func (c *Context) LatestDailyBasic(ctx context.Context) ([]CandidateRow, error) {
	universe, err := c.Universe(ctx)
	if err != nil {
		return nil, err
	}

	spot, err := c.spot(ctx)
	if err != nil {
		return nil, err
	}

	static := make(map[string]UniverseRow, len(universe))
	for _, u := range universe {
		static[u.TsCode] = u
	}

	rows := make([]CandidateRow, 0, len(spot))
	for _, s := range spot {
		tsCode := eastmoney.TSCode(s.Code)
		u := static[tsCode]
		rows = append(rows, CandidateRow{
			TsCode:       tsCode,
			Code:         s.Code,
			Name:         s.Name,
			Industry:     u.Industry,
			Market:       u.Market,
			Close:        s.Close,
			PctChg:       s.PctChg,
			TurnoverRate: s.TurnoverRate,
			PE:           s.PE,
			TotalMV:      s.TotalMV,
			McapYi:       s.TotalMV / 1e8,
		})
	}
	return rows, nil
}

// ApplyTechFilter applies the named technical condition.
//
// These are deliberately coarse single-snapshot proxies, not real indicator
// computations — computing true MA/RSI per symbol would mean one kline fetch
// per symbol across the whole universe. Keep them exactly this crude.
func (c *Context) ApplyTechFilter(rows []CandidateRow, tech dsl.TechTrigger) []CandidateRow {
	if len(rows) == 0 {
		return rows
	}

	switch tech {
	case dsl.TechMAUp5:
		// 近似: 当日上涨且换手不低于中位数
		med := quantile(collect(rows, func(r CandidateRow) float64 { return r.TurnoverRate }), 0.5)
		return keep(rows, func(r CandidateRow) bool {
			return r.PctChg > 0 && r.TurnoverRate >= med
		})
	case dsl.TechBreak20D:
		// 近似: 涨幅位于前四分之一
		q75 := quantile(collect(rows, func(r CandidateRow) float64 { return r.PctChg }), 0.75)
		return keep(rows, func(r CandidateRow) bool {
			return r.PctChg >= q75
		})
	case dsl.TechRSIOversold:
		// 近似: 小幅反弹 (0 < 涨幅 < 2%)
		return keep(rows, func(r CandidateRow) bool {
			return r.PctChg > 0 && r.PctChg < 2
		})
	default:
		return rows
	}
}

func keep(rows []CandidateRow, pred func(CandidateRow) bool) []CandidateRow {
	out := make([]CandidateRow, 0, len(rows))
	for _, r := range rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func collect(rows []CandidateRow, f func(CandidateRow) float64) []float64 {
	vals := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = f(r)
	}
	return vals
}

// quantile computes the q-quantile with linear interpolation
// (pandas DataFrame.quantile 默认口径)
func quantile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return 0
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
