package signals

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/luwei/stocklab/internal/dsl"
	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/pkg/logger"
)

// BarProvider supplies historical daily bars
type BarProvider interface {
	FetchKline(ctx context.Context, code, start, end, adjust string) ([]eastmoney.Bar, error)
}

// Event is one buy/sell/note marker on a symbol's timeline.
// Transient output; persistence is the caller's concern.
type Event struct {
	Type        string  `json:"type"` // buy, sell, note
	Date        string  `json:"date"` // YYYY-MM-DD
	Price       float64 `json:"price"`
	Title       string  `json:"title"`
	Description string  `json:"desc"`
}

// Report is the signal scan output for one symbol
type Report struct {
	TsCode string  `json:"ts_code"`
	Events []Event `json:"events"`
}

// Lookback bounds and history multiplier. The fetch window is stretched so
// the rolling averages have enough warm-up bars.
const (
	minLookbackDays = 20
	maxLookbackDays = 400
	lookbackStretch = 1.8
	maxEvents       = 30
	noteCadenceDays = 15
)

// Engine computes buy/sell events over real kline data
// ⭐ SSOT: 信号扫描只在这里
//
// Demo-grade rules:
//   - Buy: close crosses above MA5 with MA5 rising (or tech trigger override)
//   - Sell: take profit / stop loss from last entry, or close below MA10
type Engine struct {
	provider BarProvider
	logger   *logger.Logger
}

// NewEngine creates a new signal engine
func NewEngine(provider BarProvider, log *logger.Logger) *Engine {
	return &Engine{provider: provider, logger: log}
}

// ComputeEvents fetches qfq bars for the clamped lookback window and scans
// them against the DSL's exit rules. Upstream failure degrades to an empty
// event list, matching the soft-fail contract of the bar provider.
func (e *Engine) ComputeEvents(ctx context.Context, tsCode string, d dsl.StrategyDSL, lookbackDays int) (*Report, error) {
	days := clampLookback(lookbackDays)
	end := time.Now()
	start := end.AddDate(0, 0, -int(float64(days)*lookbackStretch))

	bars, err := e.provider.FetchKline(ctx, eastmoney.BareCode(tsCode),
		start.Format("20060102"), end.Format("20060102"), "qfq")
	if err != nil {
		e.logger.WithError(err).WithField("ts_code", tsCode).Warn("Kline unavailable, returning empty events")
		return &Report{TsCode: tsCode, Events: []Event{}}, nil
	}

	events := scan(bars, d)
	return &Report{TsCode: tsCode, Events: events}, nil
}

// clampLookback bounds the requested lookback to [20, 400] days
func clampLookback(days int) int {
	if days < minLookbackDays {
		return minLookbackDays
	}
	if days > maxLookbackDays {
		return maxLookbackDays
	}
	return days
}

// scan walks an ascending bar series with a FLAT/LONG state machine.
// At most one open position at a time; one trigger evaluated per bar.
func scan(bars []eastmoney.Bar, d dsl.StrategyDSL) []Event {
	events := []Event{}
	if len(bars) == 0 {
		return events
	}

	ma5 := rolling(bars, 5)
	ma10 := rolling(bars, 10)

	tp := d.Exits.TakeProfitPct
	sl := d.Exits.StopLossPct

	var entryPrice float64
	var entryDate time.Time
	inPosition := false

	for i := 1; i < len(bars); i++ {
		// Rows without full averages are skipped (insufficient lookback)
		if math.IsNaN(ma5[i]) || math.IsNaN(ma10[i]) {
			continue
		}

		date := barDate(bars[i])
		close0 := bars[i-1].Close
		close1 := bars[i].Close

		// Buy trigger: MA5 cross-up with positive slope
		crossUpMA5 := close0 <= ma5[i-1] && close1 > ma5[i]
		slope := ma5[i] - ma5[i-1]
		buyOK := crossUpMA5 && slope > 0

		// Tech overrides approximate momentum breakouts / rebounds
		if d.Filters.Tech == dsl.TechBreak20D {
			lo := i - 20
			if lo < 0 {
				lo = 0
			}
			window := bars[lo:i]
			if len(window) >= 10 && close1 >= maxClose(window) {
				buyOK = true
			}
		}
		if d.Filters.Tech == dsl.TechRSIOversold {
			// 近似: 10日回撤后3日反弹
			lo := i - 10
			if lo < 0 {
				lo = 0
			}
			window := bars[lo:i]
			if len(window) >= 8 && close1 > close0 && close1 >= minClose(window)*1.03 {
				buyOK = true
			}
		}

		if !inPosition && buyOK {
			inPosition = true
			entryPrice = close1
			entryDate = date
			events = append(events, Event{
				Type:        "buy",
				Date:        date.Format("2006-01-02"),
				Price:       round3(close1),
				Title:       "买入触发",
				Description: "价格上穿MA5且MA5上行（或技术触发近似）。",
			})
			continue
		}

		if !inPosition {
			continue
		}

		// Sell triggers in fixed priority: take profit, stop loss, pattern.
		// Note: stop loss sign is not validated; a positive stopLossPct
		// behaves as a second take profit (documented gap).
		if tp != nil && close1 >= entryPrice*(1+*tp/100) {
			events = append(events, Event{
				Type:        "sell",
				Date:        date.Format("2006-01-02"),
				Price:       round3(close1),
				Title:       "止盈触发",
				Description: fmt.Sprintf("达到止盈 %s%%。", formatPct(*tp)),
			})
			inPosition = false
			continue
		}
		if sl != nil && close1 <= entryPrice*(1+*sl/100) {
			events = append(events, Event{
				Type:        "sell",
				Date:        date.Format("2006-01-02"),
				Price:       round3(close1),
				Title:       "止损触发",
				Description: fmt.Sprintf("达到止损 %s%%。", formatPct(*sl)),
			})
			inPosition = false
			continue
		}

		exitByMA10 := close0 >= ma10[i-1] && close1 < ma10[i]
		if d.Exits.ExitPattern == dsl.ExitCloseBelowMA10 && exitByMA10 {
			events = append(events, Event{
				Type:        "sell",
				Date:        date.Format("2006-01-02"),
				Price:       round3(close1),
				Title:       "形态退出",
				Description: "收盘跌破MA10。",
			})
			inPosition = false
			continue
		}

		// Holding note every 15 calendar days; non-terminal
		if date.Sub(entryDate) >= noteCadenceDays*24*time.Hour {
			events = append(events, Event{
				Type:        "note",
				Date:        date.Format("2006-01-02"),
				Price:       round3(close1),
				Title:       "持仓观察",
				Description: "持仓超过两周，关注趋势延续与量能。",
			})
			entryDate = date // throttle notes
		}
	}

	// Keep only the most recent events
	if len(events) > maxEvents {
		events = events[len(events)-maxEvents:]
	}
	return events
}

// rolling computes an n-day simple moving average of close; NaN until warm
func rolling(bars []eastmoney.Bar, n int) []float64 {
	out := make([]float64, len(bars))
	var sum float64
	for i := range bars {
		sum += bars[i].Close
		if i >= n {
			sum -= bars[i-n].Close
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func maxClose(bars []eastmoney.Bar) float64 {
	m := bars[0].Close
	for _, b := range bars[1:] {
		if b.Close > m {
			m = b.Close
		}
	}
	return m
}

func minClose(bars []eastmoney.Bar) float64 {
	m := bars[0].Close
	for _, b := range bars[1:] {
		if b.Close < m {
			m = b.Close
		}
	}
	return m
}

func barDate(b eastmoney.Bar) time.Time {
	t, err := time.Parse("20060102", b.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// formatPct renders a percentage the way the original payloads did (10 -> "10")
func formatPct(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
