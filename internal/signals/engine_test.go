package signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luwei/stocklab/internal/dsl"
	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/pkg/config"
	"github.com/luwei/stocklab/pkg/logger"
)

type fakeBars struct {
	bars []eastmoney.Bar
	err  error

	gotCode   string
	gotAdjust string
}

func (f *fakeBars) FetchKline(ctx context.Context, code, start, end, adjust string) ([]eastmoney.Bar, error) {
	f.gotCode = code
	f.gotAdjust = adjust
	return f.bars, f.err
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

// series builds consecutive daily bars from closes, starting 2026-01-01
func series(closes ...float64) []eastmoney.Bar {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]eastmoney.Bar, len(closes))
	for i, c := range closes {
		bars[i] = eastmoney.Bar{
			Date:  start.AddDate(0, 0, i).Format("20060102"),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return bars
}

// flatThen prepends n flat bars at base before the given closes
func flatThen(n int, base float64, closes ...float64) []eastmoney.Bar {
	all := make([]float64, 0, n+len(closes))
	for i := 0; i < n; i++ {
		all = append(all, base)
	}
	all = append(all, closes...)
	return series(all...)
}

func TestScanSingleBuyNoExitRules(t *testing.T) {
	// Flat warm-up then a jump above MA5, then a slow grind up.
	// No exit rules configured, so the position is never closed.
	bars := flatThen(15, 10, 11, 11.05, 11.1, 11.15, 11.2)

	events := scan(bars, dsl.Default())

	require.Len(t, events, 1)
	assert.Equal(t, "buy", events[0].Type)
	assert.Equal(t, "买入触发", events[0].Title)
	assert.Equal(t, "2026-01-16", events[0].Date)
	assert.Equal(t, 11.0, events[0].Price)
}

func TestScanTakeProfit(t *testing.T) {
	d := dsl.Default()
	d.Exits.TakeProfitPct = dsl.Float(10)

	// Entry at 11; take profit at 11 * 1.10 = 12.1
	bars := flatThen(15, 10, 11, 11.5, 12.0, 12.5)

	events := scan(bars, d)

	require.Len(t, events, 2)
	assert.Equal(t, "buy", events[0].Type)
	assert.Equal(t, "sell", events[1].Type)
	assert.Equal(t, "止盈触发", events[1].Title)
	assert.Equal(t, 12.5, events[1].Price)
	assert.Contains(t, events[1].Description, "10")
}

func TestScanStopLoss(t *testing.T) {
	d := dsl.Default()
	d.Exits.StopLossPct = dsl.Float(-5)

	// Entry at 11; stop loss at 11 * 0.95 = 10.45
	bars := flatThen(15, 10, 11, 10.4)

	events := scan(bars, d)

	require.Len(t, events, 2)
	assert.Equal(t, "sell", events[1].Type)
	assert.Equal(t, "止损触发", events[1].Title)
	assert.Equal(t, 10.4, events[1].Price)
}

func TestScanTakeProfitBeatsStopLoss(t *testing.T) {
	// A positive stop loss behaves as a second take profit; when both fire on
	// the same bar, take profit wins by priority.
	d := dsl.Default()
	d.Exits.TakeProfitPct = dsl.Float(1)
	d.Exits.StopLossPct = dsl.Float(0.5)

	bars := flatThen(15, 10, 11, 12)

	events := scan(bars, d)

	require.Len(t, events, 2)
	assert.Equal(t, "止盈触发", events[1].Title)
}

func TestScanExitBelowMA10(t *testing.T) {
	d := dsl.Default()
	d.Exits.ExitPattern = dsl.ExitCloseBelowMA10

	// Entry at 11, then a sharp drop through MA10
	bars := flatThen(15, 10, 11, 9)

	events := scan(bars, d)

	require.Len(t, events, 2)
	assert.Equal(t, "sell", events[1].Type)
	assert.Equal(t, "形态退出", events[1].Title)
}

func TestScanHoldingNote(t *testing.T) {
	// Entry then 16 more slowly rising bars: one holding note, no exit
	closes := []float64{11}
	c := 11.0
	for i := 0; i < 16; i++ {
		c += 0.05
		closes = append(closes, c)
	}
	bars := flatThen(15, 10, closes...)

	events := scan(bars, dsl.Default())

	require.Len(t, events, 2)
	assert.Equal(t, "buy", events[0].Type)
	assert.Equal(t, "note", events[1].Type)
	assert.Equal(t, "持仓观察", events[1].Title)
}

func TestScanEmptyAndShortSeries(t *testing.T) {
	assert.Empty(t, scan(nil, dsl.Default()))
	// Too short for MA10 warm-up: every bar skipped
	assert.Empty(t, scan(series(10, 11, 12, 13, 14), dsl.Default()))
}

func TestScanEventCap(t *testing.T) {
	// Repeated pump-and-dump cycles with a tight take profit generate far more
	// than the cap; only the most recent events are kept.
	d := dsl.Default()
	d.Exits.TakeProfitPct = dsl.Float(1)

	closes := make([]float64, 0, 400)
	for i := 0; i < 15; i++ {
		closes = append(closes, 10)
	}
	for cycle := 0; cycle < 40; cycle++ {
		closes = append(closes, 11, 11.5) // cross up, then take profit
		for i := 0; i < 6; i++ {
			closes = append(closes, 10) // decay back down
		}
	}

	events := scan(series(closes...), d)
	assert.LessOrEqual(t, len(events), 30)
	assert.Greater(t, len(events), 0)
}

func TestClampLookback(t *testing.T) {
	assert.Equal(t, 20, clampLookback(5))
	assert.Equal(t, 20, clampLookback(0))
	assert.Equal(t, 20, clampLookback(-10))
	assert.Equal(t, 120, clampLookback(120))
	assert.Equal(t, 400, clampLookback(1000))
}

func TestComputeEventsDegradesOnUpstreamError(t *testing.T) {
	provider := &fakeBars{err: errors.New("timeout")}
	engine := NewEngine(provider, testLogger())

	report, err := engine.ComputeEvents(context.Background(), "600519.SH", dsl.Default(), 120)
	require.NoError(t, err)
	assert.Equal(t, "600519.SH", report.TsCode)
	assert.Empty(t, report.Events)
}

func TestComputeEventsFetchParams(t *testing.T) {
	provider := &fakeBars{bars: flatThen(15, 10, 11)}
	engine := NewEngine(provider, testLogger())

	report, err := engine.ComputeEvents(context.Background(), "600519.SH", dsl.Default(), 120)
	require.NoError(t, err)

	assert.Equal(t, "600519", provider.gotCode, "exchange suffix stripped for the upstream call")
	assert.Equal(t, "qfq", provider.gotAdjust)
	assert.Len(t, report.Events, 1)
}

func TestRolling(t *testing.T) {
	bars := series(1, 2, 3, 4, 5, 6)
	ma := rolling(bars, 5)

	for i := 0; i < 4; i++ {
		assert.True(t, isNaN(ma[i]), "bar %d should be warm-up", i)
	}
	assert.InDelta(t, 3.0, ma[4], 1e-9)
	assert.InDelta(t, 4.0, ma[5], 1e-9)
}

func isNaN(v float64) bool { return v != v }
