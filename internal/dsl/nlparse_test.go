package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNLEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		d := ParseNL(text)
		assert.Equal(t, Default(), d)
	}
}

func TestParseNLFull(t *testing.T) {
	d := ParseNL("市盈率小于20，市值小于100亿，换手大于5%，止盈10%，止损-5%")

	require.NotNil(t, d.Filters.PEMax)
	assert.Equal(t, 20.0, *d.Filters.PEMax)
	require.NotNil(t, d.Filters.McapMaxYi)
	assert.Equal(t, 100.0, *d.Filters.McapMaxYi)
	require.NotNil(t, d.Filters.TurnMinPct)
	assert.Equal(t, 5.0, *d.Filters.TurnMinPct)
	require.NotNil(t, d.Exits.TakeProfitPct)
	assert.Equal(t, 10.0, *d.Exits.TakeProfitPct)
	require.NotNil(t, d.Exits.StopLossPct)
	assert.Equal(t, -5.0, *d.Exits.StopLossPct)
	assert.Equal(t, 1, d.Version)
	assert.Equal(t, "A", d.Universe)
}

func TestParseNLVariants(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, d StrategyDSL)
	}{
		{
			"pe english keyword",
			"PE 低于 15.5",
			func(t *testing.T, d StrategyDSL) {
				require.NotNil(t, d.Filters.PEMax)
				assert.Equal(t, 15.5, *d.Filters.PEMax)
			},
		},
		{
			"mcap without unit",
			"市值不超过50",
			func(t *testing.T, d StrategyDSL) {
				require.NotNil(t, d.Filters.McapMaxYi)
				assert.Equal(t, 50.0, *d.Filters.McapMaxYi)
			},
		},
		{
			"turnover operator form",
			"换手 >= 3",
			func(t *testing.T, d StrategyDSL) {
				require.NotNil(t, d.Filters.TurnMinPct)
				assert.Equal(t, 3.0, *d.Filters.TurnMinPct)
			},
		},
		{
			"ma up trigger",
			"5日均线向上",
			func(t *testing.T, d StrategyDSL) {
				assert.Equal(t, TechMAUp5, d.Filters.Tech)
			},
		},
		{
			"break 20d trigger",
			"突破20日新高",
			func(t *testing.T, d StrategyDSL) {
				assert.Equal(t, TechBreak20D, d.Filters.Tech)
			},
		},
		{
			"rsi trigger",
			"RSI超卖反弹",
			func(t *testing.T, d StrategyDSL) {
				assert.Equal(t, TechRSIOversold, d.Filters.Tech)
			},
		},
		{
			"exit below ma10",
			"跌破10日线卖出",
			func(t *testing.T, d StrategyDSL) {
				assert.Equal(t, ExitCloseBelowMA10, d.Exits.ExitPattern)
			},
		},
		{
			"exit engulfing",
			"出现看跌吞没形态离场",
			func(t *testing.T, d StrategyDSL) {
				assert.Equal(t, ExitBearishEngulfing, d.Exits.ExitPattern)
			},
		},
		{
			"exit volume breakdown",
			"放量下破离场",
			func(t *testing.T, d StrategyDSL) {
				assert.Equal(t, ExitVolumeBreakdown, d.Exits.ExitPattern)
			},
		},
		{
			"take profit explicit plus sign",
			"止盈+8%",
			func(t *testing.T, d StrategyDSL) {
				require.NotNil(t, d.Exits.TakeProfitPct)
				assert.Equal(t, 8.0, *d.Exits.TakeProfitPct)
			},
		},
		{
			"unmatched text leaves defaults",
			"随便说点什么",
			func(t *testing.T, d StrategyDSL) {
				assert.Equal(t, Default(), d)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ParseNL(tt.text))
		})
	}
}

// Probe order is fixed; when two phrases target the same field the later
// probe in the table wins regardless of position in the text.
func TestParseNLLastProbeWins(t *testing.T) {
	d := ParseNL("RSI超卖反弹且5日均线向上")
	assert.Equal(t, TechRSIOversold, d.Filters.Tech)

	d = ParseNL("放量破位或跌破10日线")
	assert.Equal(t, ExitVolumeBreakdown, d.Exits.ExitPattern)
}

// 止损符号保持原样, 正值照单全收
func TestParseNLStopLossSignPreserved(t *testing.T) {
	d := ParseNL("止损5%")
	require.NotNil(t, d.Exits.StopLossPct)
	assert.Equal(t, 5.0, *d.Exits.StopLossPct)

	d = ParseNL("止损-12.5%")
	require.NotNil(t, d.Exits.StopLossPct)
	assert.Equal(t, -12.5, *d.Exits.StopLossPct)
}
