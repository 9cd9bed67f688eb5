package dsl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luwei/stocklab/internal/apperr"
)

func TestDefault(t *testing.T) {
	d := Default()

	assert.Equal(t, 1, d.Version)
	assert.Equal(t, "A", d.Universe)
	assert.Nil(t, d.Filters.PEMax)
	assert.Nil(t, d.Filters.McapMaxYi)
	assert.Nil(t, d.Filters.TurnMinPct)
	assert.Equal(t, TechNone, d.Filters.Tech)
	assert.Nil(t, d.Exits.TakeProfitPct)
	assert.Nil(t, d.Exits.StopLossPct)
	assert.Equal(t, ExitNone, d.Exits.ExitPattern)
}

func TestNormalize(t *testing.T) {
	var d StrategyDSL
	d.Normalize()

	assert.Equal(t, 1, d.Version)
	assert.Equal(t, "A", d.Universe)

	// Already-set values are left alone
	d2 := StrategyDSL{Version: 1, Universe: "A"}
	d2.Normalize()
	assert.Equal(t, 1, d2.Version)
	assert.Equal(t, "A", d2.Universe)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *StrategyDSL)
		wantErr bool
	}{
		{"default is valid", func(d *StrategyDSL) {}, false},
		{"version 2 rejected", func(d *StrategyDSL) { d.Version = 2 }, true},
		{"universe US rejected", func(d *StrategyDSL) { d.Universe = "US" }, true},
		{"tech ma_up_5", func(d *StrategyDSL) { d.Filters.Tech = TechMAUp5 }, false},
		{"tech break_20d", func(d *StrategyDSL) { d.Filters.Tech = TechBreak20D }, false},
		{"tech rsi_oversold", func(d *StrategyDSL) { d.Filters.Tech = TechRSIOversold }, false},
		{"unknown tech rejected", func(d *StrategyDSL) { d.Filters.Tech = "macd_gold" }, true},
		{"exit close_below_ma10", func(d *StrategyDSL) { d.Exits.ExitPattern = ExitCloseBelowMA10 }, false},
		{"exit bearish_engulfing", func(d *StrategyDSL) { d.Exits.ExitPattern = ExitBearishEngulfing }, false},
		{"exit volume_breakdown", func(d *StrategyDSL) { d.Exits.ExitPattern = ExitVolumeBreakdown }, false},
		{"unknown exit rejected", func(d *StrategyDSL) { d.Exits.ExitPattern = "doji" }, true},
		// 正号止损不报错, 已知缺陷保持原样
		{"positive stop loss accepted", func(d *StrategyDSL) { d.Exits.StopLossPct = Float(5) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Default()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsSchemaViolation(err))
				assert.Equal(t, 400, apperr.HTTPStatus(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJSONRoundTripKeys(t *testing.T) {
	d := Default()
	d.Filters.PEMax = Float(20)
	d.Exits.StopLossPct = Float(-5)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	// Wire names are the frontend contract
	s := string(data)
	assert.Contains(t, s, `"peMax":20`)
	assert.Contains(t, s, `"stopLossPct":-5`)
	assert.Contains(t, s, `"universe":"A"`)
	assert.NotContains(t, s, "mcapMaxYi", "unset optional fields must be omitted")
}
