package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luwei/stocklab/internal/dsl"
)

func TestGenerateDeterministic(t *testing.T) {
	d := dsl.Default()
	d.Filters.PEMax = dsl.Float(20)
	d.Filters.McapMaxYi = dsl.Float(100)
	d.Filters.Tech = dsl.TechBreak20D
	d.Exits.TakeProfitPct = dsl.Float(10)

	a := Generate("低估值突破", d)
	b := Generate("低估值突破", d)
	assert.Equal(t, a, b, "identical inputs must produce byte-identical code")
}

func TestGenerateTemplate(t *testing.T) {
	d := dsl.Default()
	d.Filters.PEMax = dsl.Float(20)
	d.Filters.TurnMinPct = dsl.Float(5)
	d.Exits.StopLossPct = dsl.Float(-5)
	d.Exits.ExitPattern = dsl.ExitCloseBelowMA10

	code := Generate("测试策略", d)

	assert.True(t, strings.HasPrefix(code, "# Auto-generated strategy code (demo)\n"))
	assert.Contains(t, code, "# StrategyName: '测试策略'")
	assert.Contains(t, code, "def screen(context):")
	assert.Contains(t, code, "def exits(context, position):")
	assert.Contains(t, code, "out = out[out['pe'] <= 20.0]")
	assert.Contains(t, code, "out = out[out['turnover_rate'] >= 5.0]")
	assert.Contains(t, code, "return out.sort_values('turnover_rate', ascending=False).head(200)")
	assert.Contains(t, code, "rules['stop_loss_pct'] = -5.0")
	assert.Contains(t, code, "rules['exit_pattern'] = 'close_below_ma10'")

	// Unset filters emit no line at all
	assert.NotContains(t, code, "mcap_yi")
	assert.NotContains(t, code, "apply_tech_filter")
	assert.NotContains(t, code, "take_profit_pct")
}

func TestGenerateEmptyDSL(t *testing.T) {
	code := Generate("空策略", dsl.Default())

	assert.Contains(t, code, "def screen(context):")
	assert.Contains(t, code, "rules = {}")
	assert.NotContains(t, code, "out = out[")
	assert.NotContains(t, code, "rules['")
}

func TestPyFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{20, "20.0"},
		{-5, "-5.0"},
		{0, "0.0"},
		{5.5, "5.5"},
		{12.345, "12.345"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pyFloat(tt.in))
	}
}

func TestPyRepr(t *testing.T) {
	assert.Equal(t, "'abc'", pyRepr("abc"))
	assert.Equal(t, `'it\'s'`, pyRepr("it's"))
	assert.Equal(t, `'a\\b'`, pyRepr(`a\b`))
}
