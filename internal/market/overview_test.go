package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/pkg/config"
	"github.com/luwei/stocklab/pkg/logger"
	"github.com/luwei/stocklab/pkg/redis"
)

type fakeIndexes struct {
	rows []eastmoney.IndexRow
	err  error

	gotSecids []string
}

func (f *fakeIndexes) FetchIndexSpot(ctx context.Context, secids []string) ([]eastmoney.IndexRow, error) {
	f.gotSecids = secids
	return f.rows, f.err
}

func testService(provider IndexProvider) *Service {
	cfg := &config.Config{LogLevel: "error"}
	client, _ := redis.New(cfg) // Redis disabled: cache is a passthrough
	return NewService(provider, redis.NewCache(client, "test"), logger.New(cfg))
}

func f(v float64) *float64 { return &v }

func TestOverviewUpstreamFailure(t *testing.T) {
	provider := &fakeIndexes{err: errors.New("connection refused")}
	svc := testService(provider)

	ov, err := svc.Overview(context.Background(), "20260829")
	require.NoError(t, err, "overview reads never hard-fail")

	assert.True(t, ov.Mock)
	assert.Equal(t, "20260829", ov.TradeDate)
	require.Len(t, ov.Indices, 3)

	// Fixed placeholder rows in dashboard order
	assert.Equal(t, "上证", ov.Indices[0].Name)
	assert.Equal(t, "000001", ov.Indices[0].TsCode)
	assert.Equal(t, 3200.0, *ov.Indices[0].Close)
	assert.Equal(t, 0.5, *ov.Indices[0].PctChg)
	assert.Equal(t, "深成", ov.Indices[1].Name)
	assert.Equal(t, 10500.0, *ov.Indices[1].Close)
	assert.Equal(t, "创业板", ov.Indices[2].Name)
	assert.Equal(t, 1.2, *ov.Indices[2].PctChg)

	// No amounts on mock rows, so no turnover figure
	assert.Nil(t, ov.TurnoverYi)

	// score = clamp(50 + avg(0.5,0.8,1.2)*12) = 60
	assert.Equal(t, 60, ov.Sentiment.Score)
	// vol = clamp(0.5*10 + 1.2*8) = 15
	assert.Equal(t, 15, ov.VolIntensity)
	assert.Len(t, ov.Sectors, 5)

	// 请求的三个 secid 固定
	assert.Equal(t, []string{"1.000001", "0.399001", "0.399006"}, provider.gotSecids)
}

func TestOverviewLiveRows(t *testing.T) {
	provider := &fakeIndexes{rows: []eastmoney.IndexRow{
		// Upstream order differs from dashboard order
		{TsCode: "399006", Name: "创业板指", Close: f(2150.0), PctChg: f(-1.0), Amount: 8e11},
		{TsCode: "000001", Name: "上证指数", Close: f(3250.0), PctChg: f(0.4), Amount: 5e11},
	}}
	svc := testService(provider)

	ov, err := svc.Overview(context.Background(), "")
	require.NoError(t, err)

	assert.False(t, ov.Mock)
	require.Len(t, ov.Indices, 3)

	// Rebuilt in fixed order with canonical names
	assert.Equal(t, "上证", ov.Indices[0].Name)
	assert.Equal(t, 3250.0, *ov.Indices[0].Close)
	// Missing index becomes a bare placeholder row
	assert.Equal(t, "深成", ov.Indices[1].Name)
	assert.Nil(t, ov.Indices[1].Close)
	assert.Equal(t, "创业板", ov.Indices[2].Name)

	// turnover_yi = round1(sum(amount) / 1e5)
	require.NotNil(t, ov.TurnoverYi)
	assert.InDelta(t, 13e6, *ov.TurnoverYi, 1e-6)
}

func TestOverviewMockFlagFollowsFetchError(t *testing.T) {
	// Rows present but all closes missing: placeholder substitution happens,
	// yet mock stays false because the fetch itself succeeded.
	provider := &fakeIndexes{rows: []eastmoney.IndexRow{
		{TsCode: "000001", Name: "上证指数"},
	}}
	svc := testService(provider)

	ov, err := svc.Overview(context.Background(), "")
	require.NoError(t, err)

	assert.False(t, ov.Mock)
	require.Len(t, ov.Indices, 3)
	assert.Equal(t, 3200.0, *ov.Indices[0].Close, "placeholder rows substituted")
}

func TestSentimentScore(t *testing.T) {
	tests := []struct {
		name    string
		indices []eastmoney.IndexRow
		want    int
	}{
		{"no data", nil, 50},
		{"all nil pct", []eastmoney.IndexRow{{}, {}}, 50},
		{"mild up", []eastmoney.IndexRow{{PctChg: f(1.0)}}, 62},
		{"strong up clamps high", []eastmoney.IndexRow{{PctChg: f(9.0)}}, 95},
		{"crash clamps low", []eastmoney.IndexRow{{PctChg: f(-9.0)}}, 5},
		{"mixed", []eastmoney.IndexRow{{PctChg: f(2.0)}, {PctChg: f(-1.0)}}, 56},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sentimentScore(tt.indices))
		})
	}
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 5, clampInt(0, 5, 95))
	assert.Equal(t, 95, clampInt(100, 5, 95))
	assert.Equal(t, 60, clampInt(60.4, 5, 95))
	assert.Equal(t, 61, clampInt(60.5, 5, 95))
}

func TestSectorsDeriveFromBase(t *testing.T) {
	rows := sectors(50)
	require.Len(t, rows, 5)
	assert.Equal(t, "AI应用", rows[0].Name)
	assert.InDelta(t, 0.42, rows[0].GainPct, 1e-9)
	assert.InDelta(t, 0.0, rows[0].MoneyYi, 1e-9)

	// Higher base lifts the cyclical rows
	hot := sectors(80)
	assert.Greater(t, hot[0].GainPct, rows[0].GainPct)
}
