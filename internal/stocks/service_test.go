package stocks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/internal/external/sina"
	"github.com/luwei/stocklab/pkg/config"
	"github.com/luwei/stocklab/pkg/logger"
	"github.com/luwei/stocklab/pkg/redis"
)

type fakeQuotes struct {
	spot    []eastmoney.SpotRow
	spotErr error
	bars    []eastmoney.Bar
	barsErr error

	gotCode   string
	gotAdjust string
}

func (f *fakeQuotes) FetchSpot(ctx context.Context) ([]eastmoney.SpotRow, error) {
	return f.spot, f.spotErr
}

func (f *fakeQuotes) FetchKline(ctx context.Context, code, start, end, adjust string) ([]eastmoney.Bar, error) {
	f.gotCode = code
	f.gotAdjust = adjust
	return f.bars, f.barsErr
}

type fakeProfiles struct {
	profile *sina.Profile
	err     error
}

func (f *fakeProfiles) FetchProfile(ctx context.Context, code string) (*sina.Profile, error) {
	return f.profile, f.err
}

func testService(quotes QuoteProvider, profiles ProfileProvider) *Service {
	cfg := &config.Config{LogLevel: "error"}
	client, _ := redis.New(cfg) // disabled: cache is a passthrough
	return NewService(quotes, profiles, redis.NewCache(client, "test"), logger.New(cfg))
}

func TestSearch(t *testing.T) {
	quotes := &fakeQuotes{spot: []eastmoney.SpotRow{
		{Code: "600519", Name: "贵州茅台", Close: 1700.5, PctChg: 1.2},
		{Code: "000001", Name: "平安银行", Close: 11.2, PctChg: -0.3},
		{Code: "300750", Name: "宁德时代", Close: 180.0, PctChg: 2.1},
	}}
	svc := testService(quotes, &fakeProfiles{})

	// Name substring
	items := svc.Search(context.Background(), "茅台")
	require.Len(t, items, 1)
	assert.Equal(t, "600519.SH", items[0].TsCode)
	assert.Equal(t, 1700.5, items[0].Price)

	// Code substring, case-insensitive against the suffixed form
	items = svc.Search(context.Background(), "300750.sz")
	require.Len(t, items, 1)
	assert.Equal(t, "宁德时代", items[0].Name)

	// Empty query returns the head of the snapshot
	items = svc.Search(context.Background(), "")
	assert.Len(t, items, 3)

	// No match
	assert.Empty(t, svc.Search(context.Background(), "zzz"))
}

func TestSearchCap(t *testing.T) {
	rows := make([]eastmoney.SpotRow, 80)
	for i := range rows {
		rows[i] = eastmoney.SpotRow{Code: fmt.Sprintf("%06d", 600000+i), Name: "同名"}
	}
	svc := testService(&fakeQuotes{spot: rows}, &fakeProfiles{})

	items := svc.Search(context.Background(), "同名")
	assert.Len(t, items, 50)
}

func TestSearchDegradesOnUpstreamError(t *testing.T) {
	svc := testService(&fakeQuotes{spotErr: errors.New("timeout")}, &fakeProfiles{})
	assert.Empty(t, svc.Search(context.Background(), "茅台"))
}

func TestProfileSoftFail(t *testing.T) {
	svc := testService(&fakeQuotes{}, &fakeProfiles{err: errors.New("blocked")})

	p := svc.Profile(context.Background(), "600519.SH")
	require.NotNil(t, p)
	assert.Equal(t, "600519.SH", p.TsCode)
	assert.Equal(t, "600519", p.Code)
	assert.Empty(t, p.Name, "skeleton profile on scrape failure")
}

func TestProfile(t *testing.T) {
	svc := testService(&fakeQuotes{}, &fakeProfiles{profile: &sina.Profile{
		Code:     "600519",
		Name:     "贵州茅台",
		Industry: "白酒",
		Area:     "贵州",
		Market:   "上交所",
	}})

	p := svc.Profile(context.Background(), "600519.SH")
	assert.Equal(t, "贵州茅台", p.Name)
	assert.Equal(t, "白酒", p.Industry)
	assert.Equal(t, "上交所", p.Market)
}

func TestKline(t *testing.T) {
	quotes := &fakeQuotes{bars: []eastmoney.Bar{{Date: "20260828", Close: 10}}}
	svc := testService(quotes, &fakeProfiles{})

	bars := svc.Kline(context.Background(), "600519.SH", "20260101", "20260829", "qfq")
	require.Len(t, bars, 1)
	assert.Equal(t, "600519", quotes.gotCode)
	assert.Equal(t, "qfq", quotes.gotAdjust)

	// Non-qfq adjustments are normalized to raw
	svc.Kline(context.Background(), "600519.SH", "20260101", "20260829", "none")
	assert.Equal(t, "", quotes.gotAdjust)
}

func TestKlineDegradesToEmpty(t *testing.T) {
	svc := testService(&fakeQuotes{barsErr: errors.New("timeout")}, &fakeProfiles{})

	bars := svc.Kline(context.Background(), "600519.SH", "20260101", "20260829", "qfq")
	assert.NotNil(t, bars)
	assert.Empty(t, bars)
}
