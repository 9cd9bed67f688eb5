package market

import (
	"context"
	"math"

	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/pkg/logger"
	"github.com/luwei/stocklab/pkg/redis"
)

// IndexProvider supplies index quotes
type IndexProvider interface {
	FetchIndexSpot(ctx context.Context, secids []string) ([]eastmoney.IndexRow, error)
}

// indexCodes are the three headline indices shown on the dashboard
// 上证指数 / 深证成指 / 创业板指
var indexCodes = []struct {
	base  string
	name  string
	secid string
}{
	{"000001", "上证", "1.000001"},
	{"399001", "深成", "0.399001"},
	{"399006", "创业板", "0.399006"},
}

// Sentiment is a demo-grade market mood block derived from index moves
type Sentiment struct {
	Score           int      `json:"score"`
	Adv             *int     `json:"adv"`
	Decl            *int     `json:"decl"`
	LimitUp         *int     `json:"limit_up"`
	LimitDown       *int     `json:"limit_down"`
	VolumeChangePct *float64 `json:"volume_change_pct"`
}

// Sector is one hot-sector row (demo placeholder values)
type Sector struct {
	Name    string  `json:"name"`
	GainPct float64 `json:"gain_pct"`
	MoneyYi float64 `json:"money_yi"`
}

// Overview is the market dashboard payload
type Overview struct {
	TradeDate    string               `json:"trade_date"`
	Indices      []eastmoney.IndexRow `json:"indices"`
	TurnoverYi   *float64             `json:"turnover_yi"`
	Sentiment    Sentiment            `json:"sentiment"`
	Sectors      []Sector             `json:"sectors"`
	VolIntensity int                  `json:"vol_intensity"`
	Mock         bool                 `json:"mock"`
}

// Service builds cached market overviews
// ⭐ SSOT: 大盘概览组装只在这里
type Service struct {
	provider IndexProvider
	cache    *redis.Cache
	logger   *logger.Logger
}

// NewService creates a new market overview service
func NewService(provider IndexProvider, cache *redis.Cache, log *logger.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		logger:   log,
	}
}

// Overview returns the dashboard payload for a date (cache key only; index
// quotes are always the latest). Total upstream failure degrades to three
// fixed placeholder rows with mock=true — reads never hard-fail here.
func (s *Service) Overview(ctx context.Context, date string) (*Overview, error) {
	key := redis.OverviewKey(date)

	var cached Overview
	if found, _ := s.cache.Get(ctx, key, &cached); found {
		return &cached, nil
	}

	secids := make([]string, len(indexCodes))
	for i, ic := range indexCodes {
		secids[i] = ic.secid
	}

	fetched, err := s.provider.FetchIndexSpot(ctx, secids)
	if err != nil {
		s.logger.WithError(err).Warn("Index fetch failed, serving mock overview")
	}

	byCode := make(map[string]eastmoney.IndexRow, len(fetched))
	for _, row := range fetched {
		byCode[row.TsCode] = row
	}

	indices := make([]eastmoney.IndexRow, 0, len(indexCodes))
	anyClose := false
	for _, ic := range indexCodes {
		row, ok := byCode[ic.base]
		if !ok {
			indices = append(indices, eastmoney.IndexRow{Name: ic.name, TsCode: ic.base})
			continue
		}
		row.Name = ic.name
		row.TsCode = ic.base
		if row.Close != nil {
			anyClose = true
		}
		indices = append(indices, row)
	}

	// 指数全缺时退回固定 mock 行
	if !anyClose {
		indices = mockIndices()
	}

	payload := s.build(date, indices, err != nil)

	if cerr := s.cache.Set(ctx, key, payload, redis.TTLOverview); cerr != nil {
		s.logger.WithError(cerr).Warn("Overview cache write failed")
	}

	s.logger.WithFields(map[string]interface{}{
		"indices": len(payload.Indices),
		"mock":    payload.Mock,
	}).Debug("Built market overview")
	return payload, nil
}

// build assembles the payload from index rows
func (s *Service) build(date string, indices []eastmoney.IndexRow, mock bool) *Overview {
	var amountSum float64
	for _, i := range indices {
		amountSum += i.Amount
	}

	var turnover *float64
	if amountSum > 0 {
		v := math.Round(amountSum/1e5*10) / 10
		turnover = &v
	}

	score := sentimentScore(indices)

	volIntensity := clampInt(
		math.Abs(pctOf(indices, 0))*10+math.Abs(pctOf(indices, 2))*8, 5, 95)

	return &Overview{
		TradeDate:    date,
		Indices:      indices,
		TurnoverYi:   turnover,
		Sentiment:    Sentiment{Score: score},
		Sectors:      sectors(score),
		VolIntensity: volIntensity,
		Mock:         mock,
	}
}

// mockIndices are the fixed placeholder rows served on upstream failure
func mockIndices() []eastmoney.IndexRow {
	f := func(v float64) *float64 { return &v }
	return []eastmoney.IndexRow{
		{Name: "上证", TsCode: "000001", Close: f(3200.0), PctChg: f(0.5)},
		{Name: "深成", TsCode: "399001", Close: f(10500.0), PctChg: f(0.8)},
		{Name: "创业板", TsCode: "399006", Close: f(2100.0), PctChg: f(1.2)},
	}
}

// sentimentScore approximates market mood from index moves (demo阶段)
func sentimentScore(indices []eastmoney.IndexRow) int {
	var sum float64
	var n int
	for _, i := range indices {
		if i.PctChg != nil {
			sum += *i.PctChg
			n++
		}
	}
	if n == 0 {
		return 50
	}
	avg := sum / float64(n)
	return clampInt(50+avg*12, 5, 95)
}

// sectors derives fixed demo sector rows from the sentiment base
// 先 mock; 后续可接入行业/概念口径
func sectors(base int) []Sector {
	b := float64(base)
	return []Sector{
		{Name: "AI应用", GainPct: round2((b - 45) / 12), MoneyYi: round1((b - 50) / 1.8)},
		{Name: "半导体", GainPct: round2((b - 50) / 13), MoneyYi: round1((b - 52) / 2.0)},
		{Name: "医药", GainPct: round2((55 - b) / 16), MoneyYi: round1((50 - b) / 2.2)},
		{Name: "新能源", GainPct: round2((b - 54) / 15), MoneyYi: round1((b - 58) / 2.0)},
		{Name: "券商", GainPct: round2((b - 48) / 10), MoneyYi: round1((b - 50) / 1.6)},
	}
}

func pctOf(indices []eastmoney.IndexRow, i int) float64 {
	if i >= len(indices) || indices[i].PctChg == nil {
		return 0
	}
	return *indices[i].PctChg
}

func clampInt(x, a, b float64) int {
	v := math.Round(x)
	if v < a {
		v = a
	}
	if v > b {
		v = b
	}
	return int(v)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
