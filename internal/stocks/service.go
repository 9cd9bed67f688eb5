package stocks

import (
	"context"
	"strings"

	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/internal/external/sina"
	"github.com/luwei/stocklab/pkg/logger"
	"github.com/luwei/stocklab/pkg/redis"
)

// QuoteProvider supplies realtime snapshots and historical bars
type QuoteProvider interface {
	FetchSpot(ctx context.Context) ([]eastmoney.SpotRow, error)
	FetchKline(ctx context.Context, code, start, end, adjust string) ([]eastmoney.Bar, error)
}

// ProfileProvider supplies static company information
type ProfileProvider interface {
	FetchProfile(ctx context.Context, code string) (*sina.Profile, error)
}

// maxSearchResults caps search output
const maxSearchResults = 50

// SearchItem is one row of a symbol search result
type SearchItem struct {
	TsCode string  `json:"ts_code"`
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	PctChg float64 `json:"pct_chg"`
}

// Profile is the per-symbol static info payload
type Profile struct {
	TsCode   string `json:"ts_code"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Area     string `json:"area"`
	Market   string `json:"market"`
}

// Service handles symbol search, profiles and kline retrieval
// ⭐ SSOT: 个股查询逻辑只在这里
type Service struct {
	quotes   QuoteProvider
	profiles ProfileProvider
	cache    *redis.Cache
	logger   *logger.Logger
}

// NewService creates a new stocks service
func NewService(quotes QuoteProvider, profiles ProfileProvider, cache *redis.Cache, log *logger.Logger) *Service {
	return &Service{
		quotes:   quotes,
		profiles: profiles,
		cache:    cache,
		logger:   log,
	}
}

// spotCached returns the realtime snapshot, cached briefly for search reuse.
// Upstream failure degrades to an empty snapshot.
func (s *Service) spotCached(ctx context.Context) []eastmoney.SpotRow {
	var rows []eastmoney.SpotRow
	err := s.cache.GetOrSet(ctx, redis.SpotKey(), &rows, redis.TTLSpot, func() (interface{}, error) {
		return s.quotes.FetchSpot(ctx)
	})
	if err != nil {
		s.logger.WithError(err).Warn("Spot snapshot unavailable, search degraded")
		return nil
	}
	return rows
}

// WarmSpot refreshes the spot snapshot cache ahead of demand.
func (s *Service) WarmSpot(ctx context.Context) (int, error) {
	rows, err := s.quotes.FetchSpot(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, redis.SpotKey(), rows, redis.TTLSpot); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Search matches q against ts_code, code and name (case-insensitive).
// Empty q returns the first rows of the snapshot.
func (s *Service) Search(ctx context.Context, q string) []SearchItem {
	q = strings.ToLower(strings.TrimSpace(q))
	spot := s.spotCached(ctx)

	items := make([]SearchItem, 0, maxSearchResults)
	for _, row := range spot {
		tsCode := eastmoney.TSCode(row.Code)
		if q != "" {
			if !strings.Contains(strings.ToLower(tsCode), q) &&
				!strings.Contains(strings.ToLower(row.Code), q) &&
				!strings.Contains(strings.ToLower(row.Name), q) {
				continue
			}
		}
		items = append(items, SearchItem{
			TsCode: tsCode,
			Code:   row.Code,
			Name:   row.Name,
			Price:  row.Close,
			PctChg: row.PctChg,
		})
		if len(items) >= maxSearchResults {
			break
		}
	}
	return items
}

// Profile returns static company info for a symbol.
// Scrape trouble degrades to a skeleton profile with just the codes.
func (s *Service) Profile(ctx context.Context, tsCode string) *Profile {
	code := eastmoney.BareCode(tsCode)
	base := &Profile{TsCode: tsCode, Code: code}

	p, err := s.profiles.FetchProfile(ctx, code)
	if err != nil {
		s.logger.WithError(err).WithField("ts_code", tsCode).Warn("Profile fetch failed")
		return base
	}

	base.Name = p.Name
	base.Industry = p.Industry
	base.Area = p.Area
	base.Market = p.Market
	return base
}

// Kline returns daily bars for a symbol, cached per query.
// Upstream failure degrades to an empty series, briefly cached so a flapping
// provider is not hammered.
func (s *Service) Kline(ctx context.Context, tsCode, start, end, adj string) []eastmoney.Bar {
	key := redis.KlineKey(tsCode, start, end, adj)

	var bars []eastmoney.Bar
	if found, _ := s.cache.Get(ctx, key, &bars); found {
		return bars
	}

	adjust := ""
	if adj == "qfq" {
		adjust = "qfq"
	}

	bars, err := s.quotes.FetchKline(ctx, eastmoney.BareCode(tsCode), start, end, adjust)
	if err != nil {
		s.logger.WithError(err).WithField("ts_code", tsCode).Warn("Kline fetch failed")
		bars = []eastmoney.Bar{}
	}

	ttl := redis.TTLKline
	if len(bars) == 0 {
		ttl = redis.TTLEmpty
	}
	if cerr := s.cache.Set(ctx, key, bars, ttl); cerr != nil {
		s.logger.WithError(cerr).Warn("Kline cache write failed")
	}
	return bars
}
