package eastmoney

import (
	"strconv"
	"strings"

	"github.com/luwei/stocklab/pkg/config"
	"github.com/luwei/stocklab/pkg/httputil"
	"github.com/luwei/stocklab/pkg/logger"
)

// Client handles communication with the Eastmoney push2 quote API
// ⭐ SSOT: 东财行情接口调用只在这个客户端
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	quoteURL   string
	historyURL string
}

// ut is the fixed public token Eastmoney web pages send with every quote call
const ut = "bd1d9ddb04089700cf9c27f6f7426281"

// NewClient creates a new Eastmoney client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithRateLimit(cfg.Eastmoney.RateLimit),
		logger:     log,
		quoteURL:   cfg.Eastmoney.QuoteBaseURL,
		historyURL: cfg.Eastmoney.HistoryBaseURL,
	}
}

// Bar is one daily OHLC bar. Field names follow the frontend wire format.
type Bar struct {
	Date   string  `json:"t"` // YYYYMMDD
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
	Amount float64 `json:"a"`
}

// SpotRow is one symbol of the full-market realtime snapshot
type SpotRow struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Close        float64 `json:"close"`
	PctChg       float64 `json:"pct_chg"`
	Volume       float64 `json:"vol"`
	Amount       float64 `json:"amount"`
	TurnoverRate float64 `json:"turnover_rate"`
	PE           float64 `json:"pe"`
	TotalMV      float64 `json:"total_mv"`
}

// IndexRow is one index of the index snapshot.
// Close/PctChg are nil when the upstream row was missing or suspended.
type IndexRow struct {
	Name   string   `json:"name"`
	TsCode string   `json:"ts_code"`
	Close  *float64 `json:"close"`
	PctChg *float64 `json:"pct_chg"`
	Vol    float64  `json:"vol"`
	Amount float64  `json:"amount"`
}

// SecID converts a bare 6-digit code to the Eastmoney secid form.
// 沪市前缀 1, 深市前缀 0.
func SecID(code string) string {
	if strings.HasPrefix(code, "6") {
		return "1." + code
	}
	return "0." + code
}

// TSCode converts a bare 6-digit code to the exchange-suffixed form
// (600000 -> 600000.SH, 000001/300750 -> .SZ)
func TSCode(code string) string {
	if len(code) == 6 && strings.HasPrefix(code, "6") {
		return code + ".SH"
	}
	if len(code) == 6 && (strings.HasPrefix(code, "0") || strings.HasPrefix(code, "3")) {
		return code + ".SZ"
	}
	return code
}

// BareCode strips the exchange suffix from a ts_code
func BareCode(tsCode string) string {
	if i := strings.IndexByte(tsCode, '.'); i >= 0 {
		return tsCode[:i]
	}
	return tsCode
}

// toFloat converts the mixed number/"-" values push2 returns
func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		// 停牌等场景返回 "-"
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
