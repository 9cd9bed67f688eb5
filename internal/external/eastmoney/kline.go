package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FetchKline fetches daily bars for a symbol between start and end (YYYYMMDD).
// adjust: "qfq" for forward-adjusted prices, anything else for raw.
// Returns bars ascending by date; fails soft with an empty slice plus the
// error so callers can choose to degrade or surface.
// ⭐ SSOT: 历史K线抓取只在这个函数
func (c *Client) FetchKline(ctx context.Context, code, start, end, adjust string) ([]Bar, error) {
	fqt := "0"
	if adjust == "qfq" {
		fqt = "1"
	}

	params := url.Values{}
	params.Set("secid", SecID(code))
	params.Set("klt", "101") // daily
	params.Set("fqt", fqt)
	params.Set("beg", start)
	params.Set("end", end)
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57")
	params.Set("ut", ut)

	body, err := c.getJSON(ctx, c.historyURL+"/api/qt/stock/kline/get", params)
	if err != nil {
		return nil, fmt.Errorf("kline fetch failed: %w", err)
	}

	bars, err := parseKlineResponse(body)
	if err != nil {
		return nil, fmt.Errorf("kline parse failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"code":  code,
		"count": len(bars),
	}).Debug("Fetched kline")
	return bars, nil
}

// klineEnvelope is the push2his kline response shell
type klineEnvelope struct {
	Data *struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// parseKlineResponse parses the comma-joined kline strings.
// Each entry: date,open,close,high,low,volume,amount
func parseKlineResponse(body []byte) ([]Bar, error) {
	var env klineEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("empty data envelope")
	}

	bars := make([]Bar, 0, len(env.Data.Klines))
	for _, k := range env.Data.Klines {
		parts := strings.Split(k, ",")
		if len(parts) < 7 {
			continue
		}

		open, err1 := strconv.ParseFloat(parts[1], 64)
		close, err2 := strconv.ParseFloat(parts[2], 64)
		high, err3 := strconv.ParseFloat(parts[3], 64)
		low, err4 := strconv.ParseFloat(parts[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		volume, _ := strconv.ParseFloat(parts[5], 64)
		amount, _ := strconv.ParseFloat(parts[6], 64)

		bars = append(bars, Bar{
			Date:   strings.ReplaceAll(parts[0], "-", ""),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
			Amount: amount,
		})
	}
	return bars, nil
}
