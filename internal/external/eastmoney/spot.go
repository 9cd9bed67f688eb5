package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// spotFields are the clist fields we request:
// f2 最新价, f3 涨跌幅, f5 成交量, f6 成交额, f8 换手率, f9 市盈率(动),
// f12 代码, f14 名称, f20 总市值
const spotFields = "f2,f3,f5,f6,f8,f9,f12,f14,f20"

// spotMarkets selects all A-share boards (沪主板/深主板/创业板/科创板/北交所)
const spotMarkets = "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23,m:0 t:81 s:2048"

// FetchSpot fetches the full A-share realtime snapshot
// ⭐ SSOT: 全市场快照抓取只在这个函数
func (c *Client) FetchSpot(ctx context.Context) ([]SpotRow, error) {
	params := url.Values{}
	params.Set("pn", "1")
	params.Set("pz", "50000")
	params.Set("po", "1")
	params.Set("np", "1")
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fid", "f3")
	params.Set("fs", spotMarkets)
	params.Set("fields", spotFields)
	params.Set("ut", ut)

	body, err := c.getJSON(ctx, c.quoteURL+"/api/qt/clist/get", params)
	if err != nil {
		return nil, fmt.Errorf("spot fetch failed: %w", err)
	}

	rows, err := parseSpotResponse(body)
	if err != nil {
		return nil, fmt.Errorf("spot parse failed: %w", err)
	}

	c.logger.WithField("count", len(rows)).Debug("Fetched spot snapshot")
	return rows, nil
}

// FetchIndexSpot fetches index quotes for the given secids
// (e.g. "1.000001,0.399001,0.399006")
func (c *Client) FetchIndexSpot(ctx context.Context, secids []string) ([]IndexRow, error) {
	params := url.Values{}
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fields", "f2,f3,f5,f6,f12,f14")
	params.Set("secids", joinSecids(secids))
	params.Set("ut", ut)

	body, err := c.getJSON(ctx, c.quoteURL+"/api/qt/ulist.np/get", params)
	if err != nil {
		return nil, fmt.Errorf("index spot fetch failed: %w", err)
	}

	rows, err := parseIndexResponse(body)
	if err != nil {
		return nil, fmt.Errorf("index spot parse failed: %w", err)
	}

	c.logger.WithField("count", len(rows)).Debug("Fetched index snapshot")
	return rows, nil
}

func joinSecids(secids []string) string {
	out := ""
	for i, s := range secids {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

// getJSON performs the request and returns the raw body
func (c *Client) getJSON(ctx context.Context, base string, params url.Values) ([]byte, error) {
	fullURL := fmt.Sprintf("%s?%s", base, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}
	return body, nil
}

// spotEnvelope is the push2 clist/ulist response shell
type spotEnvelope struct {
	Data *struct {
		Total int                      `json:"total"`
		Diff  []map[string]interface{} `json:"diff"`
	} `json:"data"`
}

// parseSpotResponse parses a clist/get payload into spot rows
func parseSpotResponse(body []byte) ([]SpotRow, error) {
	var env spotEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("empty data envelope")
	}

	rows := make([]SpotRow, 0, len(env.Data.Diff))
	for _, d := range env.Data.Diff {
		code, _ := d["f12"].(string)
		name, _ := d["f14"].(string)
		if code == "" {
			continue
		}

		close, ok := toFloat(d["f2"])
		if !ok {
			// 停牌无最新价, 整行跳过
			continue
		}

		row := SpotRow{Code: code, Name: name, Close: close}
		row.PctChg, _ = toFloat(d["f3"])
		row.Volume, _ = toFloat(d["f5"])
		row.Amount, _ = toFloat(d["f6"])
		row.TurnoverRate, _ = toFloat(d["f8"])
		row.PE, _ = toFloat(d["f9"])
		row.TotalMV, _ = toFloat(d["f20"])
		rows = append(rows, row)
	}
	return rows, nil
}

// parseIndexResponse parses a ulist.np/get payload into index rows
func parseIndexResponse(body []byte) ([]IndexRow, error) {
	var env spotEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("empty data envelope")
	}

	rows := make([]IndexRow, 0, len(env.Data.Diff))
	for _, d := range env.Data.Diff {
		code, _ := d["f12"].(string)
		name, _ := d["f14"].(string)
		if code == "" {
			continue
		}

		row := IndexRow{Name: name, TsCode: code}
		if v, ok := toFloat(d["f2"]); ok {
			row.Close = &v
		}
		if v, ok := toFloat(d["f3"]); ok {
			row.PctChg = &v
		}
		row.Vol, _ = toFloat(d["f5"])
		row.Amount, _ = toFloat(d["f6"])
		rows = append(rows, row)
	}
	return rows, nil
}
