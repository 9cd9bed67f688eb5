package sina

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/luwei/stocklab/pkg/config"
	"github.com/luwei/stocklab/pkg/httputil"
	"github.com/luwei/stocklab/pkg/logger"
)

// Client scrapes company profiles from Sina Finance
// ⭐ SSOT: 新浪公司资料抓取只在这个客户端
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Sina Finance client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.Sina.BaseURL,
	}
}

// Profile is the static company information for a symbol
type Profile struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Area     string `json:"area"`
	Market   string `json:"market"`
}

// FetchProfile scrapes the corp-info page for a bare 6-digit code.
// Fails soft: network or parse trouble returns an empty profile plus the
// error; the caller decides whether to degrade.
func (c *Client) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	fullURL := fmt.Sprintf("%s/corp/go.php/vCI_CorpInfo/stockid/%s.phtml", c.baseURL, code)

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// 页面是 GBK 编码
	reader := transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder())
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("profile parse failed: %w", err)
	}

	profile := &Profile{Code: code}

	// 公司资料表: td 标签按 "条目 / 值" 成对出现
	doc.Find("table#comInfo1 td").Each(func(i int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Text())
		value := strings.TrimSpace(s.Next().Text())
		switch {
		case strings.Contains(label, "证券简称更名历史") || value == "":
			// skip
		case strings.Contains(label, "股票简称") && profile.Name == "":
			profile.Name = value
		case strings.Contains(label, "所属行业") && profile.Industry == "":
			profile.Industry = value
		case strings.Contains(label, "注册地址") && profile.Area == "":
			profile.Area = value
		case strings.Contains(label, "上市交易所") && profile.Market == "":
			profile.Market = value
		}
	})

	c.logger.WithFields(map[string]interface{}{
		"code": code,
		"name": profile.Name,
	}).Debug("Fetched company profile")
	return profile, nil
}
