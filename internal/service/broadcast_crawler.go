package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/utils"
)

// BroadcastCrawler 从 MAL 番剧页面抓取播出档期
// Jikan 偶尔缺失 broadcast 字段，老条目尤其常见，这时直接爬页面补齐
type BroadcastCrawler struct {
	client  *utils.HTTPClient
	baseURL string
}

// NewBroadcastCrawler 创建档期爬虫
func NewBroadcastCrawler(client *utils.HTTPClient, cfg *config.Config) *BroadcastCrawler {
	return &BroadcastCrawler{
		client:  client,
		baseURL: cfg.MALBaseURL,
	}
}

// Fetch 抓取一部番剧的播出档期，页面上没有时返回零值
func (c *BroadcastCrawler) Fetch(ctx context.Context, animeID int64) (utils.Broadcast, error) {
	u := fmt.Sprintf("%s/anime/%d", c.baseURL, animeID)

	resp, err := c.client.Get(ctx, u)
	if err != nil {
		return utils.Broadcast{}, fmt.Errorf("请求番剧页面失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return utils.Broadcast{}, fmt.Errorf("请求番剧页面失败，状态码: %d", resp.StatusCode)
	}

	reader, err := utils.ResponseReader(resp)
	if err != nil {
		return utils.Broadcast{}, err
	}
	defer reader.Close()

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return utils.Broadcast{}, fmt.Errorf("解析番剧页面失败: %w", err)
	}

	var broadcast utils.Broadcast
	doc.Find("div.spaceit_pad").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		label := sel.Find("span.dark_text").Text()
		if !strings.HasPrefix(label, "Broadcast") {
			return true
		}
		// 去掉标签后剩下的就是档期描述
		text := strings.TrimSpace(strings.TrimPrefix(sel.Text(), label))
		broadcast = utils.ParseBroadcast(text)
		return false
	})
	return broadcast, nil
}
