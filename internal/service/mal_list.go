package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
	"github.com/user/anistats/internal/utils"
	"golang.org/x/sync/singleflight"
)

// MAL 的 load.json 接口一页最多返回 300 条
const malChunkSize = 300

// reservedFields 目录列的字段名，用户列表接口若返回同名字段说明上游格式变了，
// 继续联结会悄悄污染目录数据，必须显式报错
var reservedFields = map[string]bool{
	"title":        true,
	"episodes":     true,
	"air_status":   true,
	"air_start":    true,
	"air_end":      true,
	"air_day":      true,
	"air_time":     true,
	"air_tz":       true,
	"genres":       true,
	"themes":       true,
	"demographics": true,
	"studios":      true,
	"licensors":    true,
	"producers":    true,
	"score_avg":    true,
	"type":         true,
	"source":       true,
	"rating":       true,
}

// MALListService 用户公开列表抓取服务
type MALListService struct {
	client  *utils.HTTPClient
	baseURL string
	sf      singleflight.Group
}

// NewMALListService 创建列表抓取服务
func NewMALListService(client *utils.HTTPClient, cfg *config.Config) *MALListService {
	return &MALListService{
		client:  client,
		baseURL: cfg.MALBaseURL,
	}
}

// malListEntry load.json 返回的单条记录
type malListEntry struct {
	AnimeID         int64   `json:"anime_id"`
	Status          int     `json:"status"`
	Score           float64 `json:"score"`
	IsRewatching    int     `json:"is_rewatching"`
	WatchedEpisodes int     `json:"num_watched_episodes"`
	PriorityString  string  `json:"priority_string"`
	Notes           string  `json:"editable_notes"`
	Tags            string  `json:"tags"`
}

// FetchList 抓取用户的完整番剧列表
// 同一用户的并发抓取会合并成一次请求
func (s *MALListService) FetchList(ctx context.Context, username string) ([]*model.UserListEntry, error) {
	result, err, _ := s.sf.Do("list:"+username, func() (interface{}, error) {
		return s.fetchAll(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*model.UserListEntry), nil
}

func (s *MALListService) fetchAll(ctx context.Context, username string) ([]*model.UserListEntry, error) {
	var entries []*model.UserListEntry

	for offset := 0; ; offset += malChunkSize {
		page, err := s.fetchPage(ctx, username, offset)
		if err != nil {
			return nil, err
		}

		// 第一页校验字段名，防止上游格式变更悄悄混进目录列
		if offset == 0 && len(page) > 0 {
			if err := checkSchemaConflict(page[0]); err != nil {
				return nil, err
			}
		}

		for _, raw := range page {
			var e malListEntry
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, fmt.Errorf("解析列表条目失败: %w", err)
			}
			entries = append(entries, toListEntry(&e))
		}

		if len(page) < malChunkSize {
			break
		}
	}

	log.Printf("[MALList] 用户 %s 抓取完成，共 %d 条", username, len(entries))
	return entries, nil
}

// fetchPage 抓取一页列表；用户不存在时 MAL 返回 400
func (s *MALListService) fetchPage(ctx context.Context, username string, offset int) ([]json.RawMessage, error) {
	u := fmt.Sprintf("%s/animelist/%s/load.json?status=7&offset=%d",
		s.baseURL, url.PathEscape(username), offset)

	resp, err := s.client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("请求列表失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("请求列表失败，状态码: %d", resp.StatusCode)
	}

	var page []json.RawMessage
	if err := utils.DecodeJSON(resp, &page); err != nil {
		return nil, err
	}
	return page, nil
}

// checkSchemaConflict 检查列表字段是否与目录列重名
func checkSchemaConflict(raw json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("解析列表条目失败: %w", err)
	}

	var conflicts []string
	for name := range fields {
		if reservedFields[name] {
			conflicts = append(conflicts, name)
		}
	}
	if len(conflicts) > 0 {
		return &SchemaConflictError{Fields: conflicts}
	}
	return nil
}

// toListEntry 归一化一条原始记录
func toListEntry(e *malListEntry) *model.UserListEntry {
	status, _ := model.UserStatusFromCode(e.Status)
	entry := &model.UserListEntry{
		AnimeID:         e.AnimeID,
		Status:          status,
		WatchedEpisodes: e.WatchedEpisodes,
		Rewatching:      e.IsRewatching != 0,
		Priority:        model.ParsePriority(e.PriorityString),
		Notes:           e.Notes,
		Tags:            e.Tags,
	}
	// 0 分表示未评分
	if e.Score > 0 {
		score := e.Score
		entry.Score = &score
	}
	return entry
}
