package service

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/user/anistats/internal/model"
)

// LibraryService 工作集构建服务
// 抓取用户列表、补齐目录，再把两边联结成分析用的工作集
type LibraryService struct {
	malList *MALListService
	catalog *CatalogService
}

// NewLibraryService 创建工作集构建服务
func NewLibraryService(malList *MALListService, catalog *CatalogService) *LibraryService {
	return &LibraryService{
		malList: malList,
		catalog: catalog,
	}
}

// FetchEntries 只抓取归一化后的用户列表，不做目录联结（导入快照用）
func (s *LibraryService) FetchEntries(ctx context.Context, username string) ([]*model.UserListEntry, error) {
	return s.malList.FetchList(ctx, username)
}

// BuildRecords 抓取并联结出用户的完整工作集
func (s *LibraryService) BuildRecords(ctx context.Context, username string, langs []string) ([]*model.AnimeRecord, error) {
	entries, err := s.malList.FetchList(ctx, username)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.AnimeID)
	}

	catalog, err := s.catalog.EnsureAnimes(ctx, ids)
	if err != nil {
		return nil, err
	}

	return Join(entries, catalog, langs), nil
}

// Join 联结用户列表和目录条目，保持列表原始顺序
// 目录里找不到的条目直接丢弃，只记一条汇总日志
func Join(entries []*model.UserListEntry, catalog map[int64]*model.Anime, langs []string) []*model.AnimeRecord {
	records := make([]*model.AnimeRecord, 0, len(entries))
	var missing []int64

	for _, e := range entries {
		anime, ok := catalog[e.AnimeID]
		if !ok {
			missing = append(missing, e.AnimeID)
			continue
		}
		records = append(records, &model.AnimeRecord{
			Anime:           *anime,
			Title:           anime.ResolveTitle(langs),
			UserStatus:      e.Status,
			UserScore:       e.Score,
			WatchedEpisodes: e.WatchedEpisodes,
			Rewatching:      e.Rewatching,
			Priority:        e.Priority,
		})
	}

	if len(missing) > 0 {
		examples := missing
		if len(examples) > 10 {
			examples = examples[:10]
		}
		ids := make([]string, 0, len(examples))
		for _, id := range examples {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		log.Printf("[Library] %d 条列表记录缺少目录数据，已丢弃（如: %s）",
			len(missing), strings.Join(ids, ", "))
	}
	return records
}
