package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
	"github.com/user/anistats/internal/utils"
	"golang.org/x/sync/errgroup"
)

// StatNames 各统计项的固定展示顺序
var StatNames = []string{
	"favorite_franchises",
	"air_schedule",
	"next_releases",
}

// Stats 一次分析的全部统计结果
type Stats struct {
	FavoriteFranchises []*model.Franchise   `json:"favorite_franchises"`
	AirSchedule        *model.ScheduleTable `json:"air_schedule"`
	NextReleases       []*model.NextRelease `json:"next_releases"`
}

// StatsService 统计编排服务
// 组合各分析服务，对同一工作集并发计算全部统计项
type StatsService struct {
	library   *LibraryService
	franchise *FranchiseService
	schedule  *ScheduleService
	releases  *NextReleaseService

	knownFranchises []string
	titleLangs      []string
	cacheTTL        time.Duration
}

// NewStatsService 创建统计编排服务
func NewStatsService(library *LibraryService, franchise *FranchiseService, schedule *ScheduleService, releases *NextReleaseService, cfg *config.Config) *StatsService {
	return &StatsService{
		library:         library,
		franchise:       franchise,
		schedule:        schedule,
		releases:        releases,
		knownFranchises: cfg.KnownFranchises,
		titleLangs:      cfg.TitleLangs,
		cacheTTL:        10 * time.Minute,
	}
}

// Compute 对工作集并发计算全部统计项
// 各统计项只读工作集，互不依赖，可以安全并发
func (s *StatsService) Compute(ctx context.Context, records []*model.AnimeRecord, viewerTime time.Time) (*Stats, error) {
	stats := &Stats{}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		franchises := s.franchise.Group(records, s.knownFranchises)
		sortFavorites(franchises)
		stats.FavoriteFranchises = franchises
		return nil
	})
	g.Go(func() error {
		stats.AirSchedule = s.schedule.Build(records, viewerTime)
		return nil
	})
	g.Go(func() error {
		stats.NextReleases = s.releases.List(records, viewerTime)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// Analyse 完整的分析流程：抓列表、补目录、联结、算统计
// 结果按用户、时区和标题语言短期缓存，避免重复抓取
// langs 为空时使用全局默认语言偏好
func (s *StatsService) Analyse(ctx context.Context, username string, viewerTime time.Time, langs []string) (*Stats, error) {
	if len(langs) == 0 {
		langs = s.titleLangs
	}
	cacheKey := "stats:" + username + ":" + viewerTime.Location().String() + ":" + strings.Join(langs, ",")
	if cached, ok := utils.CacheGet(cacheKey); ok {
		return cached.(*Stats), nil
	}

	records, err := s.library.BuildRecords(ctx, username, langs)
	if err != nil {
		return nil, err
	}

	stats, err := s.Compute(ctx, records, viewerTime)
	if err != nil {
		return nil, err
	}

	utils.CacheSet(cacheKey, stats, s.cacheTTL)
	return stats, nil
}

// sortFavorites 按用户加权均分降序，未评分的系列排最后
func sortFavorites(franchises []*model.Franchise) {
	sort.SliceStable(franchises, func(i, j int) bool {
		a, b := franchises[i].UserScore, franchises[j].UserScore
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a > *b
	})
}
