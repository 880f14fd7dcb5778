package service

import (
	"context"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
	"github.com/user/anistats/internal/repository"
	"github.com/user/anistats/internal/utils"
)

// CatalogService 番剧目录服务
// 本地库优先，缺失的条目从 Jikan 拉取并落库，档期缺失时爬页面补齐
type CatalogService struct {
	animeRepo *repository.AnimeRepository
	jikan     *JikanService
	crawler   *BroadcastCrawler

	ollamaHost  string
	ollamaModel string
}

// NewCatalogService 创建目录服务
func NewCatalogService(animeRepo *repository.AnimeRepository, jikan *JikanService, crawler *BroadcastCrawler, cfg *config.Config) *CatalogService {
	return &CatalogService{
		animeRepo:   animeRepo,
		jikan:       jikan,
		crawler:     crawler,
		ollamaHost:  cfg.OllamaHost,
		ollamaModel: cfg.OllamaModel,
	}
}

// EnsureAnimes 保证目录中有指定的番剧，返回按 MAL ID 索引的条目
// 拉取失败的条目记日志后跳过，不阻塞整批
func (s *CatalogService) EnsureAnimes(ctx context.Context, malIDs []int64) (map[int64]*model.Anime, error) {
	existing, err := s.animeRepo.FindByMALIDs(malIDs)
	if err != nil {
		return nil, err
	}

	result := make(map[int64]*model.Anime, len(malIDs))
	for _, a := range existing {
		result[a.MALID] = a
	}

	for _, id := range malIDs {
		if _, ok := result[id]; ok {
			continue
		}
		anime, err := s.fetchAnime(ctx, id)
		if err != nil {
			log.Printf("[Catalog] 拉取番剧 %d 失败，跳过: %v", id, err)
			continue
		}
		if err := s.store(anime); err != nil {
			log.Printf("[Catalog] 番剧 %d 入库失败: %v", id, err)
			continue
		}
		result[id] = anime
	}
	return result, nil
}

// fetchAnime 从 Jikan 拉取元数据，档期缺失的在播/待播条目再爬页面补一次
func (s *CatalogService) fetchAnime(ctx context.Context, malID int64) (*model.Anime, error) {
	anime, err := s.jikan.GetAnime(ctx, malID)
	if err != nil {
		return nil, err
	}

	if anime.AirDay == "" && anime.AirStatus != model.AirFinishedAiring {
		b, err := s.crawler.Fetch(ctx, malID)
		if err != nil {
			log.Printf("[Catalog] 补抓番剧 %d 档期失败: %v", malID, err)
		} else if b.Day != "" {
			anime.AirDay = b.Day
			anime.AirTime = b.Time
			anime.AirTz = b.Tz
		}
	}

	s.maybeEmbed(anime)
	return anime, nil
}

// store 落库；目录更新不覆盖已有向量，向量单独写入
func (s *CatalogService) store(anime *model.Anime) error {
	if err := s.animeRepo.Upsert(anime); err != nil {
		return err
	}
	if anime.Embedding != nil {
		if err := s.animeRepo.UpdateEmbedding(anime.MALID, anime.Embedding.Slice()); err != nil {
			log.Printf("[Catalog] 番剧 %d 向量写入失败: %v", anime.MALID, err)
		}
	}
	return nil
}

// maybeEmbed 生成简介向量（未配置 Ollama 时跳过）
func (s *CatalogService) maybeEmbed(anime *model.Anime) {
	if s.ollamaHost == "" || anime.Synopsis == "" {
		return
	}
	vec, err := utils.GenerateEmbedding(s.ollamaHost, s.ollamaModel, anime.Synopsis)
	if err != nil {
		log.Printf("[Catalog] 番剧 %d 生成向量失败: %v", anime.MALID, err)
		return
	}
	v := pgvector.NewVector(vec)
	anime.Embedding = &v
}

// FindSimilar 相似番剧推荐（基于简介向量的余弦距离）
func (s *CatalogService) FindSimilar(malID int64, limit int) ([]*model.Anime, error) {
	return s.animeRepo.FindSimilar(malID, limit)
}

// RefreshStale 刷新长期未更新的目录条目，维护任务定时调用
func (s *CatalogService) RefreshStale(ctx context.Context, maxAge time.Duration, limit int) {
	stale, err := s.animeRepo.FindStale(maxAge, limit)
	if err != nil {
		log.Printf("[Catalog] 查询过期条目失败: %v", err)
		return
	}

	refreshed := 0
	for _, a := range stale {
		anime, err := s.fetchAnime(ctx, a.MALID)
		if err != nil {
			log.Printf("[Catalog] 刷新番剧 %d 失败: %v", a.MALID, err)
			continue
		}
		if err := s.store(anime); err != nil {
			log.Printf("[Catalog] 番剧 %d 入库失败: %v", a.MALID, err)
			continue
		}
		refreshed++
	}
	if len(stale) > 0 {
		log.Printf("[Catalog] 定时刷新完成: %d/%d", refreshed, len(stale))
	}
}
