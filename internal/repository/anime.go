package repository

import (
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/user/anistats/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnimeRepository struct {
	db *gorm.DB
}

func NewAnimeRepository(db *gorm.DB) *AnimeRepository {
	return &AnimeRepository{db: db}
}

// FindByMALID 根据 MAL ID 查找单条目录条目
func (r *AnimeRepository) FindByMALID(malID int64) (*model.Anime, error) {
	var anime model.Anime
	err := r.db.Where("mal_id = ?", malID).First(&anime).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &anime, nil
}

// FindByMALIDs 批量查找目录条目（目录查询按批进行，不逐条）
func (r *AnimeRepository) FindByMALIDs(malIDs []int64) ([]*model.Anime, error) {
	if len(malIDs) == 0 {
		return nil, nil
	}
	var animes []*model.Anime
	err := r.db.Where("mal_id = ANY(?)", pq.Array(malIDs)).Find(&animes).Error
	if err != nil {
		return nil, err
	}
	return animes, nil
}

// Upsert 写入或更新目录条目（按 mal_id 去重）
func (r *AnimeRepository) Upsert(anime *model.Anime) error {
	anime.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title_default", "title_en", "title_ja", "type", "source", "rating",
			"episodes", "episode_duration", "air_status", "air_start", "air_end",
			"air_day", "air_time", "air_tz",
			"genres", "themes", "demographics", "studios", "licensors", "producers",
			"score_avg", "is_adult", "synopsis", "updated_at",
		}),
	}).Create(anime).Error
}

// UpdateEmbedding 更新简介向量
func (r *AnimeRepository) UpdateEmbedding(malID int64, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	return r.db.Model(&model.Anime{}).Where("mal_id = ?", malID).Update("embedding", &vec).Error
}

// FindSimilar 根据简介向量查找相似番剧（余弦距离升序）
func (r *AnimeRepository) FindSimilar(malID int64, limit int) ([]*model.Anime, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var animes []*model.Anime
	err := r.db.Raw(`
		SELECT * FROM animes
		WHERE mal_id != ? AND embedding IS NOT NULL
		ORDER BY embedding <=> (SELECT embedding FROM animes WHERE mal_id = ?)
		LIMIT ?
	`, malID, malID, limit).Scan(&animes).Error
	if err != nil {
		return nil, err
	}
	return animes, nil
}

// FindStale 查找元数据超过 maxAge 未刷新的条目（维护任务用）
func (r *AnimeRepository) FindStale(maxAge time.Duration, limit int) ([]*model.Anime, error) {
	var animes []*model.Anime
	err := r.db.Where("updated_at < ?", time.Now().Add(-maxAge)).
		Order("updated_at ASC").
		Limit(limit).
		Find(&animes).Error
	if err != nil {
		return nil, err
	}
	return animes, nil
}
