package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Anime 番剧目录条目（静态元数据，与用户无关）
type Anime struct {
	ID           int    `json:"id" db:"id"`
	MALID        int64  `json:"mal_id" db:"mal_id" gorm:"uniqueIndex"`
	TitleDefault string `json:"title_default" db:"title_default"`
	TitleEn      string `json:"title_en" db:"title_en"`
	TitleJa      string `json:"title_ja" db:"title_ja"`
	Type         string `json:"type" db:"type"`
	Source       string `json:"source" db:"source"`
	Rating       string `json:"rating" db:"rating"`
	Episodes     *int   `json:"episodes" db:"episodes"`
	// EpisodeDuration 单集平均时长（分钟），0 表示未知
	EpisodeDuration int        `json:"episode_duration" db:"episode_duration"`
	AirStatus       AirStatus  `json:"air_status" db:"air_status" gorm:"index"`
	AirStart        *time.Time `json:"air_start" db:"air_start"`
	AirEnd          *time.Time `json:"air_end" db:"air_end"`
	// AirDay/AirTime/AirTz 每周固定播出档期；AirDay 为空表示无固定档期
	AirDay  string `json:"air_day" db:"air_day"`
	AirTime string `json:"air_time" db:"air_time"` // "HH:MM"
	AirTz   string `json:"air_tz" db:"air_tz"`     // IANA 时区名，空则默认 Asia/Tokyo

	Genres       pq.StringArray `json:"genres" db:"genres" gorm:"type:text[]"`
	Themes       pq.StringArray `json:"themes" db:"themes" gorm:"type:text[]"`
	Demographics pq.StringArray `json:"demographics" db:"demographics" gorm:"type:text[]"`
	Studios      pq.StringArray `json:"studios" db:"studios" gorm:"type:text[]"`
	Licensors    pq.StringArray `json:"licensors" db:"licensors" gorm:"type:text[]"`
	Producers    pq.StringArray `json:"producers" db:"producers" gorm:"type:text[]"`

	// ScoreAvg 全站平均分，0 分视为未评分（入库时转为 nil）
	ScoreAvg *float64 `json:"score_avg" db:"score_avg"`
	IsAdult  bool     `json:"is_adult" db:"is_adult"`
	Synopsis string   `json:"synopsis" db:"synopsis"`

	// Embedding 简介向量（用于相似番剧推荐），可为空
	Embedding *pgvector.Vector `json:"-" db:"embedding" gorm:"type:vector(768)"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"index"`
}

// ResolveTitle 按语言偏好依次回退选出展示标题
func (a *Anime) ResolveTitle(langs []string) string {
	for _, lang := range langs {
		// 允许 "en-US" 这样的形式，只取主语言
		lang, _, _ = strings.Cut(lang, "-")
		switch lang {
		case "en":
			if a.TitleEn != "" {
				return a.TitleEn
			}
		case "ja":
			if a.TitleJa != "" {
				return a.TitleJa
			}
		}
	}
	return a.TitleDefault
}

// UserListEntry 用户列表中的一条原始记录（已归一化）
type UserListEntry struct {
	AnimeID         int64         `json:"anime_id"`
	Status          UserStatus    `json:"status"`
	Score           *float64      `json:"score"` // 0 分已转为 nil
	WatchedEpisodes int           `json:"watched_episodes"`
	Rewatching      bool          `json:"rewatching"`
	Priority        *UserPriority `json:"priority"`
	Notes           string        `json:"notes"`
	Tags            string        `json:"tags"`
}

// AnimeRecord 目录条目与用户列表条目成功联结后的工作集记录
// 工作集中每条记录都保证联结成功，目录缺失的条目在联结时丢弃并记日志
type AnimeRecord struct {
	Anime

	// Title 按用户语言偏好解析出的展示标题
	Title string `json:"title"`

	UserStatus      UserStatus    `json:"user_status"`
	UserScore       *float64      `json:"user_score"` // 0 分视为未评分
	WatchedEpisodes int           `json:"watched_episodes"`
	Rewatching      bool          `json:"rewatching"`
	Priority        *UserPriority `json:"priority"`
}
