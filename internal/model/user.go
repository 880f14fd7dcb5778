package model

import (
	"time"
)

// User 用户模型
type User struct {
	ID           int    `json:"id" db:"id"`
	Email        string `json:"email" db:"email" gorm:"unique"`
	Username     string `json:"username" db:"username" gorm:"unique"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`

	// 分析偏好：默认 MAL 用户名、查看时区与标题语言
	MALUsername string `json:"mal_username" db:"mal_username"`
	Timezone    string `json:"timezone" db:"timezone"`
	TitleLangs  string `json:"title_langs" db:"title_langs"` // 逗号分隔，如 "en,ja"

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID       int
	Email    string
	Username string
	Role     string
}

// UserListItem 导入后落库的用户列表快照条目
type UserListItem struct {
	ID              int        `json:"id" db:"id"`
	UserID          int        `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_list_anime"`
	AnimeID         int64      `json:"anime_id" db:"anime_id" gorm:"uniqueIndex:idx_user_list_anime"`
	Status          UserStatus `json:"status" db:"status"`
	Score           *float64   `json:"score" db:"score"`
	WatchedEpisodes int        `json:"watched_episodes" db:"watched_episodes"`
	Rewatching      bool       `json:"rewatching" db:"rewatching"`
	Priority        string     `json:"priority" db:"priority"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
