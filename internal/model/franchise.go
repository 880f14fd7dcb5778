package model

// Franchise 系列聚合：同一系列/世界观下的多部番剧合并成一个条目
// 成员关系用 MAL ID 列表表达，避免 Franchise 和 AnimeRecord 互相持有指针
type Franchise struct {
	Title    string `json:"title"`
	Episodes int    `json:"episodes"` // 成员集数之和，未知按 0 计

	// TotalDuration / WatchDuration 按单集时长折算的总分钟数与已看分钟数
	TotalDuration int `json:"total_duration"`
	WatchDuration int `json:"watch_duration"`

	// ScoreAvg / UserScore 按集数加权的平均分
	// 分数为 nil 或权重为 nil/0 的成员同时从分子和分母中剔除，总权重为 0 时结果为 nil
	ScoreAvg  *float64 `json:"score_avg"`
	UserScore *float64 `json:"user_score"`

	Genres       []string `json:"genres"`
	Themes       []string `json:"themes"`
	Demographics []string `json:"demographics"`
	Studios      []string `json:"studios"`
	Licensors    []string `json:"licensors"`
	Producers    []string `json:"producers"`
	Sources      []string `json:"sources"`
	Ratings      []string `json:"ratings"`
	Types        []string `json:"types"`

	MemberIDs []int64 `json:"member_ids"` // 按归组顺序
}
