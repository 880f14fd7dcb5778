package model

import "time"

// CreditAnime 制作/配音记录中指向的番剧
type CreditAnime struct {
	MALID    int64      `json:"mal_id"`
	Title    string     `json:"title"`
	AirStart *time.Time `json:"air_start"`
}

// StaffAnimeCredit 一个人在一部番剧中的制作参与（可担任多个职位）
type StaffAnimeCredit struct {
	Anime     CreditAnime `json:"anime"`
	Positions []string    `json:"positions"`
}

// CharacterCredit 一个声优配的角色及该角色出场的番剧（续作会累积）
// 出场列表按开播日期升序，反映角色跨作品的时间线
type CharacterCredit struct {
	CharacterID int64         `json:"character_id"`
	Name        string        `json:"name"`
	Animes      []CreditAnime `json:"animes"`
}

// StaffPerson 一名制作人员或声优在用户高分番剧中的全部贡献汇总
type StaffPerson struct {
	MALID int64  `json:"mal_id"`
	Name  string `json:"name"`
	URL   string `json:"url"`

	Animes     []StaffAnimeCredit `json:"animes"`     // 按开播日期升序
	Characters []CharacterCredit  `json:"characters"` // 按角色初登场时间升序

	// Works 参与度 = 制作参与作品数 + 配音角色数
	Works int `json:"works"`

	// Score 用户评分加权的榜单分数；计分时同一部番剧只计一次，
	// 与 Works 的口径不同
	Score float64 `json:"score"`
}
