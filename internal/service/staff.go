package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
)

// StaffProvider 提供单部番剧的制作人员和角色配音数据
type StaffProvider interface {
	GetStaff(ctx context.Context, animeID int64) ([]StaffCredit, error)
	GetCharacters(ctx context.Context, animeID int64) ([]CharacterRole, error)
}

// 评分幂次：把高分作品的权重指数级放大
const scoreExponent = 8

// StaffService 制作人员排行服务
// 汇总高分作品的制作人员与声优，按作品评分的幂加权排序
type StaffService struct {
	provider  StaffProvider
	scoreMin  float64
	blacklist map[string]bool // 排除的职位
	whitelist map[string]bool // 保留的配音语言
}

// NewStaffService 创建制作人员排行服务
func NewStaffService(provider StaffProvider, cfg *config.Config) *StaffService {
	blacklist := make(map[string]bool)
	for _, p := range cfg.StaffPositionBlacklist {
		blacklist[p] = true
	}
	whitelist := make(map[string]bool)
	for _, l := range cfg.StaffLanguageWhitelist {
		whitelist[l] = true
	}
	return &StaffService{
		provider:  provider,
		scoreMin:  cfg.StaffScoreMin,
		blacklist: blacklist,
		whitelist: whitelist,
	}
}

// personBuilder 汇总期间每个人的累积状态
type personBuilder struct {
	person     *model.StaffPerson
	animes     map[int64]*model.StaffAnimeCredit
	characters map[int64]*model.CharacterCredit
	// 参与计分的作品集合，staff 条目优先占用，避免同一作品重复计分
	claimed map[int64]*float64
}

// Rank 按服务默认的最低评分汇总排行
func (s *StaffService) Rank(ctx context.Context, records []*model.AnimeRecord) ([]*model.StaffPerson, error) {
	return s.RankAbove(ctx, records, s.scoreMin)
}

// RankAbove 汇总评分不低于 minScore 的番剧的制作人员并排序
// 任何一部番剧的数据拉取失败都让整次汇总失败，避免给出残缺的排行
func (s *StaffService) RankAbove(ctx context.Context, records []*model.AnimeRecord, minScore float64) ([]*model.StaffPerson, error) {
	builders := make(map[int64]*personBuilder)
	var order []int64

	getBuilder := func(ref PersonRef) *personBuilder {
		b, ok := builders[ref.MALID]
		if !ok {
			b = &personBuilder{
				person: &model.StaffPerson{
					MALID: ref.MALID,
					Name:  ref.Name,
					URL:   ref.URL,
				},
				animes:     make(map[int64]*model.StaffAnimeCredit),
				characters: make(map[int64]*model.CharacterCredit),
				claimed:    make(map[int64]*float64),
			}
			builders[ref.MALID] = b
			order = append(order, ref.MALID)
		}
		return b
	}

	for _, rec := range records {
		// 想看的还没看过，评分再高也不能代表喜好
		if rec.UserStatus == model.StatusPlanToWatch {
			continue
		}
		if rec.UserScore == nil || *rec.UserScore < minScore {
			continue
		}

		credit := model.CreditAnime{
			MALID:    rec.MALID,
			Title:    rec.Title,
			AirStart: rec.AirStart,
		}

		staff, err := s.provider.GetStaff(ctx, rec.MALID)
		if err != nil {
			return nil, fmt.Errorf("获取制作人员失败 (anime %d): %w", rec.MALID, err)
		}
		for _, sc := range staff {
			positions := s.filterPositions(sc.Positions)
			if len(positions) == 0 {
				continue
			}
			b := getBuilder(sc.Person)
			// 同一人在同一作品里出现多次时只算一条参与记录，职位并入集合
			ac, ok := b.animes[rec.MALID]
			if !ok {
				ac = &model.StaffAnimeCredit{Anime: credit}
				b.animes[rec.MALID] = ac
			}
			ac.Positions = mergePositions(ac.Positions, positions)
			b.claimed[rec.MALID] = rec.UserScore
		}

		chars, err := s.provider.GetCharacters(ctx, rec.MALID)
		if err != nil {
			return nil, fmt.Errorf("获取角色配音失败 (anime %d): %w", rec.MALID, err)
		}
		for _, role := range chars {
			for _, va := range role.VoiceActors {
				if !s.whitelist[va.Language] {
					continue
				}
				b := getBuilder(va.Person)
				cc, ok := b.characters[role.CharacterID]
				if !ok {
					cc = &model.CharacterCredit{
						CharacterID: role.CharacterID,
						Name:        role.Name,
					}
					b.characters[role.CharacterID] = cc
				}
				cc.Animes = append(cc.Animes, credit)
				if _, ok := b.claimed[rec.MALID]; !ok {
					b.claimed[rec.MALID] = rec.UserScore
				}
			}
		}
	}

	people := make([]*model.StaffPerson, 0, len(order))
	for _, id := range order {
		people = append(people, finalize(builders[id]))
	}
	sort.SliceStable(people, func(i, j int) bool { return people[i].Score > people[j].Score })
	return people, nil
}

// filterPositions 去掉黑名单职位
func (s *StaffService) filterPositions(positions []string) []string {
	var out []string
	for _, p := range positions {
		if s.blacklist[p] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// mergePositions 并入新职位，去重并保留首次出现顺序
func mergePositions(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p] = true
	}
	for _, p := range extra {
		if !seen[p] {
			seen[p] = true
			existing = append(existing, p)
		}
	}
	return existing
}

// finalize 整理单人的归属作品并计分
func finalize(b *personBuilder) *model.StaffPerson {
	p := b.person

	// 先按 MAL ID 排定总序，再按首播时间稳定排序，保证结果可复现
	for _, ac := range b.animes {
		p.Animes = append(p.Animes, *ac)
	}
	sort.SliceStable(p.Animes, func(i, j int) bool {
		return p.Animes[i].Anime.MALID < p.Animes[j].Anime.MALID
	})
	sort.SliceStable(p.Animes, func(i, j int) bool {
		return airStartBefore(p.Animes[i].Anime.AirStart, p.Animes[j].Anime.AirStart)
	})

	for id := range b.characters {
		cc := b.characters[id]
		sort.SliceStable(cc.Animes, func(i, j int) bool {
			return airStartBefore(cc.Animes[i].AirStart, cc.Animes[j].AirStart)
		})
		p.Characters = append(p.Characters, *cc)
	}
	sort.SliceStable(p.Characters, func(i, j int) bool {
		return p.Characters[i].CharacterID < p.Characters[j].CharacterID
	})
	// 配音角色按初登场时间升序排列
	sort.SliceStable(p.Characters, func(i, j int) bool {
		return airStartBefore(firstAppearance(&p.Characters[i]), firstAppearance(&p.Characters[j]))
	})

	p.Works = len(p.Animes) + len(p.Characters)

	// 每部参与作品恰好计一次分，不论同一人占多少职位或角色
	for _, sc := range b.claimed {
		if sc != nil {
			p.Score += math.Pow(*sc, scoreExponent) / math.Pow(10, scoreExponent)
		}
	}
	return p
}

// firstAppearance 角色初登场作品的首播时间
func firstAppearance(cc *model.CharacterCredit) *time.Time {
	if len(cc.Animes) == 0 {
		return nil
	}
	return cc.Animes[0].AirStart
}

// airStartBefore 按首播时间升序，未知首播时间排最后
func airStartBefore(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.Before(*b)
}
