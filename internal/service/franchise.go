package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FranchiseService 系列归组服务
// 用迭代的公共前缀匹配把扁平的番剧列表合并成系列，再聚合成员数据
type FranchiseService struct {
	prefixRatio float64 // 公共前缀占最短标题的比例阈值
	minChars    int     // 公共前缀绝对长度阈值
}

// NewFranchiseService 创建系列归组服务
func NewFranchiseService(cfg *config.Config) *FranchiseService {
	return &FranchiseService{
		prefixRatio: cfg.FranchisePrefixRatio,
		minChars:    cfg.FranchiseMinChars,
	}
}

var (
	// 去重音转换：NFD 分解后删除组合记号（unidecode 的近似实现）
	foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	reNonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	reSpaces  = regexp.MustCompile(`\s+`)
)

// sanitizeTitle 归一化标题词：去重音、小写、去标点、合并空白
func sanitizeTitle(s string) string {
	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = reNonWord.ReplaceAllString(s, "")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// commonPrefix 逐词比较两个标题，返回归一化后相同的前缀片段（保留原词形）
func commonPrefix(a, b string) string {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	n := len(wordsA)
	if len(wordsB) < n {
		n = len(wordsB)
	}

	var common []string
	for i := 0; i < n; i++ {
		if sanitizeTitle(wordsA[i]) != sanitizeTitle(wordsB[i]) {
			break
		}
		common = append(common, wordsA[i])
	}
	return strings.Join(common, " ")
}

// franchiseGroup 归组过程中的中间结构
type franchiseGroup struct {
	title   string
	auto    bool // 自动识别的系列；false 表示手动种子
	members []*model.AnimeRecord
}

// match 尝试把标题归入系列，返回（可能收缩后的）系列名
// 手动种子只做子串包含匹配；自动系列用公共前缀算法
func (s *FranchiseService) match(title string, g *franchiseGroup) (string, bool) {
	if !g.auto {
		if strings.Contains(title, g.title) {
			return g.title, true
		}
		return "", false
	}

	common := commonPrefix(title, g.title)
	if common == "" {
		return "", false
	}

	commonLen := utf8.RuneCountInString(common)
	minLen := utf8.RuneCountInString(title)
	if l := utf8.RuneCountInString(g.title); l < minLen {
		minLen = l
	}

	// 公共前缀超过最短标题的一定比例，认定为同一系列
	if minLen > 0 && float64(commonLen)/float64(minLen) > s.prefixRatio {
		return common, true
	}
	// 公共前缀足够长，同样认定为同一系列
	if commonLen > s.minChars {
		return common, true
	}
	return "", false
}

// Group 把番剧列表归组成系列并聚合
// 归组顺序敏感：记录按输入顺序逐条匹配，第一个满足阈值的系列胜出，
// 所以同一输入（同一顺序）必然得到同一结果
func (s *FranchiseService) Group(records []*model.AnimeRecord, knownSeeds []string) []*model.Franchise {
	groups := make([]*franchiseGroup, 0, len(knownSeeds)+len(records)/2)
	for _, seed := range knownSeeds {
		groups = append(groups, &franchiseGroup{title: seed})
	}

	for _, rec := range records {
		matched := false
		for _, g := range groups {
			name, ok := s.match(rec.Title, g)
			if !ok {
				continue
			}
			g.members = append(g.members, rec)
			g.title = name
			matched = true
			break
		}
		if !matched {
			groups = append(groups, &franchiseGroup{
				title:   rec.Title,
				auto:    true,
				members: []*model.AnimeRecord{rec},
			})
		}
	}

	franchises := make([]*model.Franchise, 0, len(groups))
	for _, g := range groups {
		// 零成员的系列（未命中的手动种子）直接丢弃
		if len(g.members) == 0 {
			continue
		}
		franchises = append(franchises, aggregate(g))
	}
	return franchises
}

// aggregate 计算系列的聚合数据
func aggregate(g *franchiseGroup) *model.Franchise {
	f := &model.Franchise{Title: g.title}

	for _, m := range g.members {
		f.MemberIDs = append(f.MemberIDs, m.MALID)
		if m.Episodes != nil {
			f.Episodes += *m.Episodes
			f.TotalDuration += m.EpisodeDuration * *m.Episodes
		}
		f.WatchDuration += m.EpisodeDuration * m.WatchedEpisodes
	}

	f.ScoreAvg = weightedMean(g.members, func(r *model.AnimeRecord) *float64 { return r.ScoreAvg })
	f.UserScore = weightedMean(g.members, func(r *model.AnimeRecord) *float64 { return r.UserScore })

	f.Genres = unionTags(g.members, func(r *model.AnimeRecord) []string { return r.Genres })
	f.Themes = unionTags(g.members, func(r *model.AnimeRecord) []string { return r.Themes })
	f.Demographics = unionTags(g.members, func(r *model.AnimeRecord) []string { return r.Demographics })
	f.Studios = unionTags(g.members, func(r *model.AnimeRecord) []string { return r.Studios })
	f.Licensors = unionTags(g.members, func(r *model.AnimeRecord) []string { return r.Licensors })
	f.Producers = unionTags(g.members, func(r *model.AnimeRecord) []string { return r.Producers })
	f.Sources = unionTags(g.members, func(r *model.AnimeRecord) []string { return single(r.Source) })
	f.Ratings = unionTags(g.members, func(r *model.AnimeRecord) []string { return single(r.Rating) })
	f.Types = unionTags(g.members, func(r *model.AnimeRecord) []string { return single(r.Type) })

	return f
}

// weightedMean 按集数加权的平均分
// 分数为 nil（0 分同样视为未评分）或权重缺失的成员，从分子和分母同时剔除；
// 总权重为 0 时返回 nil
func weightedMean(members []*model.AnimeRecord, value func(*model.AnimeRecord) *float64) *float64 {
	var sum, weight float64
	for _, m := range members {
		v := value(m)
		if v == nil || *v == 0 || m.Episodes == nil {
			continue
		}
		w := float64(*m.Episodes)
		sum += *v * w
		weight += w
	}
	if weight <= 0 {
		return nil
	}
	mean := sum / weight
	return &mean
}

// unionTags 成员标签集合的并集，保留首次出现顺序
func unionTags(members []*model.AnimeRecord, tags func(*model.AnimeRecord) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range members {
		for _, t := range tags(m) {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func single(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
