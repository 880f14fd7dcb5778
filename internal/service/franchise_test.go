package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
)

func newFranchiseService() *FranchiseService {
	return NewFranchiseService(&config.Config{
		FranchisePrefixRatio: 0.8,
		FranchiseMinChars:    15,
	})
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func newRecord(id int64, title string, eps int, userScore, siteScore *float64) *model.AnimeRecord {
	return &model.AnimeRecord{
		Anime: model.Anime{
			MALID:    id,
			Episodes: iptr(eps),
			ScoreAvg: siteScore,
		},
		Title:     title,
		UserScore: userScore,
	}
}

func TestGroupManualSeedWins(t *testing.T) {
	svc := newFranchiseService()

	records := []*model.AnimeRecord{
		newRecord(1, "Neon Genesis Evangelion", 26, fptr(9), fptr(8.3)),
		newRecord(2, "Evangelion: 2.0 You Can (Not) Advance", 1, fptr(8), fptr(8.3)),
	}

	franchises := svc.Group(records, []string{"Evangelion"})
	require.Len(t, franchises, 1)

	f := franchises[0]
	// 手动种子的系列名不随成员收缩
	assert.Equal(t, "Evangelion", f.Title)
	assert.Equal(t, []int64{1, 2}, f.MemberIDs)
	assert.Equal(t, 27, f.Episodes)
}

func TestGroupAggregatesDurations(t *testing.T) {
	svc := newFranchiseService()

	a := newRecord(1, "Code Geass: Lelouch of the Rebellion", 25, nil, nil)
	a.EpisodeDuration = 24
	a.WatchedEpisodes = 10
	b := newRecord(2, "Code Geass: Lelouch of the Rebellion R2", 25, nil, nil)
	b.EpisodeDuration = 24
	b.WatchedEpisodes = 25

	franchises := svc.Group([]*model.AnimeRecord{a, b}, []string{"Code Geass"})
	require.Len(t, franchises, 1)

	f := franchises[0]
	// 时长按单集分钟数折算：总长 24*50，已看 24*35
	assert.Equal(t, 1200, f.TotalDuration)
	assert.Equal(t, 840, f.WatchDuration)
}

func TestGroupSeedOrderFirstMatchWins(t *testing.T) {
	svc := newFranchiseService()

	records := []*model.AnimeRecord{
		newRecord(1, "Neon Genesis Evangelion", 26, fptr(9), fptr(8.3)),
	}

	// 两个种子互为包含关系时，排在前面的先认领
	franchises := svc.Group(records, []string{"Evangelion", "Neon Genesis Evangelion"})
	require.Len(t, franchises, 1)
	assert.Equal(t, "Evangelion", franchises[0].Title)
	assert.Equal(t, []int64{1}, franchises[0].MemberIDs)

	reversed := svc.Group(records, []string{"Neon Genesis Evangelion", "Evangelion"})
	require.Len(t, reversed, 1)
	assert.Equal(t, "Neon Genesis Evangelion", reversed[0].Title)
	assert.Equal(t, []int64{1}, reversed[0].MemberIDs)
}

func TestGroupUnmatchedSeedDropped(t *testing.T) {
	svc := newFranchiseService()

	records := []*model.AnimeRecord{
		newRecord(1, "Clannad", 23, fptr(8), nil),
	}

	franchises := svc.Group(records, []string{"Evangelion"})
	require.Len(t, franchises, 1)
	assert.Equal(t, "Clannad", franchises[0].Title)
}

func TestGroupAutoByCommonPrefix(t *testing.T) {
	svc := newFranchiseService()

	records := []*model.AnimeRecord{
		newRecord(1, "Mushoku Tensei: Jobless Reincarnation", 11, fptr(8), nil),
		newRecord(2, "Mushoku Tensei: Jobless Reincarnation Season 2", 12, fptr(8), nil),
		newRecord(3, "Clannad", 23, fptr(7), nil),
	}

	franchises := svc.Group(records, nil)
	require.Len(t, franchises, 2)

	assert.Equal(t, "Mushoku Tensei: Jobless Reincarnation", franchises[0].Title)
	assert.Equal(t, []int64{1, 2}, franchises[0].MemberIDs)
	assert.Equal(t, "Clannad", franchises[1].Title)
}

func TestGroupTitleShrinksToPrefix(t *testing.T) {
	svc := newFranchiseService()

	// 两个标题都超过 15 字的公共前缀，系列名收缩到公共部分
	records := []*model.AnimeRecord{
		newRecord(1, "Kaguya-sama: Love is War Season 2", 12, nil, nil),
		newRecord(2, "Kaguya-sama: Love is War Ultra Romantic", 13, nil, nil),
	}

	franchises := svc.Group(records, nil)
	require.Len(t, franchises, 1)
	assert.Equal(t, "Kaguya-sama: Love is War", franchises[0].Title)
}

func TestGroupShortTitlesStaySeparate(t *testing.T) {
	svc := newFranchiseService()

	// "Black" 只是前缀巧合，比例和长度阈值都不满足
	records := []*model.AnimeRecord{
		newRecord(1, "Black Lagoon", 12, nil, nil),
		newRecord(2, "Black Clover", 170, nil, nil),
	}

	franchises := svc.Group(records, nil)
	assert.Len(t, franchises, 2)
}

func TestGroupDeterministic(t *testing.T) {
	svc := newFranchiseService()

	records := []*model.AnimeRecord{
		newRecord(1, "Monogatari Series: Second Season", 26, fptr(9), nil),
		newRecord(2, "Monogatari Series: Off & Monster Season", 14, fptr(8), nil),
		newRecord(3, "Steins;Gate", 24, fptr(10), nil),
	}

	first := svc.Group(records, nil)
	second := svc.Group(records, nil)
	assert.Equal(t, first, second)
}

func TestWeightedMeanSkipsUnscored(t *testing.T) {
	svc := newFranchiseService()

	// 0 分视为未评分，从分子和分母同时剔除
	records := []*model.AnimeRecord{
		newRecord(1, "Code Geass: Lelouch of the Rebellion", 25, fptr(0), nil),
		newRecord(2, "Code Geass: Lelouch of the Rebellion R2", 25, fptr(7), nil),
	}

	franchises := svc.Group(records, []string{"Code Geass"})
	require.Len(t, franchises, 1)
	require.NotNil(t, franchises[0].UserScore)
	assert.InDelta(t, 7.0, *franchises[0].UserScore, 1e-9)
}

func TestWeightedMeanByEpisodes(t *testing.T) {
	svc := newFranchiseService()

	records := []*model.AnimeRecord{
		newRecord(1, "Fullmetal Alchemist: Brotherhood", 64, fptr(10), fptr(9.1)),
		newRecord(2, "Fullmetal Alchemist: Brotherhood Specials", 4, fptr(6), fptr(7.5)),
	}

	franchises := svc.Group(records, []string{"Fullmetal Alchemist: Brotherhood"})
	require.Len(t, franchises, 1)

	f := franchises[0]
	require.NotNil(t, f.UserScore)
	// (10*64 + 6*4) / 68
	assert.InDelta(t, 9.7647, *f.UserScore, 1e-4)
	require.NotNil(t, f.ScoreAvg)
	assert.InDelta(t, (9.1*64+7.5*4)/68, *f.ScoreAvg, 1e-9)
}

func TestWeightedMeanIgnoresZeroWeight(t *testing.T) {
	svc := newFranchiseService()

	// 集数为 0 的成员权重为 0，不影响均值
	records := []*model.AnimeRecord{
		newRecord(1, "Code Geass: Lelouch of the Rebellion", 10, fptr(8), nil),
		newRecord(2, "Code Geass: Picture Drama", 0, fptr(5), nil),
		newRecord(3, "Code Geass: Lelouch of the Rebellion R2", 5, fptr(6), nil),
	}

	franchises := svc.Group(records, []string{"Code Geass"})
	require.Len(t, franchises, 1)
	require.NotNil(t, franchises[0].UserScore)
	// (10*8 + 5*6) / 15
	assert.InDelta(t, 7.3333, *franchises[0].UserScore, 1e-4)
}

func TestWeightedMeanNilWhenNoWeight(t *testing.T) {
	svc := newFranchiseService()

	rec := newRecord(1, "Clannad", 23, nil, nil)
	rec.Episodes = nil

	franchises := svc.Group([]*model.AnimeRecord{rec}, nil)
	require.Len(t, franchises, 1)
	assert.Nil(t, franchises[0].UserScore)
	assert.Nil(t, franchises[0].ScoreAvg)
	assert.Equal(t, 0, franchises[0].Episodes)
}

func TestAggregateUnionsKeepOrder(t *testing.T) {
	svc := newFranchiseService()

	a := newRecord(1, "Mushoku Tensei: Jobless Reincarnation", 11, nil, nil)
	a.Genres = []string{"Fantasy", "Drama"}
	a.Studios = []string{"Studio Bind"}
	b := newRecord(2, "Mushoku Tensei: Jobless Reincarnation Season 2", 12, nil, nil)
	b.Genres = []string{"Drama", "Ecchi"}
	b.Studios = []string{"Studio Bind"}

	franchises := svc.Group([]*model.AnimeRecord{a, b}, nil)
	require.Len(t, franchises, 1)

	f := franchises[0]
	assert.Equal(t, []string{"Fantasy", "Drama", "Ecchi"}, f.Genres)
	assert.Equal(t, []string{"Studio Bind"}, f.Studios)
}

func TestSanitizeTitleFoldsDiacritics(t *testing.T) {
	assert.Equal(t, "pokemon", sanitizeTitle("Pokémon"))
	assert.Equal(t, "steinsgate", sanitizeTitle("Steins;Gate"))
	assert.Equal(t, "puella magi madokamagica", sanitizeTitle("Puella  Magi Madoka★Magica"))
}
