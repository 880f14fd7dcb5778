package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
)

// fakeStaffProvider 内存实现，记录被请求过的番剧
type fakeStaffProvider struct {
	staff   map[int64][]StaffCredit
	chars   map[int64][]CharacterRole
	fetched []int64
	err     error
}

func (f *fakeStaffProvider) GetStaff(_ context.Context, animeID int64) ([]StaffCredit, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.fetched = append(f.fetched, animeID)
	return f.staff[animeID], nil
}

func (f *fakeStaffProvider) GetCharacters(_ context.Context, animeID int64) ([]CharacterRole, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chars[animeID], nil
}

func newStaffService(provider StaffProvider) *StaffService {
	return NewStaffService(provider, &config.Config{
		StaffScoreMin:          8,
		StaffPositionBlacklist: []string{"ADR Director", "Producer", "Executive Producer", "Planning"},
		StaffLanguageWhitelist: []string{"Japanese"},
	})
}

func scoredRecord(id int64, title string, score *float64) *model.AnimeRecord {
	return &model.AnimeRecord{
		Anime:     model.Anime{MALID: id},
		Title:     title,
		UserScore: score,
	}
}

func TestRankSkipsLowScored(t *testing.T) {
	provider := &fakeStaffProvider{staff: map[int64][]StaffCredit{}, chars: map[int64][]CharacterRole{}}
	svc := newStaffService(provider)

	planned := scoredRecord(4, "Planned", fptr(10))
	planned.UserStatus = model.StatusPlanToWatch

	records := []*model.AnimeRecord{
		scoredRecord(1, "Low", fptr(7.5)),
		scoredRecord(2, "Unscored", nil),
		scoredRecord(3, "High", fptr(8)),
		planned,
	}

	_, err := svc.Rank(context.Background(), records)
	require.NoError(t, err)
	// 只有已看过且 8 分及以上的作品会触发数据拉取
	assert.Equal(t, []int64{3}, provider.fetched)
}

func TestRankAboveOverridesThreshold(t *testing.T) {
	provider := &fakeStaffProvider{staff: map[int64][]StaffCredit{}, chars: map[int64][]CharacterRole{}}
	svc := newStaffService(provider)

	records := []*model.AnimeRecord{
		scoredRecord(1, "Low", fptr(7)),
		scoredRecord(2, "High", fptr(9)),
	}

	_, err := svc.RankAbove(context.Background(), records, 6)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, provider.fetched)
}

func TestRankScoreIsPowerWeighted(t *testing.T) {
	director := PersonRef{MALID: 100, Name: "Director"}
	provider := &fakeStaffProvider{
		staff: map[int64][]StaffCredit{
			1: {{Person: director, Positions: []string{"Director"}}},
			2: {{Person: director, Positions: []string{"Director"}}},
		},
		chars: map[int64][]CharacterRole{},
	}
	svc := newStaffService(provider)

	records := []*model.AnimeRecord{
		scoredRecord(1, "Masterpiece", fptr(10)),
		scoredRecord(2, "Great", fptr(9)),
	}

	people, err := svc.Rank(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, people, 1)

	p := people[0]
	assert.Equal(t, 2, p.Works)
	// 10^8/10^8 + 9^8/10^8
	assert.InDelta(t, 1.43046721, p.Score, 1e-9)
}

func TestRankAnimeCountedOnce(t *testing.T) {
	// 同一个人既是监督又给角色配音，同一部作品仍只计一次
	person := PersonRef{MALID: 100, Name: "Multi Talent"}
	provider := &fakeStaffProvider{
		staff: map[int64][]StaffCredit{
			1: {{Person: person, Positions: []string{"Director"}}},
		},
		chars: map[int64][]CharacterRole{
			1: {{
				CharacterID: 500,
				Name:        "Hero",
				VoiceActors: []VoiceActor{{Person: person, Language: "Japanese"}},
			}},
		},
	}
	svc := newStaffService(provider)

	people, err := svc.Rank(context.Background(), []*model.AnimeRecord{scoredRecord(1, "Solo Work", fptr(10))})
	require.NoError(t, err)
	require.Len(t, people, 1)

	p := people[0]
	// 参与度按制作 + 角色分别计，但计分只计一次
	assert.Equal(t, 2, p.Works)
	assert.InDelta(t, 1.0, p.Score, 1e-9)
	assert.Len(t, p.Animes, 1)
	require.Len(t, p.Characters, 1)
	assert.Equal(t, "Hero", p.Characters[0].Name)
}

func TestRankMergesRepeatedStaffRows(t *testing.T) {
	// 上游数据里同一个人在一部作品的制作名单中出现两行
	person := PersonRef{MALID: 100, Name: "Director"}
	provider := &fakeStaffProvider{
		staff: map[int64][]StaffCredit{
			1: {
				{Person: person, Positions: []string{"Director"}},
				{Person: person, Positions: []string{"Storyboard", "Director"}},
			},
		},
		chars: map[int64][]CharacterRole{},
	}
	svc := newStaffService(provider)

	people, err := svc.Rank(context.Background(), []*model.AnimeRecord{scoredRecord(1, "Show", fptr(10))})
	require.NoError(t, err)
	require.Len(t, people, 1)

	p := people[0]
	// 同一部作品只留一条参与记录，职位合并去重
	require.Len(t, p.Animes, 1)
	assert.Equal(t, []string{"Director", "Storyboard"}, p.Animes[0].Positions)
	assert.Equal(t, 1, p.Works)
	assert.InDelta(t, 1.0, p.Score, 1e-9)
}

func TestRankCharactersOrderedByDebut(t *testing.T) {
	va := PersonRef{MALID: 100, Name: "VA"}
	provider := &fakeStaffProvider{
		staff: map[int64][]StaffCredit{},
		chars: map[int64][]CharacterRole{
			1: {{
				CharacterID: 1,
				Name:        "Late Debut",
				VoiceActors: []VoiceActor{{Person: va, Language: "Japanese"}},
			}},
			2: {{
				CharacterID: 2,
				Name:        "Early Debut",
				VoiceActors: []VoiceActor{{Person: va, Language: "Japanese"}},
			}},
		},
	}
	svc := newStaffService(provider)

	newer := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	older := time.Date(2015, 10, 1, 0, 0, 0, 0, time.UTC)
	a := scoredRecord(1, "Recent Show", fptr(9))
	a.AirStart = &newer
	b := scoredRecord(2, "Classic Show", fptr(9))
	b.AirStart = &older

	people, err := svc.Rank(context.Background(), []*model.AnimeRecord{a, b})
	require.NoError(t, err)
	require.Len(t, people, 1)

	// 角色 ID 更大但初登场更早的角色排在前面
	require.Len(t, people[0].Characters, 2)
	assert.Equal(t, "Early Debut", people[0].Characters[0].Name)
	assert.Equal(t, "Late Debut", people[0].Characters[1].Name)
}

func TestRankBlacklistAndWhitelist(t *testing.T) {
	producer := PersonRef{MALID: 100, Name: "Producer Only"}
	englishVA := PersonRef{MALID: 200, Name: "English VA"}
	provider := &fakeStaffProvider{
		staff: map[int64][]StaffCredit{
			1: {{Person: producer, Positions: []string{"Producer", "Planning"}}},
		},
		chars: map[int64][]CharacterRole{
			1: {{
				CharacterID: 500,
				Name:        "Hero",
				VoiceActors: []VoiceActor{{Person: englishVA, Language: "English"}},
			}},
		},
	}
	svc := newStaffService(provider)

	people, err := svc.Rank(context.Background(), []*model.AnimeRecord{scoredRecord(1, "Show", fptr(9))})
	require.NoError(t, err)
	// 黑名单职位全部被过滤，非白名单语言的配音也被过滤
	assert.Empty(t, people)
}

func TestRankDescendingByScore(t *testing.T) {
	a := PersonRef{MALID: 1, Name: "A"}
	b := PersonRef{MALID: 2, Name: "B"}
	provider := &fakeStaffProvider{
		staff: map[int64][]StaffCredit{
			1: {{Person: a, Positions: []string{"Director"}}},
			2: {
				{Person: a, Positions: []string{"Director"}},
				{Person: b, Positions: []string{"Series Composition"}},
			},
		},
		chars: map[int64][]CharacterRole{},
	}
	svc := newStaffService(provider)

	records := []*model.AnimeRecord{
		scoredRecord(1, "First", fptr(9)),
		scoredRecord(2, "Second", fptr(9)),
	}

	people, err := svc.Rank(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "A", people[0].Name)
	assert.Equal(t, "B", people[1].Name)
	assert.Greater(t, people[0].Score, people[1].Score)
}

func TestRankFailsOnProviderError(t *testing.T) {
	provider := &fakeStaffProvider{err: errors.New("upstream down")}
	svc := newStaffService(provider)

	_, err := svc.Rank(context.Background(), []*model.AnimeRecord{scoredRecord(1, "Show", fptr(9))})
	// 数据残缺的排行没有意义，整次汇总直接失败
	require.Error(t, err)
}
