package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
)

func newStatsService() *StatsService {
	cfg := &config.Config{
		DefaultAirTz:         "Asia/Tokyo",
		ScheduleWindowDays:   7,
		ScheduleStatuses:     []string{"Watching", "Plan to Watch"},
		FranchisePrefixRatio: 0.8,
		FranchiseMinChars:    15,
		KnownFranchises:      []string{"Evangelion"},
	}
	return NewStatsService(
		nil, // 工作集由测试直接提供，不经过抓取层
		NewFranchiseService(cfg),
		NewScheduleService(cfg),
		NewNextReleaseService(cfg),
		cfg,
	)
}

func TestComputeAssemblesAllStats(t *testing.T) {
	svc := newStatsService()
	viewer := viewerNY(t, 10, 12, 0)

	completed := newRecord(1, "Neon Genesis Evangelion", 26, fptr(9), fptr(8.3))
	completed.UserStatus = model.StatusCompleted

	airing := airingRecord("Frieren", "Friday", "23:00", "", model.StatusWatching)
	airing.MALID = 2

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	planned := plannedRecord("Upcoming", start, "23:00")
	planned.MALID = 3

	stats, err := svc.Compute(context.Background(), []*model.AnimeRecord{completed, airing, planned}, viewer)
	require.NoError(t, err)

	assert.Len(t, stats.FavoriteFranchises, 3)
	require.NotNil(t, stats.AirSchedule)
	assert.Equal(t, []string{"09:00 - Frieren"}, stats.AirSchedule.Columns[4])
	require.Len(t, stats.NextReleases, 1)
	assert.Equal(t, "Upcoming", stats.NextReleases[0].Title)
}

func TestFavoritesSortedWithUnscoredLast(t *testing.T) {
	franchises := []*model.Franchise{
		{Title: "Unscored"},
		{Title: "Good", UserScore: fptr(7)},
		{Title: "Best", UserScore: fptr(9.5)},
		{Title: "Also Unscored"},
	}

	sortFavorites(franchises)

	assert.Equal(t, "Best", franchises[0].Title)
	assert.Equal(t, "Good", franchises[1].Title)
	// 未评分的保持相对顺序排在最后
	assert.Equal(t, "Unscored", franchises[2].Title)
	assert.Equal(t, "Also Unscored", franchises[3].Title)
}

func TestStatNamesOrder(t *testing.T) {
	assert.Equal(t, []string{"favorite_franchises", "air_schedule", "next_releases"}, StatNames)
}
