package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
)

func newNextReleaseService() *NextReleaseService {
	return NewNextReleaseService(&config.Config{DefaultAirTz: "Asia/Tokyo"})
}

func plannedRecord(title string, airStart time.Time, airTime string) *model.AnimeRecord {
	return &model.AnimeRecord{
		Anime: model.Anime{
			AirStatus: model.AirNotYetAired,
			AirStart:  &airStart,
			AirTime:   airTime,
		},
		Title:      title,
		UserStatus: model.StatusPlanToWatch,
	}
}

func TestNextReleasesDateLevelComparison(t *testing.T) {
	svc := newNextReleaseService()
	viewer := viewerNY(t, 10, 12, 0)

	// 1 月 11 日 00:30 JST = 1 月 10 日 10:30 EST
	// 本地时刻虽已过去，但日期相同，当天查询仍要展示
	sameDay := plannedRecord("Same Day", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), "00:30")
	// 1 月 10 日午夜 JST = 1 月 9 日 10:00 EST，日期已过
	past := plannedRecord("Already Out", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "")
	future := plannedRecord("Next Week", time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), "23:00")

	out := svc.List([]*model.AnimeRecord{future, sameDay, past}, viewer)
	require.Len(t, out, 2)

	// 按首播时刻升序
	assert.Equal(t, "Same Day", out[0].Title)
	assert.Equal(t, "Wednesday 10 January 2024 at 10:30", out[0].AirDate)
	assert.Equal(t, "Next Week", out[1].Title)
}

func TestNextReleasesFilters(t *testing.T) {
	svc := newNextReleaseService()
	viewer := viewerNY(t, 10, 12, 0)

	watching := plannedRecord("Watching Show", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "")
	watching.UserStatus = model.StatusWatching

	airing := plannedRecord("Airing Show", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "")
	airing.AirStatus = model.AirCurrentlyAiring

	noDate := plannedRecord("No Date", time.Time{}, "")
	noDate.AirStart = nil

	out := svc.List([]*model.AnimeRecord{watching, airing, noDate}, viewer)
	assert.Empty(t, out)
}

func TestNextReleasesMidnightDefault(t *testing.T) {
	svc := newNextReleaseService()
	viewer := viewerNY(t, 10, 12, 0)

	// 没有播出时刻时按片源时区的午夜计
	rec := plannedRecord("Midnight", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), "")

	out := svc.List([]*model.AnimeRecord{rec}, viewer)
	require.Len(t, out, 1)
	// 1 月 20 日 00:00 JST = 1 月 19 日 10:00 EST
	assert.Equal(t, "Friday 19 January 2024 at 10:00", out[0].AirDate)
}
