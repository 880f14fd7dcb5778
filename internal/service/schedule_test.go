package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
)

func newScheduleService() *ScheduleService {
	return NewScheduleService(&config.Config{
		DefaultAirTz:       "Asia/Tokyo",
		ScheduleWindowDays: 7,
		ScheduleStatuses:   []string{"Watching", "Plan to Watch"},
	})
}

func airingRecord(title, day, airTime, tz string, status model.UserStatus) *model.AnimeRecord {
	return &model.AnimeRecord{
		Anime: model.Anime{
			AirStatus: model.AirCurrentlyAiring,
			AirDay:    day,
			AirTime:   airTime,
			AirTz:     tz,
		},
		Title:      title,
		UserStatus: status,
	}
}

// 2024-01-08 是周一，纽约 1 月为 EST (UTC-5)，东京为 UTC+9
func viewerNY(t *testing.T, day, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(2024, 1, day, hour, minute, 0, 0, loc)
}

func TestSlotsConvertToViewerZone(t *testing.T) {
	svc := newScheduleService()

	rec := airingRecord("Frieren", "Friday", "23:00", "", model.StatusWatching)
	slots := svc.Slots([]*model.AnimeRecord{rec}, viewerNY(t, 10, 12, 0))

	require.Len(t, slots, 1)
	// 周五 23:00 JST = 周五 09:00 EST，星期不变
	assert.Equal(t, 4, slots[0].Weekday)
	assert.Equal(t, "09:00", slots[0].AirAt.Format("15:04"))
}

func TestSlotsWeekdayShiftsAcrossZones(t *testing.T) {
	svc := newScheduleService()

	// 周一 00:30 JST 在纽约还是周日
	rec := airingRecord("Late Night Show", "Monday", "00:30", "", model.StatusWatching)
	slots := svc.Slots([]*model.AnimeRecord{rec}, viewerNY(t, 10, 12, 0))

	require.Len(t, slots, 1)
	assert.Equal(t, 6, slots[0].Weekday)
	assert.Equal(t, "10:30", slots[0].AirAt.Format("15:04"))
}

func TestSlotsWindowBoundary(t *testing.T) {
	svc := newScheduleService()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 周日 23:00 UTC 换算到东京已是下周一 08:00
	rec := airingRecord("Simulcast", "Sunday", "23:00", "UTC", model.StatusWatching)

	// 查看时刻周一 08:00:00，距播出时刻正好 7 天，超窗口排除
	early := time.Date(2024, 1, 8, 8, 0, 0, 0, tokyo)
	assert.Empty(t, svc.Slots([]*model.AnimeRecord{rec}, early))

	// 晚 1 秒查看，距播出时刻 7 天差 1 秒，在窗口内
	late := time.Date(2024, 1, 8, 8, 0, 1, 0, tokyo)
	slots := svc.Slots([]*model.AnimeRecord{rec}, late)
	require.Len(t, slots, 1)
	assert.Equal(t, 0, slots[0].Weekday)
}

func TestSlotsSkipIncompleteAndWrongStatus(t *testing.T) {
	svc := newScheduleService()
	viewer := viewerNY(t, 10, 12, 0)

	records := []*model.AnimeRecord{
		airingRecord("No Time", "Friday", "", "", model.StatusWatching),
		airingRecord("No Day", "", "23:00", "", model.StatusWatching),
		airingRecord("Dropped Show", "Friday", "23:00", "", model.StatusDropped),
	}
	finished := airingRecord("Finished Show", "Friday", "23:00", "", model.StatusWatching)
	finished.AirStatus = model.AirFinishedAiring
	records = append(records, finished)

	assert.Empty(t, svc.Slots(records, viewer))
}

func TestBuildTableSortedAndPadded(t *testing.T) {
	svc := newScheduleService()
	viewer := viewerNY(t, 10, 12, 0)

	records := []*model.AnimeRecord{
		airingRecord("Evening Show", "Friday", "23:00", "", model.StatusWatching),
		airingRecord("Earlier Show", "Friday", "21:00", "", model.StatusWatching),
		airingRecord("Sunday Show", "Sunday", "17:00", "", model.StatusPlanToWatch),
	}

	table := svc.Build(records, viewer)
	assert.Equal(t, model.WeekDays, table.Days)

	// 周五两条换算到 EST 后按时刻升序
	assert.Equal(t, []string{"07:00 - Earlier Show", "09:00 - Evening Show"}, table.Columns[4])
	assert.Equal(t, []string{"03:00 - Sunday Show", ""}, table.Columns[6])

	// 所有列补齐到同一长度
	for day := 0; day < 7; day++ {
		assert.Len(t, table.Columns[day], 2)
	}
}

func TestBuildEmptyTable(t *testing.T) {
	svc := newScheduleService()
	table := svc.Build(nil, viewerNY(t, 10, 12, 0))
	assert.Nil(t, table.Rows())
}
