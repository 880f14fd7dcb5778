package service

import (
	"log"
	"sort"
	"time"

	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
)

// ScheduleService 周播出表服务
// 把列表里在播/待播的番剧按观看者时区换算成本周的播出时间表
type ScheduleService struct {
	defaultTz  string
	windowDays int
	statuses   map[model.UserStatus]bool
}

// NewScheduleService 创建周播出表服务
func NewScheduleService(cfg *config.Config) *ScheduleService {
	statuses := make(map[model.UserStatus]bool)
	for _, s := range cfg.ScheduleStatuses {
		statuses[model.UserStatus(s)] = true
	}
	return &ScheduleService{
		defaultTz:  cfg.DefaultAirTz,
		windowDays: cfg.ScheduleWindowDays,
		statuses:   statuses,
	}
}

// pyWeekday 星期一为 0 的星期序号
func pyWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Slots 计算观看者时区下本周的播出时刻
// viewerTime 必须已带观看者时区；换算过 DST 边界由 time.Location 保证正确
func (s *ScheduleService) Slots(records []*model.AnimeRecord, viewerTime time.Time) []*model.ScheduleSlot {
	viewerLoc := viewerTime.Location()

	// 本周一的日期（观看者时区）
	sy, sm, sd := viewerTime.AddDate(0, 0, -pyWeekday(viewerTime)).Date()

	var slots []*model.ScheduleSlot
	for _, rec := range records {
		if !s.statuses[rec.UserStatus] {
			continue
		}
		if rec.AirStatus != model.AirCurrentlyAiring && rec.AirStatus != model.AirNotYetAired {
			continue
		}
		if rec.AirDay == "" || rec.AirTime == "" {
			log.Printf("[Schedule] 档期信息不完整，跳过: %s", rec.Title)
			continue
		}

		dayIdx, ok := model.WeekdayIndex(rec.AirDay)
		if !ok {
			log.Printf("[Schedule] 无法识别播出日 %q，跳过: %s", rec.AirDay, rec.Title)
			continue
		}
		clock, err := time.Parse("15:04", rec.AirTime)
		if err != nil {
			log.Printf("[Schedule] 无法解析播出时间 %q，跳过: %s", rec.AirTime, rec.Title)
			continue
		}

		tz := rec.AirTz
		if tz == "" {
			tz = s.defaultTz
		}
		sourceLoc, err := time.LoadLocation(tz)
		if err != nil {
			log.Printf("[Schedule] 无法加载时区 %q，跳过: %s", tz, rec.Title)
			continue
		}

		// 在播出地时区构造本周对应星期的播出时刻，再换算到观看者时区
		airAt := time.Date(sy, sm, sd+dayIdx, clock.Hour(), clock.Minute(), 0, 0, sourceLoc)
		local := airAt.In(viewerLoc)

		// 超出窗口的时刻属于下一周期，不进本周表
		if local.Sub(viewerTime) >= time.Duration(s.windowDays)*24*time.Hour {
			continue
		}

		slots = append(slots, &model.ScheduleSlot{
			Title:   rec.Title,
			Weekday: pyWeekday(local),
			AirAt:   local,
		})
	}
	return slots
}

// Build 组装七列的周播出表
// 每列按播出时刻稳定排序，短列用空串补齐成矩形
func (s *ScheduleService) Build(records []*model.AnimeRecord, viewerTime time.Time) *model.ScheduleTable {
	slots := s.Slots(records, viewerTime)

	table := &model.ScheduleTable{Days: model.WeekDays}

	byDay := make([][]*model.ScheduleSlot, 7)
	for _, slot := range slots {
		byDay[slot.Weekday] = append(byDay[slot.Weekday], slot)
	}

	maxLen := 0
	for day := 0; day < 7; day++ {
		col := byDay[day]
		sort.SliceStable(col, func(i, j int) bool { return col[i].AirAt.Before(col[j].AirAt) })
		cells := make([]string, 0, len(col))
		for _, slot := range col {
			cells = append(cells, slot.AirAt.Format("15:04")+" - "+slot.Title)
		}
		table.Columns[day] = cells
		if len(cells) > maxLen {
			maxLen = len(cells)
		}
	}

	for day := 0; day < 7; day++ {
		for len(table.Columns[day]) < maxLen {
			table.Columns[day] = append(table.Columns[day], "")
		}
	}
	return table
}
