package service

import (
	"log"
	"sort"
	"time"

	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
)

// NextReleaseService 待播清单服务
// 从想看列表里挑出首播日期未过的番剧，按观看者时区排序展示
type NextReleaseService struct {
	defaultTz string
}

// NewNextReleaseService 创建待播清单服务
func NewNextReleaseService(cfg *config.Config) *NextReleaseService {
	return &NextReleaseService{defaultTz: cfg.DefaultAirTz}
}

// List 待播番剧按首播时刻升序
// 只比较日期：首播日等于观看者当天的也算未播出，当天查询仍能看到
func (s *NextReleaseService) List(records []*model.AnimeRecord, viewerTime time.Time) []*model.NextRelease {
	viewerLoc := viewerTime.Location()
	vy, vm, vd := viewerTime.Date()
	today := time.Date(vy, vm, vd, 0, 0, 0, 0, viewerLoc)

	var out []*model.NextRelease
	for _, rec := range records {
		if rec.UserStatus != model.StatusPlanToWatch {
			continue
		}
		if rec.AirStatus != model.AirNotYetAired {
			continue
		}
		if rec.AirStart == nil {
			continue
		}

		tz := rec.AirTz
		if tz == "" {
			tz = s.defaultTz
		}
		sourceLoc, err := time.LoadLocation(tz)
		if err != nil {
			log.Printf("[NextRelease] 无法加载时区 %q，跳过: %s", tz, rec.Title)
			continue
		}

		// 首播日期加上播出时刻（缺省午夜）得到播出地的首播时间
		hh, mm := 0, 0
		if rec.AirTime != "" {
			if clock, err := time.Parse("15:04", rec.AirTime); err == nil {
				hh, mm = clock.Hour(), clock.Minute()
			}
		}
		ay, am, ad := rec.AirStart.Date()
		airAt := time.Date(ay, am, ad, hh, mm, 0, 0, sourceLoc).In(viewerLoc)

		ly, lm, ld := airAt.Date()
		airDate := time.Date(ly, lm, ld, 0, 0, 0, 0, viewerLoc)
		if airDate.Before(today) {
			continue
		}

		out = append(out, &model.NextRelease{
			Title:   rec.Title,
			AirDate: airAt.Format("Monday 02 January 2006 at 15:04"),
			AirAt:   airAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].AirAt.Before(out[j].AirAt) })
	return out
}
