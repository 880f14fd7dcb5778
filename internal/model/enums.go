package model

import "strings"

// UserStatus 用户观看状态
type UserStatus string

const (
	StatusWatching    UserStatus = "Watching"
	StatusCompleted   UserStatus = "Completed"
	StatusOnHold      UserStatus = "On-Hold"
	StatusDropped     UserStatus = "Dropped"
	StatusPlanToWatch UserStatus = "Plan to Watch"
)

// statusCodeMap MAL 列表接口中的数字状态码
var statusCodeMap = map[int]UserStatus{
	1: StatusWatching,
	2: StatusCompleted,
	3: StatusOnHold,
	4: StatusDropped,
	6: StatusPlanToWatch,
}

// UserStatusFromCode 根据 MAL 状态码解析观看状态，未知返回 false
func UserStatusFromCode(code int) (UserStatus, bool) {
	s, ok := statusCodeMap[code]
	return s, ok
}

// AirStatus 番剧播出状态
type AirStatus string

const (
	AirCurrentlyAiring AirStatus = "Currently Airing"
	AirNotYetAired     AirStatus = "Not yet aired"
	AirFinishedAiring  AirStatus = "Finished Airing"
)

// UserPriority 用户优先级
type UserPriority string

const (
	PriorityLow    UserPriority = "Low"
	PriorityMedium UserPriority = "Medium"
	PriorityHigh   UserPriority = "High"
)

// ParsePriority 解析优先级字符串，空串或未知返回 nil
func ParsePriority(s string) *UserPriority {
	switch UserPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		p := UserPriority(s)
		return &p
	}
	return nil
}

// WeekDays 一周七天，周一开头（与播放表列顺序一致）
var WeekDays = [7]string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

// WeekdayIndex 解析星期名为列下标（周一为 0）
// 兼容 MAL 的复数形式（"Saturdays"）和大小写差异
func WeekdayIndex(day string) (int, bool) {
	day = strings.TrimSuffix(strings.TrimSpace(day), "s")
	for i, d := range WeekDays {
		if strings.EqualFold(d, day) {
			return i, true
		}
	}
	return 0, false
}
