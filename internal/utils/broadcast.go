package utils

import (
	"regexp"
	"strings"
)

// Broadcast 从 MAL 页面/接口解析出的播出档期
type Broadcast struct {
	Day  string // 星期（单数形式，如 "Saturday"），空表示无固定档期
	Time string // "HH:MM"，可能为空
	Tz   string // IANA 时区名，可能为空
}

// tzAbbrMap MAL 播出信息中常见的时区缩写
var tzAbbrMap = map[string]string{
	"JST": "Asia/Tokyo",
	"KST": "Asia/Seoul",
	"CST": "Asia/Shanghai", // MAL 上的 CST 指中国标准时间
	"UTC": "UTC",
	"GMT": "UTC",
}

// 格式通常为: "Saturdays at 23:00 (JST)"，也可能缺少时间或时区
var reBroadcast = regexp.MustCompile(`^([A-Za-z]+?)s?(?:\s+at\s+(\d{1,2}:\d{2}))?(?:\s+\(([A-Z]+)\))?$`)

// ParseBroadcast 解析播出档期字符串
// "Unknown"、"Not scheduled once per week" 等无档期情况返回零值
func ParseBroadcast(s string) Broadcast {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "Unknown") || strings.Contains(s, "Not scheduled") {
		return Broadcast{}
	}

	m := reBroadcast.FindStringSubmatch(s)
	if m == nil {
		return Broadcast{}
	}

	b := Broadcast{Time: m[2]}
	// 补齐 "7:30" 这样的单位数小时
	if len(b.Time) == 4 {
		b.Time = "0" + b.Time
	}

	// 星期名必须能识别，否则整条作废
	switch strings.ToLower(m[1]) {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		b.Day = strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
	default:
		return Broadcast{}
	}

	if tz, ok := tzAbbrMap[m[3]]; ok {
		b.Tz = tz
	}
	return b
}
