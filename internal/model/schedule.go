package model

import "time"

// ScheduleSlot 一条按周重复的播出档期，已换算到查看者时区
type ScheduleSlot struct {
	Title string `json:"title"`
	// Weekday 查看者本地的星期列下标（周一为 0），可能与片源星期不同
	Weekday int       `json:"weekday"`
	AirAt   time.Time `json:"air_at"` // 查看者时区下的具体时刻
}

// ScheduleTable 周播放表：周一到周日 7 列等长表格
// 单元格为 "HH:MM - 标题"，不足的列用空串补齐
type ScheduleTable struct {
	Days    [7]string   `json:"days"`
	Columns [7][]string `json:"columns"`
}

// Rows 按行遍历（模板渲染用）
func (t *ScheduleTable) Rows() [][7]string {
	if len(t.Columns[0]) == 0 {
		return nil
	}
	rows := make([][7]string, len(t.Columns[0]))
	for col, cells := range t.Columns {
		for row, cell := range cells {
			rows[row][col] = cell
		}
	}
	return rows
}

// NextRelease 即将播出的待看番剧
type NextRelease struct {
	Title   string    `json:"title"`
	AirDate string    `json:"air_date"` // 查看者本地时间的人类可读格式
	AirAt   time.Time `json:"-"`
}
