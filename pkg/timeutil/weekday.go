package timeutil

import "strings"

// 星期映射统一在此维护：Sunday=0 … Saturday=6（与数据库 day_of_week 一致）
var dayNames = [7]string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

var dayIndex = func() map[string]int {
	m := make(map[string]int, len(dayNames))
	for i, name := range dayNames {
		m[strings.ToLower(name)] = i
	}
	return m
}()

// DayIndex 星期名称 → 0-6，名称大小写不敏感；未识别时 ok=false
func DayIndex(name string) (index int, ok bool) {
	index, ok = dayIndex[strings.ToLower(strings.TrimSpace(name))]
	return index, ok
}

// DayName 0-6 → 规范星期名称；越界时 ok=false
func DayName(index int) (name string, ok bool) {
	if index < 0 || index >= len(dayNames) {
		return "", false
	}
	return dayNames[index], true
}

// CanonicalDay 返回规范大小写的星期名称
func CanonicalDay(name string) (string, bool) {
	idx, ok := DayIndex(name)
	if !ok {
		return "", false
	}
	return dayNames[idx], true
}

// WeekDays 按周一至周日顺序返回星期名称（用于导出表头）
func WeekDays() []string {
	return []string{
		dayNames[1], dayNames[2], dayNames[3], dayNames[4], dayNames[5], dayNames[6], dayNames[0],
	}
}
