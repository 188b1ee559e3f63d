package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ── 时间工具 ──────────────────────────────────────────────
//
// 约定：
//   - 规范时间格式为 24 小时制零填充 "HH:MM"
//   - 时间段为半开区间 [start, end)
//   - 所有函数无副作用，非法输入以 "" / false / error 表示，不 panic
// ─────────────────────────────────────────────────────────────

const (
	layout24     = "15:04"
	minutesInDay = 24 * 60
)

var (
	// ErrInvalidTime 时间字符串无法解析
	ErrInvalidTime = errors.New("无效的时间格式")
	// ErrCrossesMidnight 开始时间加时长超过 24:00
	ErrCrossesMidnight = errors.New("结束时间跨越午夜")
)

var (
	clock24Pattern  = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)
	clockSecPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9]):([0-5][0-9])(\.\d{1,6})?$`)
	casualPattern   = regexp.MustCompile(`(?i)^\s*(\d{1,2})\s*(am|pm)\s*$`)
)

// Period 12 小时制时段标记
type Period string

const (
	AM Period = "AM"
	PM Period = "PM"
)

// IsValid24h 校验 H:MM / HH:MM 格式（小时 0-23，分钟 0-59）
func IsValid24h(s string) bool {
	return clock24Pattern.MatchString(s)
}

// Normalize 将 24 小时制或 "8 am" 形式的时间统一为 "HH:MM"，无法识别时返回空字符串
func Normalize(s string) string {
	if m := clock24Pattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s", h, m[2])
	}

	m := casualPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	h, _ := strconv.Atoi(m[1])
	if h < 1 || h > 12 {
		return ""
	}
	switch strings.ToLower(m[2]) {
	case "am":
		if h == 12 {
			h = 0
		}
	case "pm":
		if h < 12 {
			h += 12
		}
	}
	return fmt.Sprintf("%02d:00", h)
}

// FromStorage 将数据库 time 列的 "HH:MM:SS[.ffffff]" 或 "HH:MM" 转为 "HH:MM"
func FromStorage(s string) string {
	if m := clockSecPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s", h, m[2])
	}
	return Normalize(s)
}

// ToMinutes 将 "HH:MM" 转为距午夜的分钟数
func ToMinutes(hhmm string) (int, bool) {
	m := clock24Pattern.FindStringSubmatch(hhmm)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return h*60 + mins, true
}

// FromMinutes 将分钟数格式化为 "HH:MM"，超出 [0, 1440) 时返回空字符串
func FromMinutes(minutes int) string {
	if minutes < 0 || minutes >= minutesInDay {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// To12Hour 24 小时制转 12 小时制；非法输入回退为 "00", "00", AM
func To12Hour(hhmm string) (hour, minute string, period Period) {
	if !IsValid24h(hhmm) {
		return "00", "00", AM
	}
	t, err := time.Parse(layout24, Normalize(hhmm))
	if err != nil {
		return "00", "00", AM
	}

	period = AM
	if t.Hour() >= 12 {
		period = PM
	}
	// "3" 格式动词即 12 小时制小时（0 → 12）
	return t.Format("3"), t.Format("04"), period
}

// To24Hour 12 小时制转 24 小时制 "HH:MM"
func To24Hour(hour, minute string, period Period) (string, error) {
	h, err := strconv.Atoi(strings.TrimSpace(hour))
	if err != nil || h < 1 || h > 12 {
		return "", fmt.Errorf("%w: 小时 %q", ErrInvalidTime, hour)
	}
	m, err := strconv.Atoi(strings.TrimSpace(minute))
	if err != nil || m < 0 || m > 59 {
		return "", fmt.Errorf("%w: 分钟 %q", ErrInvalidTime, minute)
	}

	switch Period(strings.ToUpper(string(period))) {
	case AM:
		if h == 12 {
			h = 0
		}
	case PM:
		if h < 12 {
			h += 12
		}
	default:
		return "", fmt.Errorf("%w: 时段 %q", ErrInvalidTime, period)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// Compose 由小时、分钟两部分拼出 "HH:MM"，任一部分缺失或越界时返回空字符串
func Compose(hour, minute string) string {
	h, ok := parseBounded(hour, 23)
	if !ok {
		return ""
	}
	m, ok := parseBounded(minute, 59)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// EndTime 由开始时间与时长（分钟）计算结束时间。
// 结束时间恰为 24:00 或更晚视为跨越午夜，返回 ErrCrossesMidnight。
func EndTime(startHour, startMinute string, durationMinutes int) (string, error) {
	start := Compose(startHour, startMinute)
	if start == "" {
		return "", fmt.Errorf("%w: %s:%s", ErrInvalidTime, startHour, startMinute)
	}
	if durationMinutes <= 0 {
		return "", fmt.Errorf("%w: 时长必须为正数", ErrInvalidTime)
	}

	startMin, _ := ToMinutes(start)
	// 以剩余分钟比较，避免 startMin+duration 溢出
	if durationMinutes >= minutesInDay-startMin {
		return "", ErrCrossesMidnight
	}
	return FromMinutes(startMin + durationMinutes), nil
}

func parseBounded(s string, upper int) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 2 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > upper {
		return 0, false
	}
	return n, true
}
