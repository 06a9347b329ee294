package occurrence

import (
	"fmt"
	"strings"
	"time"
)

// ── 周次过滤 ──

// WeekFilter 单双周过滤（按 1-based 周次的奇偶性）
type WeekFilter string

const (
	FilterAll  WeekFilter = "all"
	FilterOdd  WeekFilter = "odd"
	FilterEven WeekFilter = "even"
)

// ParseWeekFilter 解析 all | odd | even，空串视为 all
func ParseWeekFilter(s string) (WeekFilter, error) {
	switch WeekFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterOdd:
		return FilterOdd, nil
	case FilterEven:
		return FilterEven, nil
	}
	return "", fmt.Errorf("无效的 week_type: %q", s)
}

// Accepts 判断周次是否通过奇偶过滤
func (f WeekFilter) Accepts(weekIndex int) bool {
	switch f {
	case FilterOdd:
		return weekIndex%2 == 1
	case FilterEven:
		return weekIndex%2 == 0
	default:
		return true
	}
}

// ── 时刻 ──

// TimeOfDay 一天内的本地时刻（不含日期与时区）
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay 解析 "15:04" 或 "15:04:05"（PostgreSQL time 列返回带秒格式）
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("无法解析时刻: %q", s)
}

// MustTimeOfDay 解析失败时 panic，仅用于常量与测试
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) seconds() int { return t.Hour*3600 + t.Minute*60 + t.Second }

// After 判断 t 是否严格晚于 o
func (t TimeOfDay) After(o TimeOfDay) bool { return t.seconds() > o.seconds() }

// On 将时刻落到指定日期（取其年月日）与时区
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

// String 输出 HH:MM，秒不为 0 时输出 HH:MM:SS
func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ── 重复规则 ──

// Rule 课程的每周重复规则（只读输入）
//
// SemesterStart 只取年月日，约定为第 1 周的周一。
// IncludedWeeks 为空表示不额外限制；非空时与奇偶过滤同时生效。
type Rule struct {
	DayOfWeek           time.Weekday
	StartTime           TimeOfDay
	EndTime             TimeOfDay
	SemesterStart       time.Time
	TotalWeeks          int
	WeekFilter          WeekFilter
	IncludedWeeks       []int
	ReminderLeadMinutes int
}

// Includes 判断显式周次集合是否允许该周次
func (r Rule) Includes(weekIndex int) bool {
	if len(r.IncludedWeeks) == 0 {
		return true
	}
	for _, w := range r.IncludedWeeks {
		if w == weekIndex {
			return true
		}
	}
	return false
}

// Occurrence 一次具体上课时间，Start/End 使用调用方传入 from 的时区
type Occurrence struct {
	Start     time.Time
	End       time.Time
	WeekIndex int
}

// DateOfWeek 返回第 weekIndex 周中规则所在星期几的日期（以 SemesterStart 所在周周一为第 1 周起点）
func (r Rule) DateOfWeek(weekIndex int) time.Time {
	monday := MondayOf(time.Date(r.SemesterStart.Year(), r.SemesterStart.Month(), r.SemesterStart.Day(), 0, 0, 0, 0, time.UTC))
	return monday.AddDate(0, 0, (weekIndex-1)*7+isoOffset(r.DayOfWeek))
}
