package occurrence

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

// ── 下一次上课时间计算 ──────────────────────────────────────
//
// 职责：给定每周重复规则与参考时刻 from，计算严格晚于 from 的最早一次课。
//
// 设计决策：
//   - 从 from 所在周的周一开始逐周向后查找，最多 LookaheadWeeks 周
//   - 周次 = floor(日历天数差 / 7) + 1，学期开始前为 0 或负数
//   - 周次范围、显式周次集合、奇偶过滤统一走 Qualifies，Next 与 Window 共用
//   - 无结果返回 mo.None，不是错误（学期结束、规则自相矛盾都属于正常分支）
// ─────────────────────────────────────────────────────────────

// LookaheadWeeks 向后查找的周数上限（一年）
const LookaheadWeeks = 52

// Qualifies 判断周次是否满足规则：1 <= weekIndex <= TotalWeeks，显式集合与奇偶过滤均通过
func Qualifies(rule Rule, weekIndex int) bool {
	if weekIndex <= 0 || weekIndex > rule.TotalWeeks {
		return false
	}
	return rule.Includes(weekIndex) && rule.WeekFilter.Accepts(weekIndex)
}

// Next 返回严格晚于 from 的下一次上课时间
func Next(rule Rule, from time.Time) mo.Option[Occurrence] {
	loc := from.Location()
	monday := MondayOf(from)
	dayOffset := isoOffset(rule.DayOfWeek)

	for offset := 0; offset < LookaheadWeeks; offset++ {
		date := monday.AddDate(0, 0, offset*7+dayOffset)

		weekIndex := WeekIndex(rule.SemesterStart, date)
		if !Qualifies(rule, weekIndex) {
			continue
		}

		start := rule.StartTime.On(date, loc)
		if start.After(from) {
			return mo.Some(Occurrence{
				Start:     start,
				End:       rule.EndTime.On(date, loc),
				WeekIndex: weekIndex,
			})
		}
	}
	return mo.None[Occurrence]()
}

// Window 枚举 (from, from+lookahead] 内的全部上课时间，按时间升序
//
// 每次以上一个结果的开始时间作为新的 from 调用 Next，严格晚于保证不重复。
func Window(rule Rule, from time.Time, lookahead time.Duration) []Occurrence {
	if lookahead <= 0 {
		return nil
	}
	cutoff := from.Add(lookahead)

	var result []Occurrence
	cursor := from
	for {
		occ, ok := Next(rule, cursor).Get()
		if !ok || occ.Start.After(cutoff) {
			return result
		}
		result = append(result, occ)
		cursor = occ.Start
	}
}

// FireTime 提醒触发时间 = 开始时间 - 提前分钟数（负数按 0 处理）
func FireTime(occ Occurrence, leadMinutes int) time.Time {
	if leadMinutes < 0 {
		leadMinutes = 0
	}
	return occ.Start.Add(-time.Duration(leadMinutes) * time.Minute)
}

// DedupKey 由规则 ID 与开始时刻生成去重键，跨进程、跨时区稳定
func DedupKey(ruleID string, occ Occurrence) string {
	return fmt.Sprintf("%s@%d", ruleID, occ.Start.Unix())
}

// ── 日期辅助 ──

// MondayOf 返回 t 所在周周一的零点（t 的时区）
func MondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -isoOffset(day.Weekday()))
}

// WeekIndex 计算 date 相对 semesterStart 的周次（1-based），只比较日历日期
func WeekIndex(semesterStart, date time.Time) int {
	days := civilDay(date) - civilDay(semesterStart)
	return floorDiv(days, 7) + 1
}

// isoOffset 周一为 0 … 周日为 6
func isoOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// civilDay 将日期映射为自 1970-01-01 起的天数，忽略时区与夏令时
func civilDay(t time.Time) int {
	u := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(u.Unix() / 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
