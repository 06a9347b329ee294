package service

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"classbell/internal/model"
	"classbell/internal/occurrence"
)

// ── iCalendar 订阅源 ────────────────────────────────────────
//
//   - 默认输出已镜像的窗口事件，UID 即去重键
//   - 整学期模式下每门课程输出一个每周重复的主事件：
//     RRULE 由 rrule-go 生成，不满足周次规则的周以 EXDATE 排除，
//     判定与提醒调度共用 occurrence.Qualifies
// ─────────────────────────────────────────────────────────────

const icsLocalLayout = "20060102T150405"

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Feed 订阅源内容
type Feed struct {
	ProductID string
	Name      string
	Location  *time.Location
	Stamp     time.Time
	Events    []model.CalendarEvent
	Courses   []model.Course
}

// termSeries 一门课程整学期的每周重复事件
type termSeries struct {
	Start       time.Time
	End         time.Time
	RRule       string
	ExDates     []time.Time
	Occurrences []time.Time // 排除 EXDATE 后的实际上课时间
}

// Render 序列化为 text/calendar
func (f Feed) Render() (string, error) {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(f.ProductID)
	cal.SetXWRCalName(f.Name)
	cal.SetXWRTimezone(loc.String())

	for _, e := range f.Events {
		ev := cal.AddEvent(e.DedupKey)
		ev.SetDtStampTime(f.Stamp)
		ev.SetStartAt(e.StartAt)
		ev.SetEndAt(e.EndAt)
		ev.SetSummary(e.Title)
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		ev.SetProperty(ics.ComponentPropertyCategories, f.Name)
	}

	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{loc.String()}}
	for i := range f.Courses {
		c := &f.Courses[i]
		rule, err := c.Rule()
		if err != nil {
			return "", err
		}
		series, ok, err := buildTermSeries(rule, loc)
		if err != nil {
			return "", fmt.Errorf("课程 %s 生成重复规则失败: %w", c.CourseID, err)
		}
		if !ok {
			continue
		}

		ev := cal.AddEvent(c.CourseID + "-term")
		ev.SetDtStampTime(f.Stamp)
		ev.SetProperty(ics.ComponentPropertyDtStart, series.Start.Format(icsLocalLayout), tzid)
		ev.SetProperty(ics.ComponentPropertyDtEnd, series.End.Format(icsLocalLayout), tzid)
		ev.AddProperty(ics.ComponentPropertyRrule, series.RRule)
		for _, ex := range series.ExDates {
			ev.AddProperty(ics.ComponentPropertyExdate, ex.Format(icsLocalLayout), tzid)
		}
		ev.SetSummary(c.Title)
		if c.Location != "" {
			ev.SetLocation(c.Location)
		}
		ev.SetProperty(ics.ComponentPropertyCategories, f.Name)
	}

	return cal.Serialize(), nil
}

// buildTermSeries 第 1 周到第 TotalWeeks 周的每周序列；没有任何一周满足规则时 ok=false
func buildTermSeries(rule occurrence.Rule, loc *time.Location) (termSeries, bool, error) {
	if rule.TotalWeeks < 1 {
		return termSeries{}, false, nil
	}

	first := rule.DateOfWeek(1)
	start := rule.StartTime.On(first, loc)
	end := rule.EndTime.On(first, loc)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Until:     termEnd(rule, loc),
		Byweekday: []rrule.Weekday{rruleWeekdays[rule.DayOfWeek]},
	})
	if err != nil {
		return termSeries{}, false, err
	}

	var (
		set     rrule.Set
		exdates []time.Time
	)
	set.RRule(r)
	for _, t := range r.All() {
		if !occurrence.Qualifies(rule, occurrence.WeekIndex(rule.SemesterStart, t)) {
			exdates = append(exdates, t)
			set.ExDate(t)
		}
	}

	kept := set.All()
	if len(kept) == 0 {
		return termSeries{}, false, nil
	}

	return termSeries{
		Start:       start,
		End:         end,
		RRule:       r.OrigOptions.RRuleString(),
		ExDates:     exdates,
		Occurrences: kept,
	}, true, nil
}
