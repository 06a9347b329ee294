package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"classbell/internal/occurrence"
)

// 周类型
const (
	WeekTypeAll  = "all"
	WeekTypeOdd  = "odd"
	WeekTypeEven = "even"
)

// DateLayout 学期开始日期的序列化格式
const DateLayout = "2006-01-02"

// Course 课程表：对应 courses，每行是一条每周重复的上课规则
type Course struct {
	CourseID        string    `gorm:"type:uuid;primaryKey"        json:"course_id"`
	UserID          string    `gorm:"type:uuid;not null;index"    json:"user_id"`
	Title           string    `gorm:"type:varchar(100);not null"  json:"title"`
	Location        string    `gorm:"type:varchar(200);not null"  json:"location"`
	Color           string    `gorm:"type:varchar(9);not null"    json:"color"`
	DayOfWeek       int       `gorm:"type:smallint;not null"      json:"day_of_week"` // 1=周一 … 7=周日
	StartTime       string    `gorm:"type:time;not null"          json:"start_time"`
	EndTime         string    `gorm:"type:time;not null"          json:"end_time"`
	SemesterStart   time.Time `gorm:"type:date;not null"          json:"semester_start"`
	TotalWeeks      int       `gorm:"not null"                    json:"total_weeks"`
	WeekType        string    `gorm:"type:varchar(10);not null"   json:"week_type"` // all | odd | even
	IncludedWeeks   IntArray  `gorm:"type:int[];not null"         json:"included_weeks"`
	ReminderMinutes int       `gorm:"not null"                    json:"reminder_minutes"`
	VersionedModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// BeforeCreate 生成主键并初始化版本号
func (c *Course) BeforeCreate(*gorm.DB) error {
	newID(&c.CourseID)
	if c.Version == 0 {
		c.Version = 1
	}
	if c.IncludedWeeks == nil {
		c.IncludedWeeks = IntArray{}
	}
	return nil
}

// Rule 转换为周期规则；时间字段格式错误时返回 error
func (c *Course) Rule() (occurrence.Rule, error) {
	start, err := occurrence.ParseTimeOfDay(c.StartTime)
	if err != nil {
		return occurrence.Rule{}, fmt.Errorf("课程 %s 开始时间无效: %w", c.CourseID, err)
	}
	end, err := occurrence.ParseTimeOfDay(c.EndTime)
	if err != nil {
		return occurrence.Rule{}, fmt.Errorf("课程 %s 结束时间无效: %w", c.CourseID, err)
	}
	filter, err := occurrence.ParseWeekFilter(c.WeekType)
	if err != nil {
		return occurrence.Rule{}, err
	}

	return occurrence.Rule{
		DayOfWeek:           time.Weekday(c.DayOfWeek % 7),
		StartTime:           start,
		EndTime:             end,
		SemesterStart:       c.SemesterStart,
		TotalWeeks:          c.TotalWeeks,
		WeekFilter:          filter,
		IncludedWeeks:       []int(c.IncludedWeeks),
		ReminderLeadMinutes: c.ReminderMinutes,
	}, nil
}
