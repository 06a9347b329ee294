package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Title           string `json:"title"            binding:"required,min=1,max=100"`
	Location        string `json:"location"         binding:"omitempty,max=200"`
	Color           string `json:"color"            binding:"omitempty,max=9"`
	DayOfWeek       int    `json:"day_of_week"      binding:"required,min=1,max=7"` // 1=周一 … 7=周日
	StartTime       string `json:"start_time"       binding:"required"`             // "08:00"
	EndTime         string `json:"end_time"         binding:"required"`             // "09:35"
	SemesterStart   string `json:"semester_start"   binding:"required"`             // "2024-02-26"，自动对齐到所在周周一
	TotalWeeks      *int   `json:"total_weeks"      binding:"omitempty,min=1,max=60"`
	WeekType        string `json:"week_type"        binding:"omitempty,oneof=all odd even"`
	IncludedWeeks   []int  `json:"included_weeks"`
	ReminderMinutes *int   `json:"reminder_minutes" binding:"omitempty,min=0,max=1440"`
}

// UpdateCourseRequest 更新课程请求（字段均可选）
type UpdateCourseRequest struct {
	Title           *string `json:"title"            binding:"omitempty,min=1,max=100"`
	Location        *string `json:"location"         binding:"omitempty,max=200"`
	Color           *string `json:"color"            binding:"omitempty,max=9"`
	DayOfWeek       *int    `json:"day_of_week"      binding:"omitempty,min=1,max=7"`
	StartTime       *string `json:"start_time"`
	EndTime         *string `json:"end_time"`
	SemesterStart   *string `json:"semester_start"`
	TotalWeeks      *int    `json:"total_weeks"      binding:"omitempty,min=1,max=60"`
	WeekType        *string `json:"week_type"        binding:"omitempty,oneof=all odd even"`
	IncludedWeeks   *[]int  `json:"included_weeks"`
	ReminderMinutes *int    `json:"reminder_minutes" binding:"omitempty,min=0,max=1440"`
	Version         *int    `json:"version"          binding:"omitempty,min=1"` // 携带时做乐观锁校验
}

// OccurrenceListRequest 窗口枚举参数
type OccurrenceListRequest struct {
	Days int `form:"days" binding:"omitempty,min=1,max=366"`
}

// OccurrenceResponse 一次具体的上课时间
type OccurrenceResponse struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	WeekIndex int    `json:"week_index"`
	FireAt    string `json:"fire_at"`
	DedupKey  string `json:"dedup_key"`
}

// 提醒未登记原因
const (
	ReminderReasonNoUpcoming       = "no_upcoming_occurrence"
	ReminderReasonExactUnavailable = "exact_alarm_unavailable"
)

// ReminderStatus 课程提醒登记状态
type ReminderStatus struct {
	Scheduled       bool   `json:"scheduled"`
	FireAt          string `json:"fire_at,omitempty"`
	OccurrenceStart string `json:"occurrence_start,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Location        string              `json:"location"`
	Color           string              `json:"color"`
	DayOfWeek       int                 `json:"day_of_week"`
	StartTime       string              `json:"start_time"`
	EndTime         string              `json:"end_time"`
	SemesterStart   string              `json:"semester_start"`
	TotalWeeks      int                 `json:"total_weeks"`
	WeekType        string              `json:"week_type"`
	IncludedWeeks   []int               `json:"included_weeks"`
	ReminderMinutes int                 `json:"reminder_minutes"`
	CurrentWeek     int                 `json:"current_week"` // 当前周次，学期外为 0 或负数
	Version         int                 `json:"version"`
	Next            *OccurrenceResponse `json:"next,omitempty"`
	Reminder        *ReminderStatus     `json:"reminder,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

// CourseBrief 课程简要信息
type CourseBrief struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Color    string `json:"color"`
}
