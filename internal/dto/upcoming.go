package dto

// UpcomingResponse 首页"下一节课"
type UpcomingResponse struct {
	Course          CourseBrief        `json:"course"`
	Occurrence      OccurrenceResponse `json:"occurrence"`
	CountdownTarget string             `json:"countdown_target"` // 提醒时刻未过取提醒时刻，否则取开始时刻
	MinutesLeft     int64              `json:"minutes_left"`
	Countdown       string             `json:"countdown"`
}
