package dto

// ── 日历同步 DTO ──

// CalendarSyncResponse 同步结果
type CalendarSyncResponse struct {
	Inserted    int    `json:"inserted"`
	Removed     int64  `json:"removed"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	SyncedAt    string `json:"synced_at"`
}

// CalendarEventResponse 日历镜像事件
type CalendarEventResponse struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
	DedupKey string `json:"dedup_key"`
}

// CalendarFeedRequest 订阅源参数
type CalendarFeedRequest struct {
	Term bool `form:"term"` // 附带整学期的每周重复事件
}
