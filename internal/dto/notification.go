package dto

// NotificationListRequest 提醒列表查询参数
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse 已触发的提醒
type NotificationResponse struct {
	ID           string `json:"id"`
	CourseID     string `json:"course_id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Channel      string `json:"channel"`
	Fullscreen   bool   `json:"fullscreen"`
	OccurrenceAt string `json:"occurrence_at"`
	IsRead       bool   `json:"is_read"`
	CreatedAt    string `json:"created_at"`
}
