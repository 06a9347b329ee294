package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classbell/internal/dto"
	"classbell/internal/service"
	"classbell/pkg/response"
)

// CalendarHandler 日历同步 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// Sync 手动同步未来窗口内的课程到日历
// POST /api/v1/calendar/sync
func (h *CalendarHandler) Sync(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.calendarSvc.Sync(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 14001, "日历同步失败")
		return
	}

	response.OK(c, result)
}

// ListEvents 已镜像的日历事件
// GET /api/v1/calendar/events
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	events, err := h.calendarSvc.ListEvents(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": events})
}

// Feed iCalendar 订阅
// GET /api/v1/calendar/feed.ics?term=true
func (h *CalendarHandler) Feed(c *gin.Context) {
	var req dto.CalendarFeedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	body, err := h.calendarSvc.Feed(c.Request.Context(), userID, req.Term)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 14002, "生成日历订阅失败")
		return
	}

	response.Calendar(c, "classbell.ics", body)
}
