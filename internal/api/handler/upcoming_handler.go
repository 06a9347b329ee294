package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"classbell/internal/service"
	"classbell/pkg/response"
)

// UpcomingHandler 首页倒计时 HTTP 处理器
type UpcomingHandler struct {
	upcomingSvc service.UpcomingService
}

// NewUpcomingHandler 创建 UpcomingHandler
func NewUpcomingHandler(upcomingSvc service.UpcomingService) *UpcomingHandler {
	return &UpcomingHandler{upcomingSvc: upcomingSvc}
}

// GetUpcoming 最近一节课与倒计时
// GET /api/v1/upcoming
func (h *UpcomingHandler) GetUpcoming(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.upcomingSvc.Next(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUpcomingNone) {
			response.NotFound(c, 13001, "暂无即将开始的课程")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
