package handler

import (
	"github.com/gin-gonic/gin"

	"classbell/internal/dto"
	"classbell/internal/service"
	"classbell/pkg/response"
)

// SettingHandler 用户偏好 HTTP 处理器
type SettingHandler struct {
	settingSvc service.SettingService
}

// NewSettingHandler 创建 SettingHandler
func NewSettingHandler(settingSvc service.SettingService) *SettingHandler {
	return &SettingHandler{settingSvc: settingSvc}
}

// GetSettings 获取偏好
// GET /api/v1/settings
func (h *SettingHandler) GetSettings(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.settingSvc.Get(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// UpdateSettings 更新偏好（字段均可选）
// PUT /api/v1/settings
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.settingSvc.Update(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
