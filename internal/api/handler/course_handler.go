package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classbell/internal/dto"
	"classbell/internal/service"
	pkgerrors "classbell/pkg/errors"
	"classbell/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses 获取课程列表
// GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	courses, err := h.courseSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": courses})
}

// CreateCourse 创建课程并登记提醒
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.Created(c, course)
}

// GetCourse 获取课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// UpdateCourse 更新课程，提醒随之重新登记
// PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// DeleteCourse 删除课程并取消提醒
// DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, nil)
}

// NextOccurrence 单门课程的下一次上课
// GET /api/v1/courses/:id/next
func (h *CourseHandler) NextOccurrence(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	occ, err := h.courseSvc.Next(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, occ)
}

// ListOccurrences 未来 N 天内的上课时间
// GET /api/v1/courses/:id/occurrences?days=7
func (h *CourseHandler) ListOccurrences(c *gin.Context) {
	var req dto.OccurrenceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	occs, err := h.courseSvc.Occurrences(c.Request.Context(), userID, c.Param("id"), req.Days)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, gin.H{"list": occs})
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 12001, "课程不存在")
	case errors.Is(err, service.ErrInvalidCourse):
		response.ErrorWithDetails(c, http.StatusBadRequest, 12002, "课程参数不合法", err.Error())
	case errors.Is(err, service.ErrNoUpcomingCourse):
		response.NotFound(c, 12003, "该课程在未来一年内没有上课安排")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12004, "课程已被修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
