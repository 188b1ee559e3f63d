package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/timetable/internal/dto"
	"schoolhub/timetable/internal/service"
	pkgerrors "schoolhub/timetable/pkg/errors"
	"schoolhub/timetable/pkg/response"
)

// ── 时间段模块错误码 ──
const (
	codeValidation     = 16001
	codeNotFound       = 16002
	codeSlotConflict   = 16003
	codeOptimisticLock = 16004
)

const (
	msgSlotNotFound    = "时间段不存在"
	msgSectionNotFound = "班级分组不存在"
)

// TimeSlotHandler 时间段模块 HTTP 处理器
type TimeSlotHandler struct {
	timeSlotSvc service.TimeSlotService
}

// NewTimeSlotHandler 创建 TimeSlotHandler
func NewTimeSlotHandler(timeSlotSvc service.TimeSlotService) *TimeSlotHandler {
	return &TimeSlotHandler{timeSlotSvc: timeSlotSvc}
}

// ListTimeSlots 获取时间段列表
// GET /api/v1/time-slots?day=&class_id=&section_id=&teacher_id=
func (h *TimeSlotHandler) ListTimeSlots(c *gin.Context) {
	var req dto.TimeSlotListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	slots, err := h.timeSlotSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleTimeSlotError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}

// GetTimeSlot 获取时间段详情
// GET /api/v1/time-slots/:id
func (h *TimeSlotHandler) GetTimeSlot(c *gin.Context) {
	id, ok := pathID(c, msgSlotNotFound)
	if !ok {
		return
	}

	slot, err := h.timeSlotSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleTimeSlotError(c, err)
		return
	}

	response.OK(c, slot)
}

// CreateTimeSlot 创建时间段
// POST /api/v1/time-slots
func (h *TimeSlotHandler) CreateTimeSlot(c *gin.Context) {
	var req dto.CreateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slot, err := h.timeSlotSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTimeSlotError(c, err)
		return
	}

	response.Created(c, slot)
}

// UpdateTimeSlot 更新时间段（部分字段）
// PUT /api/v1/time-slots/:id
func (h *TimeSlotHandler) UpdateTimeSlot(c *gin.Context) {
	id, ok := pathID(c, msgSlotNotFound)
	if !ok {
		return
	}

	var req dto.UpdateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slot, err := h.timeSlotSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTimeSlotError(c, err)
		return
	}

	response.OK(c, slot)
}

// DeleteTimeSlot 删除时间段
// DELETE /api/v1/time-slots/:id
func (h *TimeSlotHandler) DeleteTimeSlot(c *gin.Context) {
	id, ok := pathID(c, msgSlotNotFound)
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.timeSlotSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleTimeSlotError(c, err)
		return
	}

	response.OK(c, nil)
}

// CheckConflict 提交前的时间冲突预检
// POST /api/v1/time-slots/check-conflict
func (h *TimeSlotHandler) CheckConflict(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.timeSlotSvc.CheckConflict(c.Request.Context(), &req)
	if err != nil {
		h.handleTimeSlotError(c, err)
		return
	}

	response.OK(c, result)
}

// ComputeEndTime 由开始时间与时长计算结束时间
// GET /api/v1/time-slots/end-time?start=08:00&duration=45
func (h *TimeSlotHandler) ComputeEndTime(c *gin.Context) {
	var req dto.EndTimeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.timeSlotSvc.ComputeEndTime(&req)
	if err != nil {
		h.handleTimeSlotError(c, err)
		return
	}

	response.OK(c, result)
}

// handleTimeSlotError 统一处理时间段模块业务错误
func (h *TimeSlotHandler) handleTimeSlotError(c *gin.Context, err error) {
	writeServiceError(c, err)
}

// writeServiceError 将 service 层错误映射为 HTTP 响应
func writeServiceError(c *gin.Context, err error) {
	var ve *pkgerrors.ValidationError
	switch {
	case errors.As(err, &ve):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, "参数校验失败", ve.Error())
	case errors.Is(err, service.ErrTimeSlotConflict):
		response.Conflict(c, codeSlotConflict, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeOptimisticLock, pkgerrors.ErrOptimisticLock.Error())
	case errors.Is(err, service.ErrTimeSlotNotFound):
		response.NotFound(c, codeNotFound, msgSlotNotFound)
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, codeNotFound, msgSectionNotFound)
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, codeNotFound, "科目不存在")
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, codeNotFound, "记录不存在")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
