package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolhub/timetable/internal/dto"
	"schoolhub/timetable/internal/model"
	"schoolhub/timetable/internal/repository"
	pkgerrors "schoolhub/timetable/pkg/errors"
	"schoolhub/timetable/pkg/metrics"
	"schoolhub/timetable/pkg/timeutil"
)

// ── 时间段模块业务错误 ──

var (
	ErrTimeSlotNotFound = fmt.Errorf("时间段%w", pkgerrors.ErrNotFound)
	ErrSectionNotFound  = fmt.Errorf("班级分组%w", pkgerrors.ErrNotFound)
	ErrSubjectNotFound  = fmt.Errorf("科目%w", pkgerrors.ErrNotFound)
	ErrTimeSlotConflict = errors.New("与同一班级分组当天已有时间段重叠")
)

// TimeSlotService 时间段业务接口
type TimeSlotService interface {
	Create(ctx context.Context, req *dto.CreateTimeSlotRequest, callerID string) (*dto.TimeSlotResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TimeSlotResponse, error)
	List(ctx context.Context, req *dto.TimeSlotListRequest) ([]dto.TimeSlotResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTimeSlotRequest, callerID string) (*dto.TimeSlotResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	CheckConflict(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
	ComputeEndTime(req *dto.EndTimeRequest) (*dto.EndTimeResponse, error)
}

type timeSlotService struct {
	repo           *repository.Repository
	academicYearID string
	logger         *zap.Logger
}

// NewTimeSlotService 创建 TimeSlotService 实例
func NewTimeSlotService(repo *repository.Repository, academicYearID string, logger *zap.Logger) TimeSlotService {
	return &timeSlotService{repo: repo, academicYearID: academicYearID, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *timeSlotService) Create(ctx context.Context, req *dto.CreateTimeSlotRequest, callerID string) (*dto.TimeSlotResponse, error) {
	// 1. 纯校验，不触达存储
	if !model.IsValidSlotType(req.SlotType) {
		return nil, pkgerrors.NewValidationError("slot_type", "必须为 subject、break 或 event")
	}
	start, end, err := normalizeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	day, ok := timeutil.DayIndex(req.DayOfWeek)
	if !ok {
		return nil, pkgerrors.NewValidationError("day_of_week", "无法识别的星期")
	}

	slot := &model.TimeSlot{
		SectionID:      req.SectionID,
		DayOfWeek:      day,
		StartTime:      start,
		EndTime:        end,
		SlotType:       req.SlotType,
		TeacherID:      req.TeacherID,
		Title:          strings.TrimSpace(req.Title),
		AcademicYearID: s.academicYearID,
	}
	if req.SlotType == model.SlotTypeSubject {
		slot.SubjectID = req.SubjectID
	}
	if err := validateSlotContent(slot); err != nil {
		return nil, err
	}

	// 2. 关联实体
	if err := s.ensureSection(ctx, slot.SectionID); err != nil {
		return nil, err
	}
	if err := s.resolveSubject(ctx, slot); err != nil {
		return nil, err
	}

	// 3. 冲突检测
	if err := s.checkOverlap(ctx, slot, "", "create"); err != nil {
		return nil, err
	}

	slot.CreatedBy = auditUser(callerID)
	slot.UpdatedBy = auditUser(callerID)

	if err := s.repo.TimeSlot.Create(ctx, slot); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			metrics.SlotConflicts.WithLabelValues("create").Inc()
			return nil, ErrTimeSlotConflict
		}
		s.logger.Error("创建时间段失败", zap.Error(err))
		return nil, pkgerrors.Persistence("time_slot.create", err)
	}

	// 重新加载以获取关联
	return s.reload(ctx, slot.TimeSlotID)
}

// ────────────────────── GetByID ──────────────────────

func (s *timeSlotService) GetByID(ctx context.Context, id string) (*dto.TimeSlotResponse, error) {
	slot, err := s.getSlot(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := toTimeSlotResponse(slot)
	if err != nil {
		return nil, pkgerrors.Persistence("time_slot.decode", err)
	}
	return resp, nil
}

// ────────────────────── List ──────────────────────

func (s *timeSlotService) List(ctx context.Context, req *dto.TimeSlotListRequest) ([]dto.TimeSlotResponse, error) {
	var filter repository.TimeSlotFilter

	if req.Day != "" {
		day, ok := timeutil.DayIndex(req.Day)
		if !ok {
			return nil, pkgerrors.NewValidationError("day", "无法识别的星期")
		}
		filter.DayOfWeek = &day
	}
	filter.TeacherID = req.TeacherID

	if req.SectionID != "" {
		filter.SectionIDs = []string{req.SectionID}
	}
	if req.ClassID != "" {
		ids, err := s.repo.Section.ListIDsByClass(ctx, req.ClassID)
		if err != nil {
			s.logger.Error("查询班级分组失败", zap.String("class_id", req.ClassID), zap.Error(err))
			return nil, pkgerrors.Persistence("section.list_by_class", err)
		}
		filter.SectionIDs = intersectSections(filter.SectionIDs, ids)
		if len(filter.SectionIDs) == 0 {
			return []dto.TimeSlotResponse{}, nil
		}
	}

	slots, err := s.repo.TimeSlot.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出时间段失败", zap.Error(err))
		return nil, pkgerrors.Persistence("time_slot.list", err)
	}

	result := make([]dto.TimeSlotResponse, 0, len(slots))
	for i := range slots {
		resp, err := toTimeSlotResponse(&slots[i])
		if err != nil {
			s.logger.Warn("跳过异常时间段记录",
				zap.String("id", slots[i].TimeSlotID),
				zap.Int("day_of_week", slots[i].DayOfWeek),
				zap.Error(err),
			)
			metrics.SkippedRows.Inc()
			continue
		}
		result = append(result, *resp)
	}

	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *timeSlotService) Update(ctx context.Context, id string, req *dto.UpdateTimeSlotRequest, callerID string) (*dto.TimeSlotResponse, error) {
	// 仅规范化本次提交的字段
	var (
		start, end string
		day        int
	)
	if req.StartTime != nil {
		if start = timeutil.Normalize(*req.StartTime); start == "" {
			return nil, pkgerrors.NewValidationError("start_time", "无法识别的时间格式")
		}
	}
	if req.EndTime != nil {
		if end = timeutil.Normalize(*req.EndTime); end == "" {
			return nil, pkgerrors.NewValidationError("end_time", "无法识别的时间格式")
		}
	}
	if req.DayOfWeek != nil {
		var ok bool
		if day, ok = timeutil.DayIndex(*req.DayOfWeek); !ok {
			return nil, pkgerrors.NewValidationError("day_of_week", "无法识别的星期")
		}
	}
	if req.SlotType != nil && !model.IsValidSlotType(*req.SlotType) {
		return nil, pkgerrors.NewValidationError("slot_type", "必须为 subject、break 或 event")
	}

	slot, err := s.getSlot(ctx, id)
	if err != nil {
		return nil, err
	}

	// ── 合并 ──
	prevSubject := derefString(slot.SubjectID)
	prevType := slot.SlotType
	slot.StartTime = timeutil.FromStorage(slot.StartTime)
	slot.EndTime = timeutil.FromStorage(slot.EndTime)

	if req.SectionID != nil {
		slot.SectionID = *req.SectionID
	}
	if req.DayOfWeek != nil {
		slot.DayOfWeek = day
	}
	if start != "" {
		slot.StartTime = start
	}
	if end != "" {
		slot.EndTime = end
	}
	if req.SlotType != nil {
		slot.SlotType = *req.SlotType
	}
	if req.SubjectID != nil {
		slot.SubjectID = req.SubjectID
	}
	if req.TeacherID != nil {
		slot.TeacherID = req.TeacherID
	}
	if req.Title != nil {
		slot.Title = strings.TrimSpace(*req.Title)
	}
	if slot.SlotType != model.SlotTypeSubject {
		slot.SubjectID = nil
	}

	if _, _, err := normalizeRange(slot.StartTime, slot.EndTime); err != nil {
		return nil, err
	}
	if err := validateSlotContent(slot); err != nil {
		return nil, err
	}

	if req.SectionID != nil {
		if err := s.ensureSection(ctx, slot.SectionID); err != nil {
			return nil, err
		}
	}
	if slot.SlotType == model.SlotTypeSubject &&
		(prevType != model.SlotTypeSubject || derefString(slot.SubjectID) != prevSubject) {
		if err := s.resolveSubject(ctx, slot); err != nil {
			return nil, err
		}
	}

	if err := s.checkOverlap(ctx, slot, slot.TimeSlotID, "update"); err != nil {
		return nil, err
	}

	slot.UpdatedBy = auditUser(callerID)

	if err := s.repo.TimeSlot.Update(ctx, slot); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, err
		case errors.Is(err, repository.ErrDuplicateSlot):
			metrics.SlotConflicts.WithLabelValues("update").Inc()
			return nil, ErrTimeSlotConflict
		}
		s.logger.Error("更新时间段失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Persistence("time_slot.update", err)
	}

	return s.reload(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *timeSlotService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getSlot(ctx, id); err != nil {
		return err
	}

	var deletedBy string
	if by := auditUser(callerID); by != nil {
		deletedBy = *by
	}
	if err := s.repo.TimeSlot.Delete(ctx, id, deletedBy); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimeSlotNotFound
		}
		s.logger.Error("删除时间段失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Persistence("time_slot.delete", err)
	}

	return nil
}

// ────────────────────── CheckConflict ──────────────────────

func (s *timeSlotService) CheckConflict(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	start, end, err := normalizeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	day, ok := timeutil.DayIndex(req.DayOfWeek)
	if !ok {
		return nil, pkgerrors.NewValidationError("day_of_week", "无法识别的星期")
	}

	existing, err := s.repo.TimeSlot.ListBySectionDay(ctx, req.SectionID, day)
	if err != nil {
		s.logger.Error("查询当天时间段失败", zap.String("section_id", req.SectionID), zap.Error(err))
		return nil, pkgerrors.Persistence("time_slot.list_by_section_day", err)
	}

	hit, err := FindConflict(Interval{DayOfWeek: day, StartTime: start, EndTime: end}, toExistingSlots(existing), req.ExcludeID)
	if err != nil {
		return nil, err
	}
	if hit == nil {
		return &dto.ConflictCheckResponse{Conflict: false}, nil
	}

	resp := &dto.ConflictCheckResponse{Conflict: true}
	for i := range existing {
		if existing[i].TimeSlotID == hit.ID {
			if slotResp, err := toTimeSlotResponse(&existing[i]); err == nil {
				resp.ConflictingSlot = slotResp
			}
			break
		}
	}
	return resp, nil
}

// ────────────────────── ComputeEndTime ──────────────────────

func (s *timeSlotService) ComputeEndTime(req *dto.EndTimeRequest) (*dto.EndTimeResponse, error) {
	start := timeutil.Normalize(req.Start)
	if start == "" {
		return nil, pkgerrors.NewValidationError("start", "无法识别的时间格式")
	}

	end, err := timeutil.EndTime(start[:2], start[3:], req.Duration)
	if err != nil {
		if errors.Is(err, timeutil.ErrCrossesMidnight) {
			return nil, pkgerrors.NewValidationError("duration", "结束时间不能跨越午夜")
		}
		return nil, pkgerrors.NewValidationError("duration", "时长必须为正数")
	}

	return &dto.EndTimeResponse{StartTime: start, EndTime: end}, nil
}

// ── 内部辅助方法 ──

func (s *timeSlotService) getSlot(ctx context.Context, id string) (*model.TimeSlot, error) {
	slot, err := s.repo.TimeSlot.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeSlotNotFound
		}
		s.logger.Error("查询时间段失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Persistence("time_slot.get", err)
	}
	return slot, nil
}

func (s *timeSlotService) reload(ctx context.Context, id string) (*dto.TimeSlotResponse, error) {
	slot, err := s.repo.TimeSlot.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("重新加载时间段失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Persistence("time_slot.reload", err)
	}
	resp, err := toTimeSlotResponse(slot)
	if err != nil {
		return nil, pkgerrors.Persistence("time_slot.decode", err)
	}
	return resp, nil
}

func (s *timeSlotService) ensureSection(ctx context.Context, sectionID string) error {
	if _, err := s.repo.Section.GetByID(ctx, sectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		s.logger.Error("查询班级分组失败", zap.String("section_id", sectionID), zap.Error(err))
		return pkgerrors.Persistence("section.get", err)
	}
	return nil
}

// resolveSubject subject 类型的标题取科目名；未指定教师时尝试取该科目的默认任课教师
func (s *timeSlotService) resolveSubject(ctx context.Context, slot *model.TimeSlot) error {
	if slot.SlotType != model.SlotTypeSubject || slot.SubjectID == nil {
		return nil
	}

	subject, err := s.repo.Subject.GetByID(ctx, *slot.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		s.logger.Error("查询科目失败", zap.String("subject_id", *slot.SubjectID), zap.Error(err))
		return pkgerrors.Persistence("subject.get", err)
	}
	slot.Title = subject.Name

	if slot.TeacherID != nil {
		return nil
	}
	teacherID, err := s.repo.TeacherSubject.FirstTeacherForSubject(ctx, subject.SubjectID)
	switch {
	case err == nil:
		slot.TeacherID = &teacherID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 无任课教师映射，保持为空
	default:
		s.logger.Warn("查询默认任课教师失败", zap.String("subject_id", subject.SubjectID), zap.Error(err))
	}
	return nil
}

// checkOverlap 读取同一分组当天的时间段并做重叠检测
func (s *timeSlotService) checkOverlap(ctx context.Context, slot *model.TimeSlot, excludeID, op string) error {
	existing, err := s.repo.TimeSlot.ListBySectionDay(ctx, slot.SectionID, slot.DayOfWeek)
	if err != nil {
		s.logger.Error("查询当天时间段失败", zap.String("section_id", slot.SectionID), zap.Error(err))
		return pkgerrors.Persistence("time_slot.list_by_section_day", err)
	}

	candidate := Interval{DayOfWeek: slot.DayOfWeek, StartTime: slot.StartTime, EndTime: slot.EndTime}
	hit, err := FindConflict(candidate, toExistingSlots(existing), excludeID)
	if err != nil {
		return err
	}
	if hit != nil {
		metrics.SlotConflicts.WithLabelValues(op).Inc()
		return fmt.Errorf("%w: %s-%s", ErrTimeSlotConflict,
			timeutil.FromStorage(hit.StartTime), timeutil.FromStorage(hit.EndTime))
	}
	return nil
}

// normalizeRange 规范化开始/结束时间并校验 start < end
func normalizeRange(startTime, endTime string) (string, string, error) {
	if _, _, err := intervalMinutes(startTime, endTime); err != nil {
		return "", "", err
	}
	return timeutil.Normalize(startTime), timeutil.Normalize(endTime), nil
}

// validateSlotContent 按类型校验必填字段
func validateSlotContent(slot *model.TimeSlot) error {
	switch slot.SlotType {
	case model.SlotTypeSubject:
		if slot.SubjectID == nil || *slot.SubjectID == "" {
			return pkgerrors.NewValidationError("subject_id", "subject 类型必须指定科目")
		}
	default:
		if slot.Title == "" {
			return pkgerrors.NewValidationError("title", "break/event 类型必须填写标题")
		}
	}
	return nil
}

func intersectSections(requested, byClass []string) []string {
	if requested == nil {
		return byClass
	}
	allowed := make(map[string]struct{}, len(byClass))
	for _, id := range byClass {
		allowed[id] = struct{}{}
	}
	out := make([]string, 0, len(requested))
	for _, id := range requested {
		if _, ok := allowed[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func toTimeSlotResponse(slot *model.TimeSlot) (*dto.TimeSlotResponse, error) {
	dayName, ok := timeutil.DayName(slot.DayOfWeek)
	if !ok {
		return nil, fmt.Errorf("day_of_week 越界: %d", slot.DayOfWeek)
	}

	resp := &dto.TimeSlotResponse{
		ID:             slot.TimeSlotID,
		SectionID:      slot.SectionID,
		DayOfWeek:      dayName,
		StartTime:      timeutil.FromStorage(slot.StartTime),
		EndTime:        timeutil.FromStorage(slot.EndTime),
		SlotType:       slot.SlotType,
		SubjectID:      slot.SubjectID,
		TeacherID:      slot.TeacherID,
		Title:          slot.Title,
		AcademicYearID: slot.AcademicYearID,
		Version:        slot.Version,
		CreatedAt:      slot.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      slot.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if slot.Section != nil {
		resp.ClassID = slot.Section.ClassID
	}
	return resp, nil
}

// auditUser 审计字段为 uuid 列，身份服务下发的非 UUID 用户标识不落库
func auditUser(callerID string) *string {
	if _, err := uuid.Parse(callerID); err != nil {
		return nil
	}
	return &callerID
}
