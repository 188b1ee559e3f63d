package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"schoolhub/timetable/internal/model"
	pkgerrors "schoolhub/timetable/pkg/errors"
)

// ErrDuplicateSlot 同一班级分组、同一天、同一开始时间已存在时间段（唯一索引冲突）
var ErrDuplicateSlot = errors.New("时间段唯一约束冲突")

const (
	pgUniqueViolation = "23505"
	pgInvalidTextRepr = "22P02"
)

// TimeSlotFilter 时间段列表过滤条件
type TimeSlotFilter struct {
	DayOfWeek  *int
	SectionIDs []string // nil 表示不过滤
	TeacherID  string
}

// TimeSlotRepository 时间段数据访问接口
type TimeSlotRepository interface {
	Create(ctx context.Context, slot *model.TimeSlot) error
	GetByID(ctx context.Context, id string) (*model.TimeSlot, error)
	List(ctx context.Context, filter TimeSlotFilter) ([]model.TimeSlot, error)
	ListBySectionDay(ctx context.Context, sectionID string, dayOfWeek int) ([]model.TimeSlot, error)
	Update(ctx context.Context, slot *model.TimeSlot) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type timeSlotRepo struct {
	db *gorm.DB
}

// NewTimeSlotRepo 创建 TimeSlotRepository 实例
func NewTimeSlotRepo(db *gorm.DB) TimeSlotRepository {
	return &timeSlotRepo{db: db}
}

func (r *timeSlotRepo) Create(ctx context.Context, slot *model.TimeSlot) error {
	return translateError(r.db.WithContext(ctx).Omit("Section", "Subject").Create(slot).Error)
}

func (r *timeSlotRepo) GetByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := r.db.WithContext(ctx).
		Preload("Section").
		Where("time_slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &slot, nil
}

func (r *timeSlotRepo) List(ctx context.Context, filter TimeSlotFilter) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	db := r.db.WithContext(ctx)

	if filter.DayOfWeek != nil {
		db = db.Where("day_of_week = ?", *filter.DayOfWeek)
	}
	if filter.SectionIDs != nil {
		db = db.Where("section_id IN ?", filter.SectionIDs)
	}
	if filter.TeacherID != "" {
		db = db.Where("teacher_id = ?", filter.TeacherID)
	}

	err := db.Preload("Section").
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *timeSlotRepo) ListBySectionDay(ctx context.Context, sectionID string, dayOfWeek int) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("section_id = ? AND day_of_week = ?", sectionID, dayOfWeek).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *timeSlotRepo) Update(ctx context.Context, slot *model.TimeSlot) error {
	oldVersion := slot.Version
	result := r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("time_slot_id = ? AND version = ?", slot.TimeSlotID, oldVersion).
		Updates(map[string]interface{}{
			"section_id":  slot.SectionID,
			"day_of_week": slot.DayOfWeek,
			"start_time":  slot.StartTime,
			"end_time":    slot.EndTime,
			"slot_type":   slot.SlotType,
			"subject_id":  slot.SubjectID,
			"teacher_id":  slot.TeacherID,
			"title":       slot.Title,
			"updated_by":  slot.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	slot.Version = oldVersion + 1
	return nil
}

func (r *timeSlotRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	var by interface{}
	if deletedBy != "" {
		by = deletedBy
	}
	result := r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("time_slot_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": by,
			"deleted_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// translateError 将唯一索引冲突转为 ErrDuplicateSlot，
// 非法 UUID 文本（22P02）按记录不存在处理
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrDuplicateSlot
	case pgInvalidTextRepr:
		return gorm.ErrRecordNotFound
	}
	return err
}
