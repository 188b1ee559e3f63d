package repository

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolhub/timetable/pkg/redis"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	TimeSlot       TimeSlotRepository
	Section        SectionRepository
	Subject        SubjectRepository
	TeacherSubject TeacherSubjectRepository
}

// NewRepository 创建 Repository 聚合
// cache 为 nil 时班级分组查询直连数据库
func NewRepository(db *gorm.DB, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Repository {
	var section SectionRepository = NewSectionRepo(db)
	if cache != nil {
		section = NewCachedSectionRepo(section, cache, cacheTTL, logger)
	}

	return &Repository{
		TimeSlot:       NewTimeSlotRepo(db),
		Section:        section,
		Subject:        NewSubjectRepo(db),
		TeacherSubject: NewTeacherSubjectRepo(db),
	}
}
