package service

import (
	"time"

	"go.uber.org/zap"

	"schoolhub/timetable/config"
	"schoolhub/timetable/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	TimeSlot TimeSlotService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	loc, err := cfg.Timetable.Location()
	if err != nil {
		logger.Warn("课表时区无效，改用 UTC", zap.String("timezone", cfg.Timetable.Timezone), zap.Error(err))
		loc = time.UTC
	}

	return &Service{
		TimeSlot: NewTimeSlotService(repo, cfg.Timetable.AcademicYearID, logger),
		Export:   NewExportService(repo, loc, cfg.Timetable.CalendarAnchor, logger),
	}
}
