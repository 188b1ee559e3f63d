package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolhub/timetable/internal/model"
)

// SectionRepository 班级分组只读访问接口
type SectionRepository interface {
	GetByID(ctx context.Context, id string) (*model.Section, error)
	ListIDsByClass(ctx context.Context, classID string) ([]string, error)
}

type sectionRepo struct {
	db *gorm.DB
}

// NewSectionRepo 创建 SectionRepository 实例
func NewSectionRepo(db *gorm.DB) SectionRepository {
	return &sectionRepo{db: db}
}

func (r *sectionRepo) GetByID(ctx context.Context, id string) (*model.Section, error) {
	var section model.Section
	if err := r.db.WithContext(ctx).Where("section_id = ?", id).First(&section).Error; err != nil {
		return nil, translateError(err)
	}
	return &section, nil
}

func (r *sectionRepo) ListIDsByClass(ctx context.Context, classID string) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&model.Section{}).
		Where("class_id = ?", classID).
		Order("name ASC").
		Pluck("section_id", &ids).Error
	return ids, err
}

// ── 带缓存的 SectionRepository ──

// JSONCache 缓存后端（pkg/redis.Client 实现）
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

type cachedSectionRepo struct {
	inner  SectionRepository
	cache  JSONCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSectionRepo 为班级 → 分组 ID 查询增加缓存；缓存故障时回落到 inner
func NewCachedSectionRepo(inner SectionRepository, cache JSONCache, ttl time.Duration, logger *zap.Logger) SectionRepository {
	return &cachedSectionRepo{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (r *cachedSectionRepo) GetByID(ctx context.Context, id string) (*model.Section, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *cachedSectionRepo) ListIDsByClass(ctx context.Context, classID string) ([]string, error) {
	key := "sections:class:" + classID

	var ids []string
	hit, err := r.cache.GetJSON(ctx, key, &ids)
	if err != nil {
		r.logger.Warn("读取班级分组缓存失败", zap.String("class_id", classID), zap.Error(err))
	}
	if hit {
		return ids, nil
	}

	ids, err = r.inner.ListIDsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetJSON(ctx, key, ids, r.ttl); err != nil {
		r.logger.Warn("写入班级分组缓存失败", zap.String("class_id", classID), zap.Error(err))
	}
	return ids, nil
}
