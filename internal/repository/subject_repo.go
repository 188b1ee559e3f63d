package repository

import (
	"context"

	"gorm.io/gorm"

	"schoolhub/timetable/internal/model"
)

// SubjectRepository 科目只读访问接口
type SubjectRepository interface {
	GetByID(ctx context.Context, id string) (*model.Subject, error)
}

type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo 创建 SubjectRepository 实例
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	if err := r.db.WithContext(ctx).Where("subject_id = ?", id).First(&subject).Error; err != nil {
		return nil, translateError(err)
	}
	return &subject, nil
}

// TeacherSubjectRepository 教师任教科目只读访问接口
type TeacherSubjectRepository interface {
	// FirstTeacherForSubject 返回最早登记的任教教师；无记录时返回 gorm.ErrRecordNotFound
	FirstTeacherForSubject(ctx context.Context, subjectID string) (string, error)
}

type teacherSubjectRepo struct {
	db *gorm.DB
}

// NewTeacherSubjectRepo 创建 TeacherSubjectRepository 实例
func NewTeacherSubjectRepo(db *gorm.DB) TeacherSubjectRepository {
	return &teacherSubjectRepo{db: db}
}

func (r *teacherSubjectRepo) FirstTeacherForSubject(ctx context.Context, subjectID string) (string, error) {
	var ts model.TeacherSubject
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at ASC").
		First(&ts).Error
	if err != nil {
		return "", err
	}
	return ts.TeacherID, nil
}
