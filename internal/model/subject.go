package model

import "time"

// Subject 科目，对应 subjects，本服务只读
type Subject struct {
	SubjectID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }

// TeacherSubject 教师任教科目，对应 teacher_subjects
type TeacherSubject struct {
	TeacherID string    `gorm:"type:uuid;primaryKey"               json:"teacher_id"`
	SubjectID string    `gorm:"type:uuid;primaryKey"               json:"subject_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (TeacherSubject) TableName() string { return "teacher_subjects" }
