package model

import "time"

// Section 班级分组（如 "一年级 A 班"），对应 sections，本服务只读
type Section struct {
	SectionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"section_id"`
	ClassID   string    `gorm:"type:uuid;not null;index"                       json:"class_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Section) TableName() string { return "sections" }
