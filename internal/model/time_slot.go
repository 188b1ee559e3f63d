package model

// 时间段类型
const (
	SlotTypeSubject = "subject"
	SlotTypeBreak   = "break"
	SlotTypeEvent   = "event"
)

// TimeSlot 周课表时间段，对应 time_slots
type TimeSlot struct {
	TimeSlotID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"time_slot_id"`
	SectionID      string  `gorm:"type:uuid;not null"                             json:"section_id"`
	DayOfWeek      int     `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0=Sunday … 6=Saturday
	StartTime      string  `gorm:"type:time;not null"                             json:"start_time"`
	EndTime        string  `gorm:"type:time;not null"                             json:"end_time"`
	SlotType       string  `gorm:"type:varchar(10);not null"                      json:"slot_type"` // subject | break | event
	SubjectID      *string `gorm:"type:uuid"                                      json:"subject_id,omitempty"`
	TeacherID      *string `gorm:"type:uuid"                                      json:"teacher_id,omitempty"`
	Title          string  `gorm:"type:varchar(100);not null;default:''"          json:"title"`
	AcademicYearID string  `gorm:"type:varchar(64);not null"                      json:"academic_year_id"`
	VersionedModel

	// 关联
	Section *Section `gorm:"foreignKey:SectionID;references:SectionID" json:"section,omitempty"`
	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
}

// TableName 指定表名
func (TimeSlot) TableName() string { return "time_slots" }

// IsValidSlotType 判断时间段类型是否合法
func IsValidSlotType(t string) bool {
	switch t {
	case SlotTypeSubject, SlotTypeBreak, SlotTypeEvent:
		return true
	}
	return false
}
