package dto

// ── 时间段模块 DTO ──
//
// day_of_week 对外统一使用星期名称（Monday…Sunday），
// 时间统一为 24 小时制 "HH:MM"，入参另接受 "8 am" 形式

// CreateTimeSlotRequest 创建时间段请求
type CreateTimeSlotRequest struct {
	SectionID string  `json:"section_id"  binding:"required,uuid"`
	DayOfWeek string  `json:"day_of_week" binding:"required,weekday"` // "Monday"
	StartTime string  `json:"start_time"  binding:"required,clock"`   // "08:10" | "8 am"
	EndTime   string  `json:"end_time"    binding:"required,clock"`
	SlotType  string  `json:"slot_type"   binding:"required,oneof=subject break event"`
	SubjectID *string `json:"subject_id"  binding:"omitempty,uuid"`
	TeacherID *string `json:"teacher_id"  binding:"omitempty,uuid"`
	Title     string  `json:"title"       binding:"max=100"`
}

// UpdateTimeSlotRequest 更新时间段请求（仅处理非 nil 字段）
type UpdateTimeSlotRequest struct {
	SectionID *string `json:"section_id"  binding:"omitempty,uuid"`
	DayOfWeek *string `json:"day_of_week" binding:"omitempty,weekday"`
	StartTime *string `json:"start_time"  binding:"omitempty,clock"`
	EndTime   *string `json:"end_time"    binding:"omitempty,clock"`
	SlotType  *string `json:"slot_type"   binding:"omitempty,oneof=subject break event"`
	SubjectID *string `json:"subject_id"  binding:"omitempty,uuid"`
	TeacherID *string `json:"teacher_id"  binding:"omitempty,uuid"`
	Title     *string `json:"title"       binding:"omitempty,max=100"`
}

// TimeSlotListRequest 时间段列表查询参数
type TimeSlotListRequest struct {
	Day       string `form:"day"        binding:"omitempty,weekday"`
	ClassID   string `form:"class_id"   binding:"omitempty,uuid"`
	SectionID string `form:"section_id" binding:"omitempty,uuid"`
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
}

// TimeSlotResponse 时间段信息响应
type TimeSlotResponse struct {
	ID             string  `json:"id"`
	SectionID      string  `json:"section_id"`
	ClassID        string  `json:"class_id,omitempty"`
	DayOfWeek      string  `json:"day_of_week"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	SlotType       string  `json:"slot_type"`
	SubjectID      *string `json:"subject_id,omitempty"`
	TeacherID      *string `json:"teacher_id,omitempty"`
	Title          string  `json:"title"`
	AcademicYearID string  `json:"academic_year_id"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// ConflictCheckRequest 时间冲突预检请求
type ConflictCheckRequest struct {
	SectionID string `json:"section_id"  binding:"required,uuid"`
	DayOfWeek string `json:"day_of_week" binding:"required,weekday"`
	StartTime string `json:"start_time"  binding:"required,clock"`
	EndTime   string `json:"end_time"    binding:"required,clock"`
	ExcludeID string `json:"exclude_id"  binding:"omitempty,uuid"` // 编辑中的时间段
}

// ConflictCheckResponse 时间冲突预检结果
type ConflictCheckResponse struct {
	Conflict        bool              `json:"conflict"`
	ConflictingSlot *TimeSlotResponse `json:"conflicting_slot,omitempty"`
}

// EndTimeRequest 由开始时间与时长计算结束时间
type EndTimeRequest struct {
	Start    string `form:"start"    binding:"required,clock"`
	Duration int    `form:"duration" binding:"required,min=1,max=1440"` // 分钟
}

// EndTimeResponse 结束时间计算结果
type EndTimeResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
