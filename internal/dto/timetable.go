package dto

// ── 课表模块 DTO ──

// WeeklySlotInput 模板行（保存模板时整组替换）
type WeeklySlotInput struct {
	SubjectID     string `json:"subject_id"     binding:"required,uuid"`
	DayOfWeek     int    `json:"day_of_week"    binding:"min=0,max=6"` // 0=周日
	StartHour     int    `json:"start_hour"     binding:"min=0,max=23"`
	DurationHours int    `json:"duration_hours" binding:"min=1,max=8"`
	SessionType   string `json:"session_type"   binding:"required,oneof=lecture lab"`
}

// SaveTimetableRequest 保存模板请求
type SaveTimetableRequest struct {
	Slots []WeeklySlotInput `json:"slots" binding:"required,dive"`
}

// WeeklySlotResponse 模板行响应
type WeeklySlotResponse struct {
	ID            string           `json:"id"`
	SubjectID     string           `json:"subject_id"`
	DayOfWeek     int              `json:"day_of_week"`
	StartHour     int              `json:"start_hour"`
	DurationHours int              `json:"duration_hours"`
	SessionType   string           `json:"session_type"`
	Subject       *SubjectResponse `json:"subject,omitempty"`
}

// HolidayInput 随发布提交的假期（整组替换已有假期）
type HolidayInput struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason" binding:"max=255"`
}

// PublishRequest 发布请求
type PublishRequest struct {
	StartDate       string         `json:"start_date" binding:"required"` // "2026-01-01"
	EndDate         string         `json:"end_date"   binding:"required"`
	Holidays        []HolidayInput `json:"holidays"`          // 提供时整组替换
	ForceReset      bool           `json:"force_reset"`       // 起始日变更/主动重置需显式确认
	ConfirmAutoMark bool           `json:"confirm_auto_mark"` // 过去日期补标需显式确认
}

// PublishWindow 发布窗口
type PublishWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TrimmedInfo 截短结果
type TrimmedInfo struct {
	Removed int    `json:"removed"`
	Cutoff  string `json:"cutoff"`
}

// PublishResponse 发布响应
// RequiresForceReset / RequiresConfirmation 为两阶段确认信号，二者为 true 时
// 本次调用未提交任何破坏性写入，调用方补上对应标志后重试。
type PublishResponse struct {
	Mode                 string         `json:"mode"` // initial | reset | extended | trimmed | refresh
	OccurrencesWritten   int            `json:"occurrences_written"`
	AutoMarkedCount      int            `json:"auto_marked_count"`
	AppendWindow         *PublishWindow `json:"append_window,omitempty"`
	TrimmedInfo          *TrimmedInfo   `json:"trimmed_info,omitempty"`
	RequiresForceReset   bool           `json:"requires_force_reset,omitempty"`
	RequiresConfirmation bool           `json:"requires_confirmation,omitempty"`
	Summary              string         `json:"summary,omitempty"`
}

// OccurrenceQuery 课次列表查询参数
type OccurrenceQuery struct {
	Start     string `form:"start"`
	End       string `form:"end"`
	SubjectID string `form:"subject_id" binding:"omitempty,uuid"`
}

// OccurrenceResponse 课次响应
type OccurrenceResponse struct {
	ID            string            `json:"id"`
	SubjectID     string            `json:"subject_id"`
	Date          string            `json:"date"`
	StartHour     int               `json:"start_hour"`
	DurationHours int               `json:"duration_hours"`
	SessionType   string            `json:"session_type"`
	IsAdhoc       bool              `json:"is_adhoc"`
	Subject       *SubjectResponse  `json:"subject,omitempty"`
	Status        *AttendanceStatus `json:"status,omitempty"`
}

// AddExtraClassRequest 临时加课请求
type AddExtraClassRequest struct {
	SubjectID   string `json:"subject_id"   binding:"required,uuid"`
	Date        string `json:"date"         binding:"required"`
	StartHour   int    `json:"start_hour"   binding:"min=0,max=23"`
	SessionType string `json:"session_type" binding:"required,oneof=lecture lab"`
	Present     *bool  `json:"present"` // 提供时立即写入台账
}

// [自证通过] internal/dto/timetable.go
