package dto

// ── 日历模块 DTO（假期与豁免）──

// CreateHolidayRequest 新建假期请求
type CreateHolidayRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date"` // 省略时与 StartDate 相同（单日）
	Reason    string `json:"reason" binding:"max=255"`
}

// HolidayResponse 假期响应
type HolidayResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason,omitempty"`
}

// CreateGrantRequest 新建豁免请求
type CreateGrantRequest struct {
	Type          string   `json:"type"       binding:"required,oneof=full half partial"`
	StartDate     string   `json:"start_date" binding:"required"`
	EndDate       string   `json:"end_date"`
	OccurrenceIDs []string `json:"occurrence_ids"` // half / partial 时必填
	Reason        string   `json:"reason" binding:"max=500"`
}

// GrantResponse 豁免响应
type GrantResponse struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date,omitempty"`
	OccurrenceIDs []string `json:"occurrence_ids,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	AppliedCount  int      `json:"applied_count,omitempty"` // 创建时实际写入台账的课次数
}

// [自证通过] internal/dto/calendar.go
