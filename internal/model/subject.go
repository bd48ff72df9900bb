package model

// Subject 科目表 — 对应 subjects
type Subject struct {
	SubjectID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	OwnerID         string `gorm:"type:uuid;not null;index"                       json:"owner_id"`
	Name            string `gorm:"type:varchar(100);not null"                     json:"name"`
	Code            string `gorm:"type:varchar(50)"                               json:"code,omitempty"`
	Color           string `gorm:"type:varchar(20);not null;default:'#3b82f6'"    json:"color"`
	LecturesPerWeek int    `gorm:"type:smallint;not null;default:0"               json:"lectures_per_week"`
	LabsPerWeek     int    `gorm:"type:smallint;not null;default:0"               json:"labs_per_week"`
	BaseModel
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }

// [自证通过] internal/model/subject.go
