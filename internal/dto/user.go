package dto

// ── 用户模块 DTO ──

// UserResponse 用户信息响应
type UserResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	IsTimetableLocked bool   `json:"is_timetable_locked"`
	SemesterStartDate string `json:"semester_start_date,omitempty"`
	SemesterEndDate   string `json:"semester_end_date,omitempty"`
	LabUnitStrategy   string `json:"lab_unit_strategy"`
	LabUnitValue      int    `json:"lab_unit_value"`
	LabUnitLockedAt   string `json:"lab_unit_locked_at,omitempty"`
}

// UpdateProfileRequest 更新个人偏好请求
type UpdateProfileRequest struct {
	IsTimetableLocked *bool `json:"is_timetable_locked"`
}

// UpdateLabUnitsRequest 设置并锁定实验课计量请求
type UpdateLabUnitsRequest struct {
	Strategy        string `json:"strategy"         binding:"required,oneof=standard custom"`
	LabUnitValue    int    `json:"lab_unit_value"`  // custom 策略下 1-4
	DoubleConfirmed bool   `json:"double_confirmed"`
}

// UnlockLabUnitsRequest 解锁实验课计量请求
type UnlockLabUnitsRequest struct {
	Confirm bool `json:"confirm"`
}

// LabUnitsResponse 实验课计量响应
type LabUnitsResponse struct {
	LabUnitStrategy string `json:"lab_unit_strategy"`
	LabUnitValue    int    `json:"lab_unit_value"`
	LabUnitLockedAt string `json:"lab_unit_locked_at,omitempty"`
}

// [自证通过] internal/dto/user.go
