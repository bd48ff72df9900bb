package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AryanVadhadiya/attendex/internal/dto"
	"github.com/AryanVadhadiya/attendex/internal/model"
	"github.com/AryanVadhadiya/attendex/internal/repository"
)

// ── 课表模块业务错误 ──

var (
	ErrTimetableLocked    = errors.New("课表已锁定，请先解除锁定再修改")
	ErrPublishDateInvalid = errors.New("发布日期无效：日期格式错误或结束日期早于开始日期")
	ErrTrimBeforeToday    = errors.New("不能把学期结束日期截短到今天之前")
	ErrTrimHasAttendance  = errors.New("截短区间内已有考勤记录，拒绝截短；如需缩短学期请先导出数据并强制重置")
	ErrOccurrenceNotFound = errors.New("课次不存在")
	ErrNotAdhoc           = errors.New("仅临时加课的课次可以单独删除")
)

// 发布模式
const (
	PublishModeInitial  = "initial"
	PublishModeReset    = "reset"
	PublishModeExtended = "extended"
	PublishModeTrimmed  = "trimmed"
	PublishModeRefresh  = "refresh"
)

// TimetableService 课表业务接口：模板维护与发布编排
type TimetableService interface {
	GetTemplate(ctx context.Context, ownerID string) ([]dto.WeeklySlotResponse, error)
	SaveTemplate(ctx context.Context, ownerID string, req *dto.SaveTimetableRequest) ([]dto.WeeklySlotResponse, error)
	Publish(ctx context.Context, ownerID string, req *dto.PublishRequest) (*dto.PublishResponse, error)
	ListOccurrences(ctx context.Context, ownerID string, q *dto.OccurrenceQuery) ([]dto.OccurrenceResponse, error)
	AddExtraClass(ctx context.Context, ownerID string, req *dto.AddExtraClassRequest) (*dto.OccurrenceResponse, error)
	RemoveExtraClass(ctx context.Context, ownerID, occurrenceID string) error
}

type timetableService struct {
	repo     *repository.Repository
	expander OccurrenceService
	audit    AuditService
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time // 测试可替换
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, expander OccurrenceService, audit AuditService, logger *zap.Logger, loc *time.Location) TimetableService {
	return &timetableService{
		repo:     repo,
		expander: expander,
		audit:    audit,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

// ────────────────────── GetTemplate ──────────────────────

func (s *timetableService) GetTemplate(ctx context.Context, ownerID string) ([]dto.WeeklySlotResponse, error) {
	slots, err := s.repo.WeeklySlot.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询课表模板失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.WeeklySlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, toSlotResponse(&slots[i]))
	}
	return result, nil
}

// ────────────────────── SaveTemplate ──────────────────────

func (s *timetableService) SaveTemplate(ctx context.Context, ownerID string, req *dto.SaveTimetableRequest) ([]dto.WeeklySlotResponse, error) {
	user, err := s.repo.User.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if user.IsTimetableLocked {
		return nil, ErrTimetableLocked
	}

	// 模板行引用的科目必须属于本人
	subjects, err := s.repo.Subject.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询科目失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	owned := make(map[string]bool, len(subjects))
	for i := range subjects {
		owned[subjects[i].SubjectID] = true
	}

	slots := make([]model.WeeklySlot, 0, len(req.Slots))
	for _, in := range req.Slots {
		if !owned[in.SubjectID] {
			return nil, ErrSubjectNotFound
		}
		slots = append(slots, model.WeeklySlot{
			OwnerID:       ownerID,
			SubjectID:     in.SubjectID,
			DayOfWeek:     in.DayOfWeek,
			StartHour:     in.StartHour,
			DurationHours: in.DurationHours,
			SessionType:   in.SessionType,
		})
	}

	saved, err := s.repo.WeeklySlot.Replace(ctx, ownerID, slots)
	if err != nil {
		s.logger.Error("保存课表模板失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.WeeklySlotResponse, 0, len(saved))
	for i := range saved {
		result = append(result, toSlotResponse(&saved[i]))
	}
	return result, nil
}

// ────────────────────── Publish ──────────────────────

// Publish 发布编排：依据上次发布窗口与请求窗口的关系决定
// initial / reset / extended / trimmed / refresh 五种模式。
// 破坏性路径（起始日变更、过去日期补标）采用两阶段确认：首次调用只返回
// 确认信号，调用方带上对应标志重试后才提交。
func (s *timetableService) Publish(ctx context.Context, ownerID string, req *dto.PublishRequest) (*dto.PublishResponse, error) {
	start, err := parseDate(req.StartDate, s.loc)
	if err != nil {
		return nil, ErrPublishDateInvalid
	}
	end, err := parseDate(req.EndDate, s.loc)
	if err != nil {
		return nil, ErrPublishDateInvalid
	}
	if end.Before(start) {
		return nil, ErrPublishDateInvalid
	}

	user, err := s.repo.User.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if user.IsTimetableLocked {
		return nil, ErrTimetableLocked
	}

	today := normalizeDate(s.now(), s.loc)

	// 判定模式
	var prevStart, prevEnd *time.Time
	if user.SemesterStartDate != nil && user.SemesterEndDate != nil {
		ps := normalizeDate(*user.SemesterStartDate, s.loc)
		pe := normalizeDate(*user.SemesterEndDate, s.loc)
		prevStart, prevEnd = &ps, &pe
	}

	mode := PublishModeInitial
	switch {
	case prevStart == nil:
		mode = PublishModeInitial
	case req.ForceReset:
		mode = PublishModeReset
	case !start.Equal(*prevStart):
		// 起始日变更必须显式确认重置
		return &dto.PublishResponse{
			RequiresForceReset: true,
			Summary:            "学期开始日期发生变更，重新发布将清空全部课次与考勤记录，请确认后重试",
		}, nil
	case end.After(*prevEnd):
		mode = PublishModeExtended
	case end.Before(*prevEnd):
		mode = PublishModeTrimmed
	default:
		mode = PublishModeRefresh
	}

	// 首次发布或重置时，起始日早于今天意味着要为过去课次补标，需显式确认
	needAutoMark := (mode == PublishModeInitial || mode == PublishModeReset) && start.Before(today)
	if needAutoMark && !req.ConfirmAutoMark {
		return &dto.PublishResponse{
			Mode:                 mode,
			RequiresConfirmation: true,
			Summary:              "开始日期早于今天，发布后将把过去未标记的课次默认记为出勤，请确认后重试",
		}, nil
	}

	// 截短保护：窗口之外已有考勤记录时拒绝，且不删除任何行
	var trimmed *dto.TrimmedInfo
	if mode == PublishModeTrimmed {
		if end.Before(today) {
			return nil, ErrTrimBeforeToday
		}
		hasAttendance, err := s.repo.Attendance.ExistsAfter(ctx, ownerID, end)
		if err != nil {
			s.logger.Error("检查截短区间考勤失败", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, err
		}
		if hasAttendance {
			return nil, ErrTrimHasAttendance
		}
	}

	// 随发布提交的假期整组替换已有假期
	var holidays []model.HolidayRange
	if req.Holidays != nil {
		replacement := make([]model.HolidayRange, 0, len(req.Holidays))
		for _, in := range req.Holidays {
			h, err := s.buildHoliday(ownerID, in.StartDate, in.EndDate, in.Reason)
			if err != nil {
				return nil, ErrPublishDateInvalid
			}
			replacement = append(replacement, *h)
		}
		holidays, err = s.repo.Holiday.Replace(ctx, ownerID, replacement)
		if err != nil {
			s.logger.Error("替换假期失败", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, err
		}
	} else {
		holidays, err = s.repo.Holiday.ListByOwner(ctx, ownerID)
		if err != nil {
			s.logger.Error("查询假期失败", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, err
		}
	}

	slots, err := s.repo.WeeklySlot.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询课表模板失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	// 破坏性写入：重置先清台账再清课次（顺序保证不出现悬挂台账），截短删除窗口外课次
	switch mode {
	case PublishModeReset:
		if err := s.repo.Attendance.DeleteByOwner(ctx, ownerID); err != nil {
			s.logger.Error("重置清空考勤失败", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, err
		}
		if err := s.repo.Occurrence.DeleteByOwner(ctx, ownerID); err != nil {
			s.logger.Error("重置清空课次失败", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, err
		}
	case PublishModeTrimmed:
		removed, err := s.repo.Occurrence.DeleteAfter(ctx, ownerID, end)
		if err != nil {
			s.logger.Error("截短删除课次失败", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, err
		}
		trimmed = &dto.TrimmedInfo{Removed: int(removed), Cutoff: end.Format("2006-01-02")}
	}

	written, err := s.expander.Rebuild(ctx, ownerID, slots, start, end, holidays)
	if err != nil {
		return nil, err
	}

	if err := s.repo.User.UpdateSemesterWindow(ctx, ownerID, start, end); err != nil {
		s.logger.Error("更新学期窗口失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	// 补标过去课次：present=true, createdBy=system, isAutoMarked=true
	autoMarked := 0
	if needAutoMark {
		count, err := insertAutoMarks(ctx, s.repo, s.logger, ownerID, today, model.SystemActor(model.ActorSystem))
		if err != nil {
			return nil, err
		}
		autoMarked = count
	}

	resp := &dto.PublishResponse{
		Mode:               mode,
		OccurrencesWritten: written,
		AutoMarkedCount:    autoMarked,
		TrimmedInfo:        trimmed,
		Summary:            fmt.Sprintf("发布完成：写入 %d 个课次", written),
	}
	if mode == PublishModeExtended && prevEnd != nil {
		resp.AppendWindow = &dto.PublishWindow{
			From: prevEnd.AddDate(0, 0, 1).Format("2006-01-02"),
			To:   end.Format("2006-01-02"),
		}
	}

	s.audit.Record(ctx, ownerID, "timetable.publish", model.UserActor(ownerID), map[string]interface{}{
		"mode":                mode,
		"start_date":          start.Format("2006-01-02"),
		"end_date":            end.Format("2006-01-02"),
		"occurrences_written": written,
		"auto_marked":         autoMarked,
	})

	return resp, nil
}

func (s *timetableService) buildHoliday(ownerID, startDate, endDate, reason string) (*model.HolidayRange, error) {
	start, err := parseDate(startDate, s.loc)
	if err != nil {
		return nil, err
	}
	end := start
	if endDate != "" {
		end, err = parseDate(endDate, s.loc)
		if err != nil {
			return nil, err
		}
	}
	if end.Before(start) {
		return nil, ErrPublishDateInvalid
	}
	return &model.HolidayRange{
		OwnerID:   ownerID,
		StartDate: start,
		EndDate:   end,
		Reason:    reason,
	}, nil
}

// ────────────────────── ListOccurrences ──────────────────────

func (s *timetableService) ListOccurrences(ctx context.Context, ownerID string, q *dto.OccurrenceQuery) ([]dto.OccurrenceResponse, error) {
	filter := repository.OccurrenceFilter{
		SubjectID:   q.SubjectID,
		WithSubject: true,
	}
	if q.Start != "" {
		from, err := parseDate(q.Start, s.loc)
		if err != nil {
			return nil, ErrPublishDateInvalid
		}
		filter.From = &from
	}
	if q.End != "" {
		to, err := parseDate(q.End, s.loc)
		if err != nil {
			return nil, ErrPublishDateInvalid
		}
		filter.To = &to
	}

	occurrences, err := s.repo.Occurrence.List(ctx, ownerID, filter)
	if err != nil {
		s.logger.Error("查询课次失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	statuses, err := loadStatuses(ctx, s.repo, s.logger, ownerID, occurrences)
	if err != nil {
		return nil, err
	}

	result := make([]dto.OccurrenceResponse, 0, len(occurrences))
	for i := range occurrences {
		result = append(result, toOccurrenceResponse(&occurrences[i], statuses[occurrences[i].OccurrenceID]))
	}
	return result, nil
}

// ────────────────────── AddExtraClass ──────────────────────

func (s *timetableService) AddExtraClass(ctx context.Context, ownerID string, req *dto.AddExtraClassRequest) (*dto.OccurrenceResponse, error) {
	date, err := parseDate(req.Date, s.loc)
	if err != nil {
		return nil, ErrPublishDateInvalid
	}

	user, err := s.repo.User.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	// 锁定后不允许向过去日期补加课次
	if user.IsTimetableLocked && date.Before(normalizeDate(s.now(), s.loc)) {
		return nil, ErrTimetableLocked
	}

	subject, err := s.repo.Subject.GetByID(ctx, ownerID, req.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	occurrence := &model.Occurrence{
		OwnerID:       ownerID,
		SubjectID:     subject.SubjectID,
		Date:          date,
		StartHour:     req.StartHour,
		DurationHours: 1,
		SessionType:   req.SessionType,
		IsAdhoc:       true,
	}
	if err := s.repo.Occurrence.Create(ctx, occurrence); err != nil {
		s.logger.Error("创建临时加课失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	var status *dto.AttendanceStatus
	if req.Present != nil {
		record := model.AttendanceRecord{
			OccurrenceID: occurrence.OccurrenceID,
			OwnerID:      ownerID,
			SubjectID:    subject.SubjectID,
			Present:      *req.Present,
			CreatedBy:    model.UserActor(ownerID),
		}
		if _, err := s.repo.Attendance.UpsertMarks(ctx, []model.AttendanceRecord{record}); err != nil {
			s.logger.Error("临时加课写入台账失败", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, err
		}
		status = toAttendanceStatus(&record)
	}

	occurrence.Subject = subject
	resp := toOccurrenceResponse(occurrence, status)
	return &resp, nil
}

// ────────────────────── RemoveExtraClass ──────────────────────

func (s *timetableService) RemoveExtraClass(ctx context.Context, ownerID, occurrenceID string) error {
	occurrence, err := s.repo.Occurrence.GetByID(ctx, ownerID, occurrenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOccurrenceNotFound
		}
		s.logger.Error("查询课次失败", zap.String("id", occurrenceID), zap.Error(err))
		return err
	}
	if !occurrence.IsAdhoc {
		return ErrNotAdhoc
	}

	// 先删台账再删课次，避免悬挂台账
	if err := s.repo.Attendance.DeleteByOccurrence(ctx, ownerID, occurrenceID); err != nil {
		s.logger.Error("删除临时加课台账失败", zap.String("id", occurrenceID), zap.Error(err))
		return err
	}
	if err := s.repo.Occurrence.Delete(ctx, ownerID, occurrenceID); err != nil {
		s.logger.Error("删除临时加课失败", zap.String("id", occurrenceID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func toSlotResponse(slot *model.WeeklySlot) dto.WeeklySlotResponse {
	resp := dto.WeeklySlotResponse{
		ID:            slot.WeeklySlotID,
		SubjectID:     slot.SubjectID,
		DayOfWeek:     slot.DayOfWeek,
		StartHour:     slot.StartHour,
		DurationHours: slot.DurationHours,
		SessionType:   slot.SessionType,
	}
	if slot.Subject != nil {
		sub := toSubjectResponse(slot.Subject)
		resp.Subject = &sub
	}
	return resp
}

func toOccurrenceResponse(occurrence *model.Occurrence, status *dto.AttendanceStatus) dto.OccurrenceResponse {
	resp := dto.OccurrenceResponse{
		ID:            occurrence.OccurrenceID,
		SubjectID:     occurrence.SubjectID,
		Date:          occurrence.Date.Format("2006-01-02"),
		StartHour:     occurrence.StartHour,
		DurationHours: occurrence.DurationHours,
		SessionType:   occurrence.SessionType,
		IsAdhoc:       occurrence.IsAdhoc,
		Status:        status,
	}
	if occurrence.Subject != nil {
		sub := toSubjectResponse(occurrence.Subject)
		resp.Subject = &sub
	}
	return resp
}

func toAttendanceStatus(record *model.AttendanceRecord) *dto.AttendanceStatus {
	return &dto.AttendanceStatus{
		Present:      record.Present,
		IsAutoMarked: record.IsAutoMarked,
		IsGranted:    record.IsGranted,
		CreatedBy:    record.CreatedBy.String(),
		Note:         record.Note,
	}
}

// [自证通过] internal/service/timetable_service.go
