package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AryanVadhadiya/attendex/internal/dto"
	"github.com/AryanVadhadiya/attendex/internal/model"
	"github.com/AryanVadhadiya/attendex/internal/repository"
)

// ── 考勤模块业务错误 ──

var (
	ErrDateInvalid       = errors.New("日期格式无效")
	ErrAcknowledgeTarget = errors.New("确认目标为空：请提供课次列表或 all 标志")
	ErrThresholdInvalid  = errors.New("出勤率阈值必须在 1-100 之间")
)

// AttendanceService 考勤业务接口：台账写入、核算引擎与对账流程
type AttendanceService interface {
	MarkBulk(ctx context.Context, ownerID string, req *dto.BulkMarkRequest) (*dto.BulkMarkResponse, error)
	ByDate(ctx context.Context, ownerID, date string) ([]dto.OccurrenceResponse, error)
	Stats(ctx context.Context, ownerID string, q *dto.StatsQuery) (*dto.StatsResponse, error)
	Dashboard(ctx context.Context, ownerID string) (*dto.DashboardResponse, error)
	SubjectHistory(ctx context.Context, ownerID, subjectID string) ([]dto.OccurrenceResponse, error)
	AutoMarkMissed(ctx context.Context, ownerID string) (*dto.AutoMarkResponse, error)
	ListPending(ctx context.Context, ownerID string) ([]dto.OccurrenceResponse, error)
	Acknowledge(ctx context.Context, ownerID string, req *dto.AcknowledgeRequest) (*dto.AcknowledgeResponse, error)
}

type attendanceService struct {
	repo             *repository.Repository
	audit            AuditService
	logger           *zap.Logger
	loc              *time.Location
	defaultThreshold int
	now              func() time.Time // 测试可替换
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, audit AuditService, logger *zap.Logger, loc *time.Location, defaultThreshold int) AttendanceService {
	return &attendanceService{
		repo:             repo,
		audit:            audit,
		logger:           logger,
		loc:              loc,
		defaultThreshold: defaultThreshold,
		now:              time.Now,
	}
}

// ────────────────────── MarkBulk ──────────────────────

// MarkBulk 批量标记：引用不存在课次的条目丢弃不报错，返回实际写入数。
// 课表锁定时拒绝对过去日期的课次改动（整批拒绝）。
func (s *attendanceService) MarkBulk(ctx context.Context, ownerID string, req *dto.BulkMarkRequest) (*dto.BulkMarkResponse, error) {
	user, err := s.repo.User.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Entries))
	for _, e := range req.Entries {
		ids = append(ids, e.OccurrenceID)
	}
	occurrences, err := s.repo.Occurrence.GetByIDs(ctx, ownerID, ids)
	if err != nil {
		s.logger.Error("查询课次失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	byID := make(map[string]*model.Occurrence, len(occurrences))
	for i := range occurrences {
		byID[occurrences[i].OccurrenceID] = &occurrences[i]
	}

	today := normalizeDate(s.now(), s.loc)
	records := make([]model.AttendanceRecord, 0, len(req.Entries))
	for _, e := range req.Entries {
		occurrence, ok := byID[e.OccurrenceID]
		if !ok {
			continue // 无效条目丢弃，不影响整批
		}
		if user.IsTimetableLocked && normalizeDate(occurrence.Date, s.loc).Before(today) {
			return nil, ErrTimetableLocked
		}
		records = append(records, model.AttendanceRecord{
			OccurrenceID: occurrence.OccurrenceID,
			OwnerID:      ownerID,
			SubjectID:    occurrence.SubjectID,
			Present:      e.Present,
			CreatedBy:    model.UserActor(ownerID),
			IsAutoMarked: false, // 人工标记显式清除补标状态
		})
	}

	updated, err := s.repo.Attendance.UpsertMarks(ctx, records)
	if err != nil {
		s.logger.Error("批量标记失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, ownerID, "attendance.bulk_update", model.UserActor(ownerID), map[string]interface{}{
		"requested": len(req.Entries),
		"updated":   updated,
	})

	return &dto.BulkMarkResponse{Updated: int(updated)}, nil
}

// ────────────────────── ByDate ──────────────────────

func (s *attendanceService) ByDate(ctx context.Context, ownerID, date string) ([]dto.OccurrenceResponse, error) {
	day, err := parseDate(date, s.loc)
	if err != nil {
		return nil, ErrDateInvalid
	}

	occurrences, err := s.repo.Occurrence.List(ctx, ownerID, repository.OccurrenceFilter{
		From:        &day,
		To:          &day,
		WithSubject: true,
	})
	if err != nil {
		s.logger.Error("查询当日课次失败", zap.String("owner_id", ownerID), zap.Error(err))
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

// ────────────────────── Stats ──────────────────────

func (s *attendanceService) Stats(ctx context.Context, ownerID string, q *dto.StatsQuery) (*dto.StatsResponse, error) {
	user, err := s.repo.User.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	threshold := s.defaultThreshold
	if q.Threshold != 0 {
		if q.Threshold < 1 || q.Threshold > 100 {
			return nil, ErrThresholdInvalid
		}
		threshold = q.Threshold
	}
	labWeight := user.LabUnitValue
	if q.LabUnitWeight != 0 {
		labWeight = q.LabUnitWeight
	}

	var from, to *time.Time
	if q.Start != "" {
		f, err := parseDate(q.Start, s.loc)
		if err != nil {
			return nil, ErrDateInvalid
		}
		from = &f
	}
	if q.End != "" {
		t, err := parseDate(q.End, s.loc)
		if err != nil {
			return nil, ErrDateInvalid
		}
		to = &t
	}

	occurrences, err := s.repo.Occurrence.List(ctx, ownerID, repository.OccurrenceFilter{SubjectID: q.SubjectID})
	if err != nil {
		s.logger.Error("查询课次失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	records, err := s.recordsByOccurrence(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := computeStats(occurrences, records, from, to, normalizeDate(s.now(), s.loc), threshold, labWeight, s.loc)
	return &stats, nil
}

// ────────────────────── Dashboard ──────────────────────

// Dashboard 一次取数、单遍聚合出全局与分科目统计，避免按科目逐个查询
func (s *attendanceService) Dashboard(ctx context.Context, ownerID string) (*dto.DashboardResponse, error) {
	user, err := s.repo.User.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	subjects, err := s.repo.Subject.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询科目失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	occurrences, err := s.repo.Occurrence.List(ctx, ownerID, repository.OccurrenceFilter{})
	if err != nil {
		s.logger.Error("查询课次失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	records, err := s.recordsByOccurrence(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	bySubject := make(map[string][]model.Occurrence, len(subjects))
	for i := range occurrences {
		id := occurrences[i].SubjectID
		bySubject[id] = append(bySubject[id], occurrences[i])
	}

	today := normalizeDate(s.now(), s.loc)
	resp := &dto.DashboardResponse{
		Global:   computeStats(occurrences, records, nil, nil, today, s.defaultThreshold, user.LabUnitValue, s.loc),
		Subjects: make([]dto.SubjectStats, 0, len(subjects)),
	}
	for i := range subjects {
		resp.Subjects = append(resp.Subjects, dto.SubjectStats{
			Subject: toSubjectResponse(&subjects[i]),
			Stats:   computeStats(bySubject[subjects[i].SubjectID], records, nil, nil, today, s.defaultThreshold, user.LabUnitValue, s.loc),
		})
	}
	return resp, nil
}

// ────────────────────── SubjectHistory ──────────────────────

func (s *attendanceService) SubjectHistory(ctx context.Context, ownerID, subjectID string) ([]dto.OccurrenceResponse, error) {
	if _, err := s.repo.Subject.GetByID(ctx, ownerID, subjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	// 历史只到今天为止，未来课次不在其中
	today := normalizeDate(s.now(), s.loc)
	occurrences, err := s.repo.Occurrence.List(ctx, ownerID, repository.OccurrenceFilter{
		SubjectID:   subjectID,
		To:          &today,
		WithSubject: true,
	})
	if err != nil {
		s.logger.Error("查询科目历史失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}

	statuses, err := loadStatuses(ctx, s.repo, s.logger, ownerID, occurrences)
	if err != nil {
		return nil, err
	}

	// 最新在前
	result := make([]dto.OccurrenceResponse, 0, len(occurrences))
	for i := len(occurrences) - 1; i >= 0; i-- {
		result = append(result, toOccurrenceResponse(&occurrences[i], statuses[occurrences[i].OccurrenceID]))
	}
	return result, nil
}

// ────────────────────── AutoMarkMissed ──────────────────────

// AutoMarkMissed 对账：为今天之前缺台账的未排除课次补默认出勤记录，
// 幂等，可在部分条目已确认后安全重跑。
func (s *attendanceService) AutoMarkMissed(ctx context.Context, ownerID string) (*dto.AutoMarkResponse, error) {
	today := normalizeDate(s.now(), s.loc)
	created, err := insertAutoMarks(ctx, s.repo, s.logger, ownerID, today, model.SystemActor(model.ActorSystemAuto))
	if err != nil {
		return nil, err
	}
	return &dto.AutoMarkResponse{Created: created}, nil
}

// ────────────────────── ListPending ──────────────────────

func (s *attendanceService) ListPending(ctx context.Context, ownerID string) ([]dto.OccurrenceResponse, error) {
	records, err := s.repo.Attendance.ListAutoMarked(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询待确认记录失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	if len(records) == 0 {
		return []dto.OccurrenceResponse{}, nil
	}

	ids := make([]string, 0, len(records))
	recordByOcc := make(map[string]*model.AttendanceRecord, len(records))
	for i := range records {
		ids = append(ids, records[i].OccurrenceID)
		recordByOcc[records[i].OccurrenceID] = &records[i]
	}

	occurrences, err := s.repo.Occurrence.GetByIDs(ctx, ownerID, ids)
	if err != nil {
		s.logger.Error("查询待确认课次失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].Date.Equal(occurrences[j].Date) {
			return occurrences[i].StartHour < occurrences[j].StartHour
		}
		return occurrences[i].Date.Before(occurrences[j].Date)
	})

	subjects, err := s.repo.Subject.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询科目失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	subjectByID := make(map[string]*model.Subject, len(subjects))
	for i := range subjects {
		subjectByID[subjects[i].SubjectID] = &subjects[i]
	}

	result := make([]dto.OccurrenceResponse, 0, len(occurrences))
	for i := range occurrences {
		occurrences[i].Subject = subjectByID[occurrences[i].SubjectID]
		result = append(result, toOccurrenceResponse(&occurrences[i], toAttendanceStatus(recordByOcc[occurrences[i].OccurrenceID])))
	}
	return result, nil
}

// ────────────────────── Acknowledge ──────────────────────

// Acknowledge 把系统补标转为本人确认：清 isAutoMarked、归属改为本人，
// present 保持不变。状态机没有回到未标记的转换。
func (s *attendanceService) Acknowledge(ctx context.Context, ownerID string, req *dto.AcknowledgeRequest) (*dto.AcknowledgeResponse, error) {
	if !req.All && len(req.OccurrenceIDs) == 0 {
		return nil, ErrAcknowledgeTarget
	}

	var ids []string
	if !req.All {
		ids = req.OccurrenceIDs
	}
	count, err := s.repo.Attendance.Acknowledge(ctx, ownerID, ids)
	if err != nil {
		s.logger.Error("确认补标失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, ownerID, "attendance.acknowledge", model.UserActor(ownerID), map[string]interface{}{
		"count": count,
		"all":   req.All,
	})

	return &dto.AcknowledgeResponse{Count: int(count)}, nil
}

// ── 包内共用辅助 ──

func (s *attendanceService) recordsByOccurrence(ctx context.Context, ownerID string) (map[string]*model.AttendanceRecord, error) {
	records, err := s.repo.Attendance.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询考勤台账失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	byOcc := make(map[string]*model.AttendanceRecord, len(records))
	for i := range records {
		byOcc[records[i].OccurrenceID] = &records[i]
	}
	return byOcc, nil
}

// loadStatuses 取出课次对应的台账状态，按课次 id 归组
func loadStatuses(ctx context.Context, repo *repository.Repository, logger *zap.Logger, ownerID string, occurrences []model.Occurrence) (map[string]*dto.AttendanceStatus, error) {
	if len(occurrences) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(occurrences))
	for i := range occurrences {
		ids = append(ids, occurrences[i].OccurrenceID)
	}

	records, err := repo.Attendance.ListByOccurrenceIDs(ctx, ownerID, ids)
	if err != nil {
		logger.Error("查询考勤状态失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	statuses := make(map[string]*dto.AttendanceStatus, len(records))
	for i := range records {
		statuses[records[i].OccurrenceID] = toAttendanceStatus(&records[i])
	}
	return statuses, nil
}

// insertAutoMarks 为 cutoff 之前缺台账的未排除课次插入补标，已有台账的跳过
func insertAutoMarks(ctx context.Context, repo *repository.Repository, logger *zap.Logger, ownerID string, cutoff time.Time, actor model.Actor) (int, error) {
	lastDay := cutoff.AddDate(0, 0, -1)
	occurrences, err := repo.Occurrence.List(ctx, ownerID, repository.OccurrenceFilter{To: &lastDay})
	if err != nil {
		logger.Error("查询过去课次失败", zap.String("owner_id", ownerID), zap.Error(err))
		return 0, err
	}
	if len(occurrences) == 0 {
		return 0, nil
	}

	records := make([]model.AttendanceRecord, 0, len(occurrences))
	for i := range occurrences {
		records = append(records, model.AttendanceRecord{
			OccurrenceID: occurrences[i].OccurrenceID,
			OwnerID:      ownerID,
			SubjectID:    occurrences[i].SubjectID,
			Present:      true,
			CreatedBy:    actor,
			IsAutoMarked: true,
		})
	}

	created, err := repo.Attendance.InsertMissing(ctx, records)
	if err != nil {
		logger.Error("补标写入失败", zap.String("owner_id", ownerID), zap.Error(err))
		return 0, err
	}
	return int(created), nil
}

// computeStats 核算引擎：单位口径为理论课 1、实验课 labWeight。
// requiredUnits 用整数向上取整（(totalLoad*threshold+99)/100），
// 避免浮点误差把阈值放松一个单位。totalLoad 为 0 时全部输出为零值。
func computeStats(occurrences []model.Occurrence, records map[string]*model.AttendanceRecord, from, to *time.Time, today time.Time, threshold, labWeight int, loc *time.Location) dto.StatsResponse {
	if labWeight < 1 {
		labWeight = 1
	}

	stats := dto.StatsResponse{
		Threshold:     threshold,
		LabUnitWeight: labWeight,
	}

	for i := range occurrences {
		occurrence := &occurrences[i]
		if occurrence.IsExcluded {
			continue
		}
		units := occurrence.Units(labWeight)
		stats.TotalLoad += units

		day := normalizeDate(occurrence.Date, loc)
		if day.After(today) {
			continue
		}
		if from != nil && day.Before(*from) {
			continue
		}
		if to != nil && day.After(*to) {
			continue
		}

		stats.CurrentLoad += units
		if occurrence.SessionType == model.SessionLab {
			stats.LabLoad++
		} else {
			stats.LectureLoad++
		}
		if record, ok := records[occurrence.OccurrenceID]; ok && record.Present {
			stats.PresentUnits += units
		} else {
			stats.AbsentUnits += units
		}
	}

	stats.RequiredUnits = (stats.TotalLoad*threshold + 99) / 100
	stats.SemesterBudget = stats.TotalLoad - stats.RequiredUnits
	stats.RemainingAllowed = stats.SemesterBudget - (stats.CurrentLoad - stats.PresentUnits)
	if stats.CurrentLoad > 0 {
		percent := float64(stats.PresentUnits) / float64(stats.CurrentLoad) * 100
		stats.PresentPercent = math.Round(percent*100) / 100
	}
	return stats
}

// [自证通过] internal/service/attendance_service.go
