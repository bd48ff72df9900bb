package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/AryanVadhadiya/attendex/internal/dto"
	"github.com/AryanVadhadiya/attendex/internal/model"
)

// ── 测试辅助 ──

// 固定"今天"为 2026-01-15，避免用例随真实时间漂移
var testToday = time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)

func setupTestTimetableService() (TimetableService, *testRepos) {
	repo, mocks := newTestRepos()
	logger := zap.NewNop()
	audit := NewAuditService(repo, logger)
	expander := NewOccurrenceService(repo, logger, time.UTC)
	svc := NewTimetableService(repo, expander, audit, logger, time.UTC)
	svc.(*timetableService).now = func() time.Time { return testToday }
	return svc, mocks
}

func seedOwner(mocks *testRepos) *model.User {
	user := &model.User{
		UserID:          "owner-1",
		Name:            "测试学生",
		Email:           "student@test.com",
		Role:            "student",
		LabUnitStrategy: "standard",
		LabUnitValue:    1,
	}
	mocks.user.users[user.UserID] = user
	mocks.subject.subjects = append(mocks.subject.subjects, &model.Subject{
		SubjectID: "sub-1", OwnerID: "owner-1", Name: "数据结构", Color: "#3b82f6",
	})
	return user
}

func seedMondaySlot(mocks *testRepos) {
	mocks.weeklySlot.slots = append(mocks.weeklySlot.slots, model.WeeklySlot{
		WeeklySlotID: "slot-1", OwnerID: "owner-1", SubjectID: "sub-1",
		DayOfWeek: 1, StartHour: 10, DurationHours: 1, SessionType: model.SessionLecture,
	})
}

// ── Publish 测试 ──

func TestTimetableService_Publish_InitialFutureStart(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	user := seedOwner(mocks)
	seedMondaySlot(mocks)

	// 全部在未来，不需要补标确认；2026-02 的周一为 2、9、16、23
	resp, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate: "2026-02-01",
		EndDate:   "2026-02-28",
	})
	if err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	if resp.Mode != PublishModeInitial {
		t.Errorf("期望 mode=initial，实际=%s", resp.Mode)
	}
	if resp.RequiresConfirmation || resp.RequiresForceReset {
		t.Error("未来窗口的首次发布不应要求确认")
	}
	if resp.OccurrencesWritten != 4 {
		t.Errorf("期望写入 4 个课次，实际=%d", resp.OccurrencesWritten)
	}
	if resp.AutoMarkedCount != 0 {
		t.Errorf("未来窗口不应补标，实际=%d", resp.AutoMarkedCount)
	}
	if user.SemesterStartDate == nil || !user.SemesterStartDate.Equal(date(2026, 2, 1)) {
		t.Error("发布后应更新学期窗口起始日")
	}
}

func TestTimetableService_Publish_PastStartRequiresConfirmation(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)
	seedMondaySlot(mocks)

	resp, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
	})
	if err != nil {
		t.Fatalf("确认信号不应作为错误返回: %v", err)
	}
	if !resp.RequiresConfirmation {
		t.Error("起始日早于今天应要求补标确认")
	}
	if len(mocks.occurrence.occurrences) != 0 {
		t.Errorf("确认前不应写入任何课次，实际=%d", len(mocks.occurrence.occurrences))
	}
	if len(mocks.attendance.records) != 0 {
		t.Errorf("确认前不应写入任何台账，实际=%d", len(mocks.attendance.records))
	}
}

func TestTimetableService_Publish_InitialWithAutoMark(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)
	seedMondaySlot(mocks)

	// 周一 5、12、19、26；假期 5 号被跳过；今天 15 号之前只剩 12 号待补标
	resp, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate:       "2026-01-01",
		EndDate:         "2026-01-31",
		Holidays:        []dto.HolidayInput{{StartDate: "2026-01-05", Reason: "Makar Sankranti 前补假"}},
		ConfirmAutoMark: true,
	})
	if err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	if resp.Mode != PublishModeInitial {
		t.Errorf("期望 mode=initial，实际=%s", resp.Mode)
	}
	if resp.OccurrencesWritten != 3 {
		t.Errorf("假期日应跳过，期望写入 3 个课次，实际=%d", resp.OccurrencesWritten)
	}
	if resp.AutoMarkedCount != 1 {
		t.Errorf("期望补标 1 条，实际=%d", resp.AutoMarkedCount)
	}

	record := &mocks.attendance.records[0]
	if !record.Present || !record.IsAutoMarked {
		t.Error("补标记录应为 present=true 且 is_auto_marked=true")
	}
	if record.CreatedBy.Kind != model.ActorSystem {
		t.Errorf("发布补标的写入方应为 system，实际=%s", record.CreatedBy)
	}
}

func TestTimetableService_Publish_StartChangeRequiresForceReset(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	user := seedOwner(mocks)
	seedMondaySlot(mocks)

	prevStart, prevEnd := date(2026, 1, 1), date(2026, 1, 31)
	user.SemesterStartDate, user.SemesterEndDate = &prevStart, &prevEnd
	mocks.attendance.records = append(mocks.attendance.records, model.AttendanceRecord{
		AttendanceRecordID: "att-1", OccurrenceID: "occ-old", OwnerID: "owner-1",
		SubjectID: "sub-1", Present: true, CreatedBy: model.UserActor("owner-1"),
	})

	resp, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate: "2026-01-08",
		EndDate:   "2026-01-31",
	})
	if err != nil {
		t.Fatalf("确认信号不应作为错误返回: %v", err)
	}
	if !resp.RequiresForceReset {
		t.Error("起始日变更应要求 force_reset 确认")
	}
	if len(mocks.attendance.records) != 1 {
		t.Error("确认前不应清空台账")
	}
}

func TestTimetableService_Publish_ResetClearsLedger(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	user := seedOwner(mocks)
	seedMondaySlot(mocks)

	prevStart, prevEnd := date(2026, 1, 1), date(2026, 1, 31)
	user.SemesterStartDate, user.SemesterEndDate = &prevStart, &prevEnd
	mocks.occurrence.occurrences = append(mocks.occurrence.occurrences, model.Occurrence{
		OccurrenceID: "occ-old", OwnerID: "owner-1", SubjectID: "sub-1",
		Date: date(2026, 1, 5), StartHour: 10, DurationHours: 1, SessionType: model.SessionLecture,
	})
	mocks.attendance.records = append(mocks.attendance.records, model.AttendanceRecord{
		AttendanceRecordID: "att-1", OccurrenceID: "occ-old", OwnerID: "owner-1",
		SubjectID: "sub-1", Present: false, CreatedBy: model.UserActor("owner-1"),
	})

	resp, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate:       "2026-02-01",
		EndDate:         "2026-02-28",
		ForceReset:      true,
		ConfirmAutoMark: true,
	})
	if err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	if resp.Mode != PublishModeReset {
		t.Errorf("期望 mode=reset，实际=%s", resp.Mode)
	}
	for _, r := range mocks.attendance.records {
		if r.OccurrenceID == "occ-old" {
			t.Error("重置后旧台账应被清空")
		}
	}
	for _, o := range mocks.occurrence.occurrences {
		if o.OccurrenceID == "occ-old" {
			t.Error("重置后旧课次应被清空")
		}
	}
}

func TestTimetableService_Publish_ExtendedKeepsLedger(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)
	seedMondaySlot(mocks)

	// 先完成首次发布（窗口跨过今天，补标确认给足）
	if _, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate:       "2026-01-01",
		EndDate:         "2026-01-31",
		ConfirmAutoMark: true,
	}); err != nil {
		t.Fatalf("首次发布应成功: %v", err)
	}
	ledgerBefore := len(mocks.attendance.records)
	if ledgerBefore == 0 {
		t.Fatal("首次发布应产生补标台账")
	}

	resp, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate: "2026-01-01",
		EndDate:   "2026-02-28",
	})
	if err != nil {
		t.Fatalf("延长发布应成功: %v", err)
	}
	if resp.Mode != PublishModeExtended {
		t.Errorf("期望 mode=extended，实际=%s", resp.Mode)
	}
	if resp.AppendWindow == nil {
		t.Fatal("延长发布应返回追加窗口")
	}
	if resp.AppendWindow.From != "2026-02-01" || resp.AppendWindow.To != "2026-02-28" {
		t.Errorf("追加窗口应为 2026-02-01..2026-02-28，实际=%s..%s",
			resp.AppendWindow.From, resp.AppendWindow.To)
	}
	if len(mocks.attendance.records) != ledgerBefore {
		t.Errorf("延长发布不应改动已有台账，期望 %d 条，实际=%d", ledgerBefore, len(mocks.attendance.records))
	}
}

func TestTimetableService_Publish_RepublishKeepsAdhoc(t *testing.T) {
	repo, mocks := newTestRepos()
	logger := zap.NewNop()
	audit := NewAuditService(repo, logger)
	expander := NewOccurrenceService(repo, logger, time.UTC)
	timetable := NewTimetableService(repo, expander, audit, logger, time.UTC)
	timetable.(*timetableService).now = func() time.Time { return testToday }
	attendance := NewAttendanceService(repo, audit, logger, time.UTC, 75)
	attendance.(*attendanceService).now = func() time.Time { return testToday }

	seedOwner(mocks)
	seedMondaySlot(mocks)
	ctx := context.Background()

	if _, err := timetable.Publish(ctx, "owner-1", &dto.PublishRequest{
		StartDate: "2026-02-01",
		EndDate:   "2026-02-28",
	}); err != nil {
		t.Fatalf("首次发布应成功: %v", err)
	}

	present := true
	extra, err := timetable.AddExtraClass(ctx, "owner-1", &dto.AddExtraClassRequest{
		SubjectID:   "sub-1",
		Date:        "2026-02-10",
		StartHour:   15,
		SessionType: model.SessionLecture,
		Present:     &present,
	})
	if err != nil {
		t.Fatalf("AddExtraClass 应成功: %v", err)
	}

	// 临时加课不经展开产生，重发布的预排除不得波及它
	assertAdhocActive := func(step string) {
		t.Helper()
		for i := range mocks.occurrence.occurrences {
			o := &mocks.occurrence.occurrences[i]
			if o.OccurrenceID == extra.ID {
				if o.IsExcluded {
					t.Fatalf("%s后临时加课被置为排除态", step)
				}
				return
			}
		}
		t.Fatalf("%s后临时加课行丢失", step)
	}

	// 同窗口重发布
	resp, err := timetable.Publish(ctx, "owner-1", &dto.PublishRequest{
		StartDate: "2026-02-01",
		EndDate:   "2026-02-28",
	})
	if err != nil {
		t.Fatalf("refresh 发布应成功: %v", err)
	}
	if resp.Mode != PublishModeRefresh {
		t.Errorf("期望 mode=refresh，实际=%s", resp.Mode)
	}
	assertAdhocActive("refresh 发布")

	// 延长窗口
	if _, err := timetable.Publish(ctx, "owner-1", &dto.PublishRequest{
		StartDate: "2026-02-01",
		EndDate:   "2026-03-31",
	}); err != nil {
		t.Fatalf("延长发布应成功: %v", err)
	}
	assertAdhocActive("extended 发布")

	// 仍参与计量：2 月周一 4 次 + 3 月周一 5 次 + 加课 1 次
	stats, err := attendance.Stats(ctx, "owner-1", &dto.StatsQuery{})
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}
	if stats.TotalLoad != 10 {
		t.Errorf("期望 totalLoad=10（含临时加课），实际=%d", stats.TotalLoad)
	}

	// 仍出现在课次列表中
	listed, err := timetable.ListOccurrences(ctx, "owner-1", &dto.OccurrenceQuery{})
	if err != nil {
		t.Fatalf("ListOccurrences 应成功: %v", err)
	}
	found := false
	for i := range listed {
		if listed[i].ID == extra.ID {
			found = true
		}
	}
	if !found {
		t.Error("重发布后课次列表应仍包含临时加课")
	}

	// 对应台账原样保留
	if len(mocks.attendance.records) != 1 || mocks.attendance.records[0].OccurrenceID != extra.ID {
		t.Errorf("重发布不应改动临时加课的台账，实际共 %d 条", len(mocks.attendance.records))
	}
}

func TestTimetableService_Publish_TrimBeforeTodayRejected(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	user := seedOwner(mocks)
	seedMondaySlot(mocks)

	prevStart, prevEnd := date(2026, 1, 1), date(2026, 3, 31)
	user.SemesterStartDate, user.SemesterEndDate = &prevStart, &prevEnd

	_, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate: "2026-01-01",
		EndDate:   "2026-01-10",
	})
	if !errors.Is(err, ErrTrimBeforeToday) {
		t.Errorf("期望 ErrTrimBeforeToday，实际: %v", err)
	}
}

func TestTimetableService_Publish_TrimWithAttendanceRejected(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	user := seedOwner(mocks)
	seedMondaySlot(mocks)

	prevStart, prevEnd := date(2026, 1, 1), date(2026, 3, 31)
	user.SemesterStartDate, user.SemesterEndDate = &prevStart, &prevEnd

	// 截短点之后已有考勤：2/16 的周一课带一条出勤记录
	mocks.occurrence.occurrences = append(mocks.occurrence.occurrences, model.Occurrence{
		OccurrenceID: "occ-late", OwnerID: "owner-1", SubjectID: "sub-1",
		Date: date(2026, 2, 16), StartHour: 10, DurationHours: 1, SessionType: model.SessionLecture,
	})
	mocks.attendance.records = append(mocks.attendance.records, model.AttendanceRecord{
		AttendanceRecordID: "att-1", OccurrenceID: "occ-late", OwnerID: "owner-1",
		SubjectID: "sub-1", Present: true, CreatedBy: model.UserActor("owner-1"),
	})
	before := len(mocks.occurrence.occurrences)

	_, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
	})
	if !errors.Is(err, ErrTrimHasAttendance) {
		t.Errorf("期望 ErrTrimHasAttendance，实际: %v", err)
	}
	if len(mocks.occurrence.occurrences) != before {
		t.Error("截短被拒绝时不应删除任何课次")
	}
}

func TestTimetableService_Publish_TrimmedRemovesTail(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)
	seedMondaySlot(mocks)

	if _, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate:       "2026-01-01",
		EndDate:         "2026-03-31",
		ConfirmAutoMark: true,
	}); err != nil {
		t.Fatalf("首次发布应成功: %v", err)
	}

	resp, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
	})
	if err != nil {
		t.Fatalf("截短发布应成功: %v", err)
	}
	if resp.Mode != PublishModeTrimmed {
		t.Errorf("期望 mode=trimmed，实际=%s", resp.Mode)
	}
	if resp.TrimmedInfo == nil || resp.TrimmedInfo.Removed == 0 {
		t.Error("截短发布应报告删除的课次数")
	}
	for _, o := range mocks.occurrence.occurrences {
		if o.Date.After(date(2026, 1, 31)) {
			t.Errorf("截短后不应残留 %s 的课次", o.Date.Format("2006-01-02"))
		}
	}
}

func TestTimetableService_Publish_LockedRejected(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	user := seedOwner(mocks)
	user.IsTimetableLocked = true

	_, err := svc.Publish(context.Background(), "owner-1", &dto.PublishRequest{
		StartDate: "2026-02-01",
		EndDate:   "2026-02-28",
	})
	if !errors.Is(err, ErrTimetableLocked) {
		t.Errorf("期望 ErrTimetableLocked，实际: %v", err)
	}
}

func TestTimetableService_Publish_InvalidDates(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)

	cases := []dto.PublishRequest{
		{StartDate: "not-a-date", EndDate: "2026-02-28"},
		{StartDate: "2026-02-01", EndDate: "oops"},
		{StartDate: "2026-02-28", EndDate: "2026-02-01"},
	}
	for _, req := range cases {
		if _, err := svc.Publish(context.Background(), "owner-1", &req); !errors.Is(err, ErrPublishDateInvalid) {
			t.Errorf("期望 ErrPublishDateInvalid，实际: %v", err)
		}
	}
}

// ── SaveTemplate 测试 ──

func TestTimetableService_SaveTemplate_Success(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)

	result, err := svc.SaveTemplate(context.Background(), "owner-1", &dto.SaveTimetableRequest{
		Slots: []dto.WeeklySlotInput{
			{SubjectID: "sub-1", DayOfWeek: 1, StartHour: 10, DurationHours: 1, SessionType: model.SessionLecture},
			{SubjectID: "sub-1", DayOfWeek: 3, StartHour: 14, DurationHours: 2, SessionType: model.SessionLab},
		},
	})
	if err != nil {
		t.Fatalf("SaveTemplate 应成功: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("期望 2 行模板，实际=%d", len(result))
	}
	if result[1].SessionType != model.SessionLab {
		t.Errorf("期望第二行为 lab，实际=%s", result[1].SessionType)
	}
}

func TestTimetableService_SaveTemplate_UnknownSubject(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)

	_, err := svc.SaveTemplate(context.Background(), "owner-1", &dto.SaveTimetableRequest{
		Slots: []dto.WeeklySlotInput{
			{SubjectID: "sub-other", DayOfWeek: 1, StartHour: 10, DurationHours: 1, SessionType: model.SessionLecture},
		},
	})
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("期望 ErrSubjectNotFound，实际: %v", err)
	}
}

func TestTimetableService_SaveTemplate_LockedRejected(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	user := seedOwner(mocks)
	user.IsTimetableLocked = true

	_, err := svc.SaveTemplate(context.Background(), "owner-1", &dto.SaveTimetableRequest{})
	if !errors.Is(err, ErrTimetableLocked) {
		t.Errorf("期望 ErrTimetableLocked，实际: %v", err)
	}
}

// ── AddExtraClass / RemoveExtraClass 测试 ──

func TestTimetableService_AddExtraClass_WithPresent(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)

	present := true
	resp, err := svc.AddExtraClass(context.Background(), "owner-1", &dto.AddExtraClassRequest{
		SubjectID:   "sub-1",
		Date:        "2026-01-16",
		StartHour:   15,
		SessionType: model.SessionLecture,
		Present:     &present,
	})
	if err != nil {
		t.Fatalf("AddExtraClass 应成功: %v", err)
	}
	if !resp.IsAdhoc {
		t.Error("临时加课应标记为 adhoc")
	}
	if resp.Status == nil || !resp.Status.Present {
		t.Error("携带 present 时应立即写入台账")
	}
	if len(mocks.attendance.records) != 1 {
		t.Fatalf("期望 1 条台账，实际=%d", len(mocks.attendance.records))
	}
	if mocks.attendance.records[0].CreatedBy.Kind != model.ActorUser {
		t.Error("临时加课的标记写入方应为用户本人")
	}
}

func TestTimetableService_AddExtraClass_LockedPastDate(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	user := seedOwner(mocks)
	user.IsTimetableLocked = true

	_, err := svc.AddExtraClass(context.Background(), "owner-1", &dto.AddExtraClassRequest{
		SubjectID:   "sub-1",
		Date:        "2026-01-10",
		StartHour:   9,
		SessionType: model.SessionLecture,
	})
	if !errors.Is(err, ErrTimetableLocked) {
		t.Errorf("锁定时向过去日期加课应被拒绝，实际: %v", err)
	}
}

func TestTimetableService_RemoveExtraClass_NotAdhoc(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)
	mocks.occurrence.occurrences = append(mocks.occurrence.occurrences, model.Occurrence{
		OccurrenceID: "occ-1", OwnerID: "owner-1", SubjectID: "sub-1",
		Date: date(2026, 1, 12), StartHour: 10, DurationHours: 1, SessionType: model.SessionLecture,
	})

	err := svc.RemoveExtraClass(context.Background(), "owner-1", "occ-1")
	if !errors.Is(err, ErrNotAdhoc) {
		t.Errorf("期望 ErrNotAdhoc，实际: %v", err)
	}
}

func TestTimetableService_RemoveExtraClass_DeletesLedger(t *testing.T) {
	svc, mocks := setupTestTimetableService()
	seedOwner(mocks)
	mocks.occurrence.occurrences = append(mocks.occurrence.occurrences, model.Occurrence{
		OccurrenceID: "occ-1", OwnerID: "owner-1", SubjectID: "sub-1",
		Date: date(2026, 1, 16), StartHour: 15, DurationHours: 1,
		SessionType: model.SessionLecture, IsAdhoc: true,
	})
	mocks.attendance.records = append(mocks.attendance.records, model.AttendanceRecord{
		AttendanceRecordID: "att-1", OccurrenceID: "occ-1", OwnerID: "owner-1",
		SubjectID: "sub-1", Present: true, CreatedBy: model.UserActor("owner-1"),
	})

	if err := svc.RemoveExtraClass(context.Background(), "owner-1", "occ-1"); err != nil {
		t.Fatalf("RemoveExtraClass 应成功: %v", err)
	}
	if len(mocks.occurrence.occurrences) != 0 {
		t.Error("课次应被删除")
	}
	if len(mocks.attendance.records) != 0 {
		t.Error("对应台账应一并删除")
	}
}
