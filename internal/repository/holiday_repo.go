package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/AryanVadhadiya/attendex/internal/model"
)

// HolidayRepository 假期数据访问接口
type HolidayRepository interface {
	Create(ctx context.Context, holiday *model.HolidayRange) error
	CreateBatch(ctx context.Context, holidays []model.HolidayRange) error
	// Replace 整组替换假期（随发布提交假期时使用）
	Replace(ctx context.Context, ownerID string, holidays []model.HolidayRange) ([]model.HolidayRange, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.HolidayRange, error)
	// Delete 返回被删除的假期，便于调用方恢复区间内的课次
	Delete(ctx context.Context, ownerID, id string) (*model.HolidayRange, error)
}

type holidayRepo struct {
	db *gorm.DB
}

func NewHolidayRepo(db *gorm.DB) HolidayRepository {
	return &holidayRepo{db: db}
}

func (r *holidayRepo) Create(ctx context.Context, holiday *model.HolidayRange) error {
	return r.db.WithContext(ctx).Create(holiday).Error
}

func (r *holidayRepo) CreateBatch(ctx context.Context, holidays []model.HolidayRange) error {
	if len(holidays) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&holidays).Error
}

func (r *holidayRepo) Replace(ctx context.Context, ownerID string, holidays []model.HolidayRange) ([]model.HolidayRange, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", ownerID).Delete(&model.HolidayRange{}).Error; err != nil {
			return err
		}
		if len(holidays) == 0 {
			return nil
		}
		return tx.Create(&holidays).Error
	})
	if err != nil {
		return nil, err
	}
	return holidays, nil
}

func (r *holidayRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.HolidayRange, error) {
	var holidays []model.HolidayRange
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("start_date ASC").
		Find(&holidays).Error
	return holidays, err
}

func (r *holidayRepo) Delete(ctx context.Context, ownerID, id string) (*model.HolidayRange, error) {
	var holiday model.HolidayRange
	err := r.db.WithContext(ctx).
		Where("holiday_range_id = ? AND owner_id = ?", id, ownerID).
		First(&holiday).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&holiday).Error; err != nil {
		return nil, err
	}
	return &holiday, nil
}

// [自证通过] internal/repository/holiday_repo.go
