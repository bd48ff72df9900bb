package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/AryanVadhadiya/attendex/config"
	"github.com/AryanVadhadiya/attendex/internal/dto"
	"github.com/AryanVadhadiya/attendex/internal/model"
	"github.com/AryanVadhadiya/attendex/pkg/jwt"
)

// ── 测试辅助 ──

func setupTestAuthService() (AuthService, *testRepos) {
	repo, mocks := newTestRepos()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-1234567890",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 168 * time.Hour,
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	// rdb 为 nil：黑名单降级，服务仍可用
	svc := NewAuthService(cfg, repo, jwtMgr, nil, zap.NewNop())
	return svc, mocks
}

// ── Register 测试 ──

func TestAuthService_Register_Success(t *testing.T) {
	svc, mocks := setupTestAuthService()

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "测试学生",
		Email:    "student@test.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("注册成功应同时签发两种令牌")
	}
	if resp.User.Role != "student" {
		t.Errorf("新用户角色应为 student，实际=%s", resp.User.Role)
	}
	if resp.User.LabUnitStrategy != "standard" || resp.User.LabUnitValue != 1 {
		t.Errorf("新用户计量应为 standard/1，实际=%s/%d", resp.User.LabUnitStrategy, resp.User.LabUnitValue)
	}

	user, err := mocks.user.GetByEmail(context.Background(), "student@test.com")
	if err != nil {
		t.Fatalf("注册后应能按邮箱查到用户: %v", err)
	}
	if user.PasswordHash == "password123" {
		t.Error("密码不应明文存储")
	}
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	svc, _ := setupTestAuthService()

	req := &dto.RegisterRequest{Name: "测试学生", Email: "dup@test.com", Password: "password123"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("首次注册应成功: %v", err)
	}
	_, err := svc.Register(context.Background(), req)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际: %v", err)
	}
}

// ── Login 测试 ──

func TestAuthService_Login_Success(t *testing.T) {
	svc, mocks := setupTestAuthService()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	mocks.user.users["owner-1"] = &model.User{
		UserID: "owner-1", Name: "测试学生", Email: "student@test.com",
		PasswordHash: string(hash), Role: "student",
		LabUnitStrategy: "standard", LabUnitValue: 1,
	}

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "student@test.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if resp.User.ID != "owner-1" {
		t.Errorf("期望用户 owner-1，实际=%s", resp.User.ID)
	}
	if resp.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Errorf("ExpiresIn 应为 access token 有效秒数，实际=%d", resp.ExpiresIn)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, mocks := setupTestAuthService()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	mocks.user.users["owner-1"] = &model.User{
		UserID: "owner-1", Email: "student@test.com", PasswordHash: string(hash),
	}

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "student@test.com",
		Password: "wrong-password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "ghost@test.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("未注册邮箱与错误密码应返回同一错误，实际: %v", err)
	}
}

// ── Refresh 测试 ──

func TestAuthService_Refresh_Success(t *testing.T) {
	svc, _ := setupTestAuthService()

	registered, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "测试学生", Email: "student@test.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: registered.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("刷新应签发新的令牌对")
	}
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	svc, _ := setupTestAuthService()

	registered, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "测试学生", Email: "student@test.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}

	// 用 access token 换取新令牌应被拒绝
	_, err = svc.Refresh(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: registered.AccessToken,
	})
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("期望 ErrRefreshInvalid，实际: %v", err)
	}
}

func TestAuthService_Refresh_GarbageToken(t *testing.T) {
	svc, _ := setupTestAuthService()

	_, err := svc.Refresh(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: "not-a-jwt",
	})
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("期望 ErrRefreshInvalid，实际: %v", err)
	}
}

// ── Logout / Me 测试 ──

func TestAuthService_Logout_InvalidTokenIdempotent(t *testing.T) {
	svc, _ := setupTestAuthService()

	if err := svc.Logout(context.Background(), "garbage-token"); err != nil {
		t.Errorf("注销无效令牌应幂等成功，实际: %v", err)
	}
}

func TestAuthService_Me_NotFound(t *testing.T) {
	svc, _ := setupTestAuthService()

	_, err := svc.Me(context.Background(), "user-ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
