package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/AryanVadhadiya/attendex/internal/dto"
)

// ── 测试辅助 ──

func setupTestSubjectService() (SubjectService, *testRepos) {
	repo, mocks := newTestRepos()
	svc := NewSubjectService(repo, zap.NewNop())
	return svc, mocks
}

// ── CRUD 测试 ──

func TestSubjectService_Create_DefaultColor(t *testing.T) {
	svc, _ := setupTestSubjectService()

	resp, err := svc.Create(context.Background(), "owner-1", &dto.CreateSubjectRequest{
		Name:            "数据结构",
		Code:            "CS201",
		LecturesPerWeek: 3,
		LabsPerWeek:     1,
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Name != "数据结构" || resp.Code != "CS201" {
		t.Errorf("期望 数据结构/CS201，实际=%s/%s", resp.Name, resp.Code)
	}
	if resp.Color != "#3b82f6" {
		t.Errorf("未指定颜色应取默认值，实际=%s", resp.Color)
	}
}

func TestSubjectService_Create_CustomColor(t *testing.T) {
	svc, _ := setupTestSubjectService()

	resp, err := svc.Create(context.Background(), "owner-1", &dto.CreateSubjectRequest{
		Name:  "操作系统",
		Color: "#ef4444",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Color != "#ef4444" {
		t.Errorf("期望 Color=#ef4444，实际=%s", resp.Color)
	}
}

func TestSubjectService_GetByID_OwnerScoped(t *testing.T) {
	svc, _ := setupTestSubjectService()

	created, err := svc.Create(context.Background(), "owner-1", &dto.CreateSubjectRequest{Name: "数据结构"})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	// 其他用户不可见
	_, err = svc.GetByID(context.Background(), "owner-2", created.ID)
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("跨用户查询期望 ErrSubjectNotFound，实际: %v", err)
	}

	resp, err := svc.GetByID(context.Background(), "owner-1", created.ID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if resp.Name != "数据结构" {
		t.Errorf("期望 Name=数据结构，实际=%s", resp.Name)
	}
}

func TestSubjectService_Update_PartialFields(t *testing.T) {
	svc, _ := setupTestSubjectService()

	created, err := svc.Create(context.Background(), "owner-1", &dto.CreateSubjectRequest{
		Name: "数据结构", Code: "CS201",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	newName := "高级数据结构"
	resp, err := svc.Update(context.Background(), "owner-1", created.ID, &dto.UpdateSubjectRequest{
		Name: &newName,
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Name != "高级数据结构" {
		t.Errorf("期望 Name=高级数据结构，实际=%s", resp.Name)
	}
	if resp.Code != "CS201" {
		t.Errorf("未提供的字段不应改动，实际 Code=%s", resp.Code)
	}
}

func TestSubjectService_Delete_Success(t *testing.T) {
	svc, mocks := setupTestSubjectService()

	created, err := svc.Create(context.Background(), "owner-1", &dto.CreateSubjectRequest{Name: "数据结构"})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if err := svc.Delete(context.Background(), "owner-1", created.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if len(mocks.subject.subjects) != 0 {
		t.Error("科目应被删除")
	}

	if err := svc.Delete(context.Background(), "owner-1", created.ID); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("重复删除期望 ErrSubjectNotFound，实际: %v", err)
	}
}
