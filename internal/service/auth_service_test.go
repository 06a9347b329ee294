package service

import (
	"context"
	"errors"
	"testing"

	"classbell/internal/dto"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	user, err := f.svc.Auth.Register(ctx, &dto.RegisterRequest{
		Username: "carol",
		Password: "password123",
		Timezone: "Asia/Shanghai",
	})
	if err != nil {
		t.Fatalf("Register 失败: %v", err)
	}
	if user.Timezone != "Asia/Shanghai" {
		t.Errorf("时区错误: %s", user.Timezone)
	}
	if stored := f.users.users[user.ID]; stored == nil || stored.PasswordHash == "password123" {
		t.Fatal("密码应以哈希存储")
	}

	tokens, err := f.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "carol", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	claims, err := f.jwtMgr.ParseToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}
	if claims.UserID != user.ID || claims.Timezone != "Asia/Shanghai" {
		t.Errorf("Claims 错误: %+v", claims)
	}
	if tokens.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn 期望 3600，实际 %d", tokens.ExpiresIn)
	}
}

func TestAuthService_Register_DefaultTimezone(t *testing.T) {
	f := newFixture(true)

	user, err := f.svc.Auth.Register(context.Background(), &dto.RegisterRequest{Username: "dave", Password: "password123"})
	if err != nil {
		t.Fatalf("Register 失败: %v", err)
	}
	if user.Timezone != f.cfg.Reminder.Timezone {
		t.Errorf("未填写时区时应使用默认时区，实际 %s", user.Timezone)
	}
}

func TestAuthService_Register_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	if _, err := f.svc.Auth.Register(ctx, &dto.RegisterRequest{Username: "alice", Password: "password123"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("期望 ErrUsernameTaken，实际 %v", err)
	}
	if _, err := f.svc.Auth.Register(ctx, &dto.RegisterRequest{Username: "erin", Password: "password123", Timezone: "Mars/Olympus"}); !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("期望 ErrInvalidTimezone，实际 %v", err)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)
	if _, err := f.svc.Auth.Register(ctx, &dto.RegisterRequest{Username: "frank", Password: "password123"}); err != nil {
		t.Fatalf("Register 失败: %v", err)
	}

	if _, err := f.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "frank", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("密码错误期望 ErrInvalidCredentials，实际 %v", err)
	}
	if _, err := f.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("用户不存在期望 ErrInvalidCredentials，实际 %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)
	token, err := f.jwtMgr.GenerateAccessToken("user-1", "alice", "UTC")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}
	claims, err := f.jwtMgr.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}

	if err := f.svc.Auth.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout 失败: %v", err)
	}
	ttl, ok := f.blacklist.tokens[claims.ID]
	if !ok {
		t.Fatal("JTI 应加入黑名单")
	}
	if ttl <= 0 {
		t.Errorf("黑名单 TTL 应为正数，实际 %v", ttl)
	}
}

func TestAuthService_Me(t *testing.T) {
	f := newFixture(true)

	user, err := f.svc.Auth.Me(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Me 失败: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("期望 alice，实际 %s", user.Username)
	}
	if _, err := f.svc.Auth.Me(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际 %v", err)
	}
}
