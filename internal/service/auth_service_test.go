package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"faculty-sub/backend/config"
	"faculty-sub/backend/internal/dto"
	pkgerrors "faculty-sub/backend/pkg/errors"
	"faculty-sub/backend/pkg/jwt"
)

// ── 测试辅助 ──

func setupTestAuthService() (AuthService, *mockUserRepo, *mockBlacklist, *jwt.Manager) {
	repo, users, _ := newTestRepository()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			EmailDomain:     "@kiit.ac.in",
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	bl := newMockBlacklist()
	return NewAuthService(cfg, repo, jwtMgr, bl, zap.NewNop()), users, bl, jwtMgr
}

func addUserWithPassword(users *mockUserRepo, name, email, password string) uint {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := users.add(name, email, nil)
	u.PasswordHash = string(hash)
	return u.ID
}

// ── Signup 测试 ──

func TestAuthService_Signup_Success(t *testing.T) {
	svc, users, _, jwtMgr := setupTestAuthService()

	resp, err := svc.Signup(context.Background(), &dto.SignupRequest{
		Name:     "Alice",
		Email:    "Alice@KIIT.ac.in",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Signup 应成功: %v", err)
	}
	if resp.User.Email != "alice@kiit.ac.in" {
		t.Errorf("邮箱应规范化为小写，实际 %s", resp.User.Email)
	}
	if resp.User.EmailVerified {
		t.Error("新用户 email_verified 应为 false")
	}

	stored := users.users[resp.User.ID]
	if stored.AuthID == nil || *stored.AuthID == "" {
		t.Error("应分配 auth_id")
	}
	if stored.PasswordHash == "password123" {
		t.Error("密码不应明文存储")
	}

	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("AccessToken 应可解析: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.TokenType != jwt.TokenTypeAccess {
		t.Errorf("Claims 不匹配: %+v", claims)
	}
}

func TestAuthService_Signup_WrongDomain(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()

	_, err := svc.Signup(context.Background(), &dto.SignupRequest{
		Name: "Mallory", Email: "mallory@gmail.com", Password: "password123",
	})
	if !errors.Is(err, ErrEmailDomain) || !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("期望 ErrEmailDomain，实际: %v", err)
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	svc, users, _, _ := setupTestAuthService()
	users.add("Alice", "alice@kiit.ac.in", nil)

	_, err := svc.Signup(context.Background(), &dto.SignupRequest{
		Name: "Alice Again", Email: "ALICE@kiit.ac.in", Password: "password123",
	})
	if !errors.Is(err, ErrEmailExists) || !errors.Is(err, pkgerrors.ErrConflict) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

// ── Login 测试 ──

func TestAuthService_Login(t *testing.T) {
	svc, users, _, _ := setupTestAuthService()
	id := addUserWithPassword(users, "Alice", "alice@kiit.ac.in", "password123")
	ctx := context.Background()

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@kiit.ac.in", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if resp.User.ID != id || resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Errorf("登录响应不完整: %+v", resp)
	}
	if resp.ExpiresIn != int((30 * time.Minute).Seconds()) {
		t.Errorf("期望 expires_in=1800，实际 %d", resp.ExpiresIn)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@kiit.ac.in", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("密码错误期望 ErrInvalidCredentials，实际: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@kiit.ac.in", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("用户不存在期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── Refresh / Logout 测试 ──

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	svc, users, bl, _ := setupTestAuthService()
	addUserWithPassword(users, "Alice", "alice@kiit.ac.in", "password123")
	ctx := context.Background()
	login, _ := svc.Login(ctx, &dto.LoginRequest{Email: "alice@kiit.ac.in", Password: "password123"})

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("应签发新的 RefreshToken")
	}
	if len(bl.revoked) != 1 {
		t.Errorf("旧 RefreshToken 应加入黑名单，实际 %d 条", len(bl.revoked))
	}

	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("已轮换的 RefreshToken 再次使用期望 ErrInvalidToken，实际: %v", err)
	}
	if _, err := svc.Refresh(ctx, login.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("AccessToken 不能用于刷新，实际: %v", err)
	}
}

func TestAuthService_Logout_Blacklists(t *testing.T) {
	svc, users, bl, jwtMgr := setupTestAuthService()
	addUserWithPassword(users, "Alice", "alice@kiit.ac.in", "password123")
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "alice@kiit.ac.in", Password: "password123"})
	claims, _ := jwtMgr.ParseToken(login.AccessToken)

	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	ttl, ok := bl.revoked[claims.ID]
	if !ok {
		t.Fatal("AccessToken 应加入黑名单")
	}
	if ttl <= 0 || ttl > 30*time.Minute {
		t.Errorf("黑名单 TTL 应为剩余有效期，实际 %v", ttl)
	}
}

func TestAuthService_NilBlacklist(t *testing.T) {
	repo, users, _ := newTestRepository()
	cfg := &config.Config{Auth: config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-testing", AccessTokenTTL: time.Minute,
		RefreshTokenTTL: time.Hour, EmailDomain: "@kiit.ac.in",
	}}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, repo, jwtMgr, nil, zap.NewNop())
	addUserWithPassword(users, "Alice", "alice@kiit.ac.in", "password123")

	login, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "alice@kiit.ac.in", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	claims, _ := jwtMgr.ParseToken(login.AccessToken)
	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Errorf("无黑名单时 Logout 应成功: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); err != nil {
		t.Errorf("无黑名单时 Refresh 应成功: %v", err)
	}
}

// ── Me 测试 ──

func TestAuthService_Me(t *testing.T) {
	svc, users, _, _ := setupTestAuthService()
	id := addUserWithPassword(users, "Alice", "alice@kiit.ac.in", "password123")

	me, err := svc.Me(context.Background(), id)
	if err != nil || me.Name != "Alice" {
		t.Fatalf("Me 应返回 Alice: %+v, %v", me, err)
	}
	if _, err := svc.Me(context.Background(), 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
