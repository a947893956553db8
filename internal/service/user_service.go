package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"faculty-sub/backend/internal/dto"
	"faculty-sub/backend/internal/model"
	"faculty-sub/backend/internal/notify"
	"faculty-sub/backend/internal/repository"
	pkgerrors "faculty-sub/backend/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound     = pkgerrors.New(pkgerrors.ErrNotFound, "用户不存在")
	ErrEmptyUpdate      = pkgerrors.New(pkgerrors.ErrValidation, "未提供任何需要更新的字段")
	ErrInvalidPushToken = pkgerrors.New(pkgerrors.ErrValidation, "推送 Token 格式无效")
)

// UserService 用户业务接口
type UserService interface {
	List(ctx context.Context) ([]dto.UserResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.UserResponse, error)
	Update(ctx context.Context, id uint, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	UpdatePushToken(ctx context.Context, id uint, token string) error
	// Delete 删除账号；本人发布的申请级联删除，本人接受的申请回退为 pending
	Delete(ctx context.Context, id uint) error
}

type userService struct {
	repo    *repository.Repository
	timeout time.Duration
	logger  *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, timeout time.Duration, logger *zap.Logger) UserService {
	return &userService{repo: repo, timeout: timeout, logger: logger}
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	users, err := s.repo.User.List(ctx)
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, upstream(err)
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*dto.UserResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("id", id), zap.Error(err))
		return nil, upstream(err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, id uint, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if req.Empty() {
		return nil, ErrEmptyUpdate
	}

	fields := make(map[string]interface{}, 3)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrEmptyUpdate
		}
		fields["name"] = name
	}
	if req.Department != nil {
		fields["department"] = strings.TrimSpace(*req.Department)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.repo.User.UpdateProfile(ctx, id, fields)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("更新用户资料失败", zap.Uint("id", id), zap.Error(err))
		return nil, upstream(err)
	}

	s.logger.Info("用户资料已更新", zap.Uint("id", id))
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) UpdatePushToken(ctx context.Context, id uint, token string) error {
	token = strings.TrimSpace(token)
	if !notify.ValidToken(token) {
		return ErrInvalidPushToken
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.User.UpdatePushToken(ctx, id, token); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		s.logger.Error("更新推送 Token 失败", zap.Uint("id", id), zap.Error(err))
		return upstream(err)
	}

	s.logger.Info("推送 Token 已注册", zap.Uint("id", id))
	return nil
}

func (s *userService) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.User.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		s.logger.Error("删除用户失败", zap.Uint("id", id), zap.Error(err))
		return upstream(err)
	}

	s.logger.Info("用户账号已删除", zap.Uint("id", id))
	return nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Department:    u.Department,
		Phone:         u.Phone,
		EmailVerified: u.EmailVerified,
		HasPushToken:  u.PushToken != nil && *u.PushToken != "",
		CreatedAt:     formatTimestamp(u.CreatedAt),
		UpdatedAt:     formatTimestamp(u.UpdatedAt),
	}
}
