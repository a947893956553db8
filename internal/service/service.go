package service

import (
	"go.uber.org/zap"

	"faculty-sub/backend/config"
	"faculty-sub/backend/internal/repository"
	"faculty-sub/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth    AuthService
	User    UserService
	Request RequestService
	Export  ExportService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil：此时登出只依赖 Token 自然过期
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	timeout := cfg.Database.QueryTimeout
	return &Service{
		Auth:    NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:    NewUserService(repo, timeout, logger),
		Request: NewRequestService(repo, notifier, timeout, logger),
		Export:  NewExportService(repo, cfg.Server.Location(), timeout, logger),
	}
}
