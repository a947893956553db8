package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"faculty-sub/backend/config"
	"faculty-sub/backend/internal/api/handler"
	"faculty-sub/backend/internal/api/middleware"
	"faculty-sub/backend/pkg/jwt"
	"faculty-sub/backend/pkg/redis"
)

const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb、db 均可为 nil：前者关闭黑名单与限流，后者使健康检查跳过数据库探测
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	db *gorm.DB,
	metrics *middleware.HTTPMetrics,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// nil *redis.Client 不能直接赋给接口，否则中间件的 nil 判断失效
	var (
		revoked middleware.RevocationChecker
		limiter middleware.Limiter
	)
	if rdb != nil {
		revoked, limiter = rdb, rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	if metrics != nil {
		r.Use(metrics.Middleware())
	}
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", healthCheck(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authLimit := middleware.RateLimit(limiter, cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authLimit, h.Auth.Signup)
			auth.POST("/login", authLimit, h.Auth.Login)
			auth.POST("/refresh", authLimit, h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, revoked, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 用户模块（修改类操作仅限本人，由 Handler 校验）
			users := authorized.Group("/users")
			{
				users.GET("", h.User.List)
				users.GET("/:id", h.User.Get)
				users.PUT("/:id", h.User.Update)
				users.PUT("/:id/push-token", h.User.UpdatePushToken)
				users.DELETE("/:id", h.User.Delete)
			}

			// 代课申请模块
			requests := authorized.Group("/requests")
			{
				requests.GET("", h.Request.ListPending)
				requests.POST("", h.Request.Create)
				requests.GET("/teacher/:teacherId", h.Request.ListByTeacher)
				requests.GET("/teacher/:teacherId/export", h.Export.ExportHistory)
				requests.GET("/accepted/:teacherId", h.Request.ListAcceptedBy)
				requests.GET("/accepted/:teacherId/calendar.ics", h.Export.ExportCalendar)
				requests.GET("/:id", h.Request.Get)
				requests.PUT("/:id/accept", h.Request.Accept)
				requests.PUT("/:id/cancel", h.Request.Cancel)
				requests.DELETE("/:id", h.Request.Delete)
			}
		}
	}

	return r
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
