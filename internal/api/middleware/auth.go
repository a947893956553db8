package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"faculty-sub/backend/pkg/jwt"
	"faculty-sub/backend/pkg/response"
)

// 与 handler.CtxUserID / handler.CtxClaims 保持一致
const (
	ctxUserID = "user_id"
	ctxClaims = "claims"
)

// RevocationChecker Token 吊销查询（由 pkg/redis.Client 实现）
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，
// 通过后向上下文写入 user_id(uint) 与 claims(*jwt.Claims)。
// revoked 为 nil 时跳过黑名单检查；查询出错时降级放行。
func JWTAuth(jwtMgr *jwt.Manager, revoked RevocationChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if revoked != nil && claims.ID != "" {
			hit, err := revoked.IsBlacklisted(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				logger.Warn("查询 Token 黑名单失败，降级放行",
					zap.String("request_id", GetRequestID(c)),
					zap.Error(err),
				)
			case hit:
				response.Unauthorized(c, 10002, "Token 已失效，请重新登录")
				c.Abort()
				return
			}
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxClaims, claims)

		c.Next()
	}
}
