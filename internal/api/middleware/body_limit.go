package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faculty-sub/backend/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// Content-Length 已声明超限时直接拒绝；未声明时由 MaxBytesReader 在读取阶段截断，
// 绑定失败会以参数校验错误返回。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10001, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
