package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"faculty-sub/backend/pkg/jwt"
	"faculty-sub/backend/pkg/response"
)

// 由 JWTAuth 中间件写入的上下文键
const (
	CtxUserID = "user_id"
	CtxClaims = "claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetClaims 提取当前 Token 的 Claims
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(CtxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// resolveTeacherID 请求中的 teacher_id 可省略（取当前用户），显式给出时必须与当前用户一致
func resolveTeacherID(c *gin.Context, supplied uint) (uint, bool) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return 0, false
	}
	if supplied != 0 && supplied != callerID {
		response.Forbidden(c, 10003, "只能以本人身份操作")
		return 0, false
	}
	return callerID, true
}

// requireSelf 目标用户必须是当前用户
func requireSelf(c *gin.Context, targetID uint) bool {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return false
	}
	if callerID != targetID {
		response.Forbidden(c, 10003, "只能修改本人账号")
		return false
	}
	return true
}

// parseIDParam 解析路径中的正整数 ID，失败时写入 400
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, name+" 必须为正整数")
		return 0, false
	}
	return uint(id), true
}
