package handler

import (
	"github.com/gin-gonic/gin"

	"faculty-sub/backend/internal/dto"
	"faculty-sub/backend/internal/service"
	"faculty-sub/backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// List 教职工列表（按姓名排序）
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userSvc.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, users)
}

// Get 单个用户
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, user)
}

// Update 更新本人资料
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, user)
}

// UpdatePushToken 注册本人设备的推送 Token
// PUT /api/v1/users/:id/push-token
func (h *UserHandler) UpdatePushToken(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}
	var req dto.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.userSvc.UpdatePushToken(c.Request.Context(), id, req.PushToken); err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "推送 Token 已更新"})
}

// Delete 删除本人账号
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "账号已删除"})
}
