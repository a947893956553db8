package dto

// ── 用户模块 DTO ──

// UpdateUserRequest 部分更新个人资料，未提供的字段保持不变
type UpdateUserRequest struct {
	Name       *string `json:"name"       binding:"omitempty,min=2,max=100"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	Phone      *string `json:"phone"      binding:"omitempty,max=30"`
}

// Empty 是否未提供任何字段
func (r *UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Department == nil && r.Phone == nil
}

// PushTokenRequest 注册设备推送 Token
type PushTokenRequest struct {
	PushToken string `json:"push_token" binding:"required,max=255"`
}
