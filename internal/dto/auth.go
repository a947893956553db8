package dto

// ── 认证模块 DTO ──

// SignupRequest 注册请求，邮箱必须为学校教职工邮箱
type SignupRequest struct {
	Name       string  `json:"name"       binding:"required,min=2,max=100"`
	Email      string  `json:"email"      binding:"required,email,faculty_email"`
	Password   string  `json:"password"   binding:"required,min=8,max=72"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	Phone      *string `json:"phone"      binding:"omitempty,max=30"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
