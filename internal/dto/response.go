package dto

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏，不含密码哈希与推送 Token）
type UserResponse struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Department    *string `json:"department"`
	Phone         *string `json:"phone"`
	EmailVerified bool    `json:"email_verified"`
	HasPushToken  bool    `json:"has_push_token"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// ── 代课申请响应 ──

// RequestResponse 代课申请，附带发布人与接受人姓名
type RequestResponse struct {
	ID              uint    `json:"id"`
	TeacherID       uint    `json:"teacher_id"`
	Subject         string  `json:"subject"`
	Date            string  `json:"date"` // YYYY-MM-DD
	Time            string  `json:"time"` // HH:MM
	DurationMinutes int     `json:"duration_minutes"`
	Classroom       string  `json:"classroom"`
	Notes           *string `json:"notes"`
	Status          string  `json:"status"`
	AcceptedBy      *uint   `json:"accepted_by"`
	TeacherName     string  `json:"teacher_name,omitempty"`
	AcceptorName    string  `json:"acceptor_name,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}
