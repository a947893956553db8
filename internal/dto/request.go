package dto

// ── 代课申请模块 DTO ──

// CreateRequestRequest 发布代课申请
// teacher_id 可省略，默认为当前登录用户
type CreateRequestRequest struct {
	TeacherID       uint    `json:"teacher_id"`
	Subject         string  `json:"subject"          binding:"required,max=200"`
	Date            string  `json:"date"             binding:"required,datetime=2006-01-02"`
	Time            string  `json:"time"             binding:"required,clock_time"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=1,max=720"`
	Classroom       string  `json:"classroom"        binding:"required,max=100"`
	Notes           *string `json:"notes"            binding:"omitempty,max=1000"`
}

// TeacherActionRequest 接受 / 取消代课申请时的请求体
type TeacherActionRequest struct {
	TeacherID uint `json:"teacher_id"`
}

// DeleteRequestQuery DELETE /requests/:id 的查询参数
type DeleteRequestQuery struct {
	TeacherID uint `form:"teacher_id"`
}
