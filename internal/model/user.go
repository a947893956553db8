package model

// User 教职工用户表，对应 users
type User struct {
	ID            uint    `gorm:"primaryKey;autoIncrement"           json:"id"`
	AuthID        *string `gorm:"type:varchar(64)"                   json:"auth_id,omitempty"`
	Name          string  `gorm:"type:varchar(100);not null"         json:"name"`
	Email         string  `gorm:"type:varchar(255);not null"         json:"email"`
	PasswordHash  string  `gorm:"type:varchar(255);not null"         json:"-"`
	Department    *string `gorm:"type:varchar(100)"                  json:"department,omitempty"`
	Phone         *string `gorm:"type:varchar(30)"                   json:"phone,omitempty"`
	EmailVerified bool    `gorm:"not null;default:false"             json:"email_verified"`
	PushToken     *string `gorm:"type:varchar(255)"                  json:"-"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// PushTarget 推送目标：用户 ID 与其设备 Token
type PushTarget struct {
	UserID    uint
	PushToken string
}
