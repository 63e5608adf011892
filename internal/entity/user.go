package entity

import "time"

const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"
)

// DbUser represents a persisted user account.
type DbUser struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	Username   string     `gorm:"column:username;type:varchar(50);index;not null" json:"username"`
	Phone      string     `gorm:"column:phone;type:varchar(20);uniqueIndex;not null" json:"phone"`
	Password   string     `gorm:"column:password;type:varchar(255);not null" json:"-"`
	Role       string     `gorm:"column:role;type:varchar(20);index;not null" json:"role"`
	Email      *string    `gorm:"column:email;type:varchar(100)" json:"email"`
	CreateTime *time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time,omitempty"`
	UpdateTime *time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time,omitempty"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "user"
}

// IsAdmin 判断用户是否具有管理员角色
func (u *DbUser) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Phone    string  `json:"phone"`
	Role     string  `json:"role"`
	Email    *string `json:"email"`
}

// UserFields 是创建/更新用户时的可编辑字段。Password 为空表示沿用默认密码（创建）或不修改（更新）。
type UserFields struct {
	Username string  `json:"username" binding:"required,max=50"`
	Phone    string  `json:"phone" binding:"required,max=20"`
	Role     string  `json:"role" binding:"omitempty,oneof=admin user"`
	Email    *string `json:"email" binding:"omitempty,max=100"`
	Password string  `json:"password" binding:"omitempty,max=72"`
}

// AuthLoginRequest 兼容前端历史字段 username（实际为手机号）。
type AuthLoginRequest struct {
	Phone    string `json:"phone"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthLoginResponse 登录结果
type AuthLoginResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	User      *UserSummary `json:"user,omitempty"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

// UserMutationResponse 创建/更新用户后的响应
type UserMutationResponse struct {
	Message string       `json:"message"`
	UserID  uint         `json:"userId"`
	User    *UserSummary `json:"user,omitempty"`
}
