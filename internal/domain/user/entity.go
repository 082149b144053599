package user

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleCustomer Role = "user"
	RoleAdmin    Role = "admin" // 可管理订单、优惠码、图书
)

// User 用户实体(聚合根)
// 设计说明:
// 1. 密码只保存bcrypt哈希,没有任何方法返回明文
// 2. 领域实体不带GORM tag,映射在infrastructure层完成
type User struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	Nickname  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户(工厂方法),hashedPassword必须是bcrypt结果
func NewUser(email, hashedPassword, nickname string, role Role) *User {
	now := time.Now()
	return &User{
		Email:     email,
		Password:  hashedPassword,
		Nickname:  nickname,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
