package entity

import "time"

// 用户角色（来自外部身份目录，本服务只做角色检查不做认证）
const (
	RoleAdmin    = "admin"
	RoleVendor   = "vendor"
	RoleApprover = "approver"
)

// User 外部身份目录的本地镜像。审批编排器从这里选取
// 可用审批人（role=approver且active）。
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"size:200;uniqueIndex"`
	Role      string    `json:"role" gorm:"size:20;not null"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
