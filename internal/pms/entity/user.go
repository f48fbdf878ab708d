package entity

import (
	"strings"
	"time"
)

// 角色编码
const (
	RoleAdmin            = "admin"
	RoleCEO              = "ceo"
	RoleHeadOfDepartment = "head_of_department"
	RoleStaff            = "staff"
)

// User 系统用户
type User struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:150;not null;uniqueIndex"`
	Email       string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	FirstName   string    `json:"first_name" gorm:"size:150"`
	LastName    string    `json:"last_name" gorm:"size:150"`
	RoleCode    *string   `json:"role" gorm:"size:50;index"`
	Role        *Role     `json:"role_info,omitempty" gorm:"foreignKey:RoleCode;references:Code"`
	BranchID    *uint64   `json:"branch_id" gorm:"index"`
	Branch      *Branch   `json:"branch,omitempty" gorm:"foreignKey:BranchID;constraint:OnDelete:SET NULL"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	IsSuperuser bool      `json:"is_superuser" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// RoleValue 角色编码，未分配时为空串
func (u *User) RoleValue() string {
	if u.RoleCode == nil {
		return ""
	}
	return *u.RoleCode
}

// FullName 姓名
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Role 角色
type Role struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"size:255"`
	IsSystem    bool      `json:"is_system" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Role) TableName() string {
	return "roles"
}

// DefaultRoles 迁移时写入的系统角色
var DefaultRoles = []Role{
	{Code: RoleAdmin, Name: "System Administrator", IsSystem: true},
	{Code: RoleCEO, Name: "Chief Executive Officer", IsSystem: true},
	{Code: RoleHeadOfDepartment, Name: "Head of Department", IsSystem: true},
	{Code: RoleStaff, Name: "Staff", IsSystem: true},
}
