// Package authz 行级数据范围与角色动作矩阵
package authz

import (
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
)

// Role 授权视角下的角色
type Role int

const (
	RoleGeneral Role = iota
	RoleUnitLead
	RoleAdministrator
)

func (r Role) String() string {
	switch r {
	case RoleAdministrator:
		return "administrator"
	case RoleUnitLead:
		return "unit_lead"
	default:
		return "general"
	}
}

// Actor 当前操作人，只用于授权判断
type Actor struct {
	ID          uint64  `json:"id"`
	Username    string  `json:"username"`
	RoleCode    string  `json:"role_code"`
	BranchID    *uint64 `json:"branch_id"`
	IsSuperuser bool    `json:"is_superuser"`
}

// ActorFromUser 由用户记录构造 Actor
func ActorFromUser(u *entity.User) *Actor {
	return &Actor{
		ID:          u.ID,
		Username:    u.Username,
		RoleCode:    u.RoleValue(),
		BranchID:    u.BranchID,
		IsSuperuser: u.IsSuperuser,
	}
}

// Role 角色映射：admin/ceo/超级用户为管理员，head_of_department 为部门负责人，其余为普通用户
func (a *Actor) Role() Role {
	if a == nil {
		return RoleGeneral
	}
	if a.IsSuperuser {
		return RoleAdministrator
	}
	switch a.RoleCode {
	case entity.RoleAdmin, entity.RoleCEO:
		return RoleAdministrator
	case entity.RoleHeadOfDepartment:
		return RoleUnitLead
	default:
		return RoleGeneral
	}
}

// IsAdmin 是否管理员
func (a *Actor) IsAdmin() bool {
	return a.Role() == RoleAdministrator
}

// Subject 权限矩阵中的主体
func (a *Actor) Subject() string {
	if a == nil {
		return ""
	}
	if a.IsSuperuser {
		return entity.RoleAdmin
	}
	if a.RoleCode == "" {
		return entity.RoleStaff
	}
	return a.RoleCode
}

// InBranch 是否属于指定部门
func (a *Actor) InBranch(branchID *uint64) bool {
	return a != nil && a.BranchID != nil && branchID != nil && *a.BranchID == *branchID
}
