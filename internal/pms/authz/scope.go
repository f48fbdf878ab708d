package authz

import (
	"gorm.io/gorm"
)

// Target 描述一张表如何解析部门和创建人
type Target struct {
	// BranchExpr 行所属部门的 SQL 表达式（列名或子查询）
	BranchExpr string
	// OwnerColumn 创建人列；用户表为 "id"
	OwnerColumn string
}

// 常用表的范围定义
var (
	PostTarget      = Target{BranchExpr: "branch_id", OwnerColumn: "created_by"}
	ObjectiveTarget = Target{BranchExpr: "branch_id", OwnerColumn: "created_by"}
	QuarterTarget   = Target{
		BranchExpr:  "(SELECT performance_objectives.branch_id FROM performance_objectives WHERE performance_objectives.id = quarterly_progresses.objective_id)",
		OwnerColumn: "created_by",
	}
	InitiativeTarget = Target{BranchExpr: "branch_id", OwnerColumn: "created_by"}
	ActionTarget     = Target{
		BranchExpr:  "(SELECT initiatives.branch_id FROM initiatives WHERE initiatives.id = initiative_actions.initiative_id)",
		OwnerColumn: "created_by",
	}
	UserTarget = Target{BranchExpr: "branch_id", OwnerColumn: "id"}
)

// Scope 返回读取范围过滤条件
//
// 管理员不过滤；部门负责人看本部门；普通用户只看自己创建的（用户表只看自己）；
// 非管理员未分配部门时返回空集。
func Scope(a *Actor, t Target) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case a == nil:
			return db.Where("1 = 0")
		case a.IsAdmin():
			return db
		case a.BranchID == nil:
			return db.Where("1 = 0")
		case a.Role() == RoleUnitLead:
			return db.Where(t.BranchExpr+" = ?", *a.BranchID)
		default:
			return db.Where(t.OwnerColumn+" = ?", a.ID)
		}
	}
}

// CanRead 单行读取判断，与 Scope 一致
func CanRead(a *Actor, branchID, ownerID *uint64) bool {
	switch {
	case a == nil:
		return false
	case a.IsAdmin():
		return true
	case a.BranchID == nil:
		return false
	case a.Role() == RoleUnitLead:
		return a.InBranch(branchID)
	default:
		return ownerID != nil && *ownerID == a.ID
	}
}

// CanWrite 写操作判断，比读取更严格：普通用户必须既是创建人又在同一部门
func CanWrite(a *Actor, branchID, ownerID *uint64) bool {
	switch {
	case a == nil:
		return false
	case a.IsAdmin():
		return true
	case a.BranchID == nil:
		return false
	case a.Role() == RoleUnitLead:
		return a.InBranch(branchID)
	default:
		return ownerID != nil && *ownerID == a.ID && a.InBranch(branchID)
	}
}
