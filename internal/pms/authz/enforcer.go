package authz

import (
	"fmt"
	"sync"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

// 权限矩阵中的资源名
const (
	ObjPosts             = "posts"
	ObjObjectives        = "objectives"
	ObjQuarters          = "quarters"
	ObjInitiatives       = "initiatives"
	ObjInitiativeActions = "initiative-actions"
	ObjUsers             = "users"
	ObjBranches          = "branches"
	ObjReference         = "reference"
	ObjStrategic         = "strategic"
)

// 动作名
const (
	ActRead       = "read"
	ActCreate     = "create"
	ActUpdate     = "update"
	ActDelete     = "delete"
	ActAssignRole = "assign-role"
	ActStats      = "stats"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

var workflowObjects = []string{ObjPosts, ObjObjectives, ObjQuarters, ObjInitiatives, ObjInitiativeActions}

// DefaultPolicies 角色动作矩阵；审批、驳回、解锁只有管理员拥有
func DefaultPolicies() (policies [][]string, groupings [][]string) {
	policies = [][]string{
		{entity.RoleAdmin, "*", "*"},
		{entity.RoleCEO, "*", "*"},
	}
	for _, obj := range workflowObjects {
		for _, act := range []string{ActRead, ActCreate, ActUpdate, "submit", "withdraw"} {
			policies = append(policies, []string{entity.RoleStaff, obj, act})
		}
		policies = append(policies, []string{entity.RoleHeadOfDepartment, obj, ActDelete})
	}
	policies = append(policies,
		[]string{entity.RoleStaff, ObjObjectives, "submit-unit-of-measure"},
		[]string{entity.RoleStaff, ObjInitiatives, "request-approval"},
		[]string{entity.RoleStaff, ObjInitiatives, "cancel"},
		[]string{entity.RoleStaff, ObjUsers, ActRead},
		[]string{entity.RoleStaff, ObjUsers, ActUpdate},
		[]string{entity.RoleStaff, ObjBranches, ActRead},
		[]string{entity.RoleStaff, ObjReference, ActRead},
		[]string{entity.RoleStaff, ObjStrategic, ActRead},
	)
	groupings = [][]string{
		{entity.RoleHeadOfDepartment, entity.RoleStaff},
	}
	return policies, groupings
}

// Enforcer 基于 casbin 的角色动作校验
type Enforcer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	logger   *zap.Logger
}

// NewEnforcer 使用内置模型和默认矩阵创建
func NewEnforcer(logger *zap.Logger) (*Enforcer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: load model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: init enforcer: %w", err)
	}
	policies, groupings := DefaultPolicies()
	if _, err := enf.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("authz: add policies: %w", err)
	}
	if _, err := enf.AddGroupingPolicies(groupings); err != nil {
		return nil, fmt.Errorf("authz: add groupings: %w", err)
	}
	return &Enforcer{enforcer: enf, logger: logger.Named("authz")}, nil
}

// Check 判断是否允许，不返回授权错误
func (e *Enforcer) Check(a *Actor, obj, act string) (bool, error) {
	if a == nil {
		return false, nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	ok, err := e.enforcer.Enforce(a.Subject(), obj, act)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return ok, nil
}

// Authorize 不允许时返回 PermissionDeniedError
func (e *Enforcer) Authorize(a *Actor, obj, act string) error {
	ok, err := e.Check(a, obj, act)
	if err != nil {
		return err
	}
	if !ok {
		e.logger.Warn("authz denied request",
			zap.String("subject", a.Subject()),
			zap.String("object", obj),
			zap.String("action", act),
		)
		return apperr.Denied(fmt.Sprintf("%s may not %s %s", a.Subject(), act, obj))
	}
	return nil
}
