// Package workflow 审批状态机
//
// 一个 Machine 描述一条状态轨道上允许的动作。Post、PerformanceObjective、
// QuarterlyProgress 共用 Standard，计量单位轨道用 UnitOfMeasure，
// Initiative 用 Initiative（每次流转追加一条审批记录）。
package workflow

import (
	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
)

// Action 审批动作
type Action string

const (
	Submit          Action = "submit"
	Approve         Action = "approve"
	Reject          Action = "reject"
	Withdraw        Action = "withdraw"
	Unlock          Action = "unlock"
	RequestApproval Action = "request-approval"
	Cancel          Action = "cancel"
)

// LockEffect 流转后对锁定标记的处理
type LockEffect int

const (
	LockKeep LockEffect = iota
	LockSet
	LockClear
)

// CommentEffect 流转后对驳回意见的处理
type CommentEffect int

const (
	CommentKeep CommentEffect = iota
	CommentSet
	CommentClear
)

// Rule 一条流转规则，From 为空表示任意状态均可
type Rule struct {
	From    []string
	To      string
	Lock    LockEffect
	Comment CommentEffect
	// Silent 前置状态不满足时不报错，直接返回 no-op
	Silent bool
	// Entry 需要追加的审批记录状态码，为空则不追加
	Entry string
}

func (r Rule) allows(current string) bool {
	if len(r.From) == 0 {
		return true
	}
	for _, s := range r.From {
		if s == current {
			return true
		}
	}
	return false
}

// Transition Fire 的结果
type Transition struct {
	Action  Action
	From    string
	To      string
	Lock    LockEffect
	Comment CommentEffect
	Entry   string
	// Changed 为 false 表示静默 no-op
	Changed bool
}

// Machine 状态机
type Machine struct {
	name  string
	rules map[Action]Rule
}

// NewMachine 创建状态机
func NewMachine(name string, rules map[Action]Rule) *Machine {
	return &Machine{name: name, rules: rules}
}

// Name 状态机名称
func (m *Machine) Name() string {
	return m.name
}

// Supports 是否支持该动作
func (m *Machine) Supports(action Action) bool {
	_, ok := m.rules[action]
	return ok
}

// Fire 校验当前状态并计算流转结果，不修改任何存储
func (m *Machine) Fire(current string, action Action) (Transition, error) {
	rule, ok := m.rules[action]
	if !ok {
		return Transition{}, apperr.Invalid("action", "unsupported action "+string(action))
	}
	if !rule.allows(current) {
		if rule.Silent {
			return Transition{Action: action, From: current, To: current}, nil
		}
		return Transition{}, &apperr.InvalidTransitionError{
			Kind:    m.name,
			Action:  string(action),
			Current: current,
			Target:  rule.To,
		}
	}
	return Transition{
		Action:  action,
		From:    current,
		To:      rule.To,
		Lock:    rule.Lock,
		Comment: rule.Comment,
		Entry:   rule.Entry,
		Changed: true,
	}, nil
}

// Standard DRAFT/PENDING/APPROVED/REJECTED 主审批流
func Standard(name string) *Machine {
	return NewMachine(name, map[Action]Rule{
		Submit: {
			From:    []string{entity.StatusDraft, entity.StatusRejected},
			To:      entity.StatusPending,
			Lock:    LockSet,
			Comment: CommentClear,
		},
		Approve: {
			From: []string{entity.StatusPending},
			To:   entity.StatusApproved,
			Lock: LockClear,
		},
		Reject: {
			From:    []string{entity.StatusPending},
			To:      entity.StatusRejected,
			Lock:    LockClear,
			Comment: CommentSet,
		},
		Withdraw: {
			From:   []string{entity.StatusPending},
			To:     entity.StatusDraft,
			Lock:   LockClear,
			Silent: true,
		},
		// 管理员兜底，任意状态回到草稿
		Unlock: {
			To:      entity.StatusDraft,
			Lock:    LockClear,
			Comment: CommentClear,
		},
	})
}

// UnitOfMeasure 计量单位审批轨道，不影响锁定标记
func UnitOfMeasure(name string) *Machine {
	return NewMachine(name, map[Action]Rule{
		Submit: {
			From:    []string{entity.StatusDraft, entity.StatusRejected},
			To:      entity.StatusPending,
			Comment: CommentClear,
		},
		Approve: {
			From: []string{entity.StatusPending},
			To:   entity.StatusApproved,
		},
		Reject: {
			From:    []string{entity.StatusPending},
			To:      entity.StatusRejected,
			Comment: CommentSet,
		},
	})
}

// Initiative 举措审批流，驳回和撤销都回到 OPEN
func Initiative(name string) *Machine {
	pending := []string{entity.ApprovalPendingApproval}
	return NewMachine(name, map[Action]Rule{
		RequestApproval: {
			From:  []string{entity.ApprovalOpen},
			To:    entity.ApprovalPendingApproval,
			Entry: entity.ApprovalPendingApproval,
		},
		Approve: {
			From:  pending,
			To:    entity.ApprovalApproved,
			Entry: entity.ApprovalApproved,
		},
		Reject: {
			From:  pending,
			To:    entity.ApprovalOpen,
			Entry: entity.ApprovalRejected,
		},
		Cancel: {
			From:  pending,
			To:    entity.ApprovalOpen,
			Entry: entity.ApprovalCancelled,
		},
	})
}
