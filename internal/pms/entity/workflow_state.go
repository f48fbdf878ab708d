package entity

import "time"

// 审批状态
const (
	StatusDraft    = "DRAFT"
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// WorkflowState 审批字段，嵌入到所有走审批流的实体
// Status/IsLocked/RejectionComment/Version 只能由审批引擎写入
type WorkflowState struct {
	Status           string    `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	IsLocked         bool      `json:"is_locked" gorm:"not null;default:false"`
	RejectionComment *string   `json:"rejection_comment" gorm:"type:text"`
	Version          int       `json:"version" gorm:"not null;default:1"`
	CreatedBy        *uint64   `json:"created_by" gorm:"index"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewWorkflowState 新建记录的初始审批字段
func NewWorkflowState(createdBy uint64) WorkflowState {
	ws := WorkflowState{Status: StatusDraft, Version: 1}
	if createdBy != 0 {
		ws.CreatedBy = &createdBy
	}
	return ws
}

// GuardedColumns 通用更新时必须排除的列
var GuardedColumns = []string{"status", "is_locked", "rejection_comment", "version", "created_by", "created_at"}

// NotAvailable 指标字段默认值
const NotAvailable = "N/A"

// OrNA 空字符串返回 N/A
func OrNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
