package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 审批状态码（approval_statuses 表）
const (
	ApprovalOpen            = "OPEN"
	ApprovalPendingApproval = "PENDINGAPPROVAL"
	ApprovalApproved        = "APPROVED"
	ApprovalRejected        = "REJECTED"
	ApprovalCancelled       = "CANCELLED"
)

// ApprovalStatus 可配置的审批状态码
type ApprovalStatus struct {
	Code        string    `json:"code" gorm:"primaryKey;size:30"`
	Description string    `json:"description" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ApprovalStatus) TableName() string {
	return "approval_statuses"
}

// DefaultApprovalStatuses 迁移时写入的状态码
var DefaultApprovalStatuses = []ApprovalStatus{
	{Code: ApprovalOpen, Description: "Open"},
	{Code: ApprovalPendingApproval, Description: "Pending approval"},
	{Code: ApprovalApproved, Description: "Approved"},
	{Code: ApprovalRejected, Description: "Rejected"},
	{Code: ApprovalCancelled, Description: "Cancelled"},
}

// Initiative 战略举措，状态由审批记录驱动
type Initiative struct {
	ID               uint64              `json:"id" gorm:"primaryKey"`
	ObjectiveID      uint64              `json:"objective_id" gorm:"not null;index"`
	Objective        *StrategicObjective `json:"objective,omitempty" gorm:"foreignKey:ObjectiveID"`
	BranchID         uint64              `json:"branch_id" gorm:"not null;index"`
	Branch           *Branch             `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	Description      string              `json:"description" gorm:"type:text;not null"`
	UnitOfMeasure    string              `json:"unit_of_measure" gorm:"size:255"`
	Weight           decimal.Decimal     `json:"weight" gorm:"type:decimal(6,2);not null;default:0"`
	PreviousTarget   string              `json:"previous_target" gorm:"size:255"`
	CurrentTarget    string              `json:"current_target" gorm:"size:255"`
	CumulativeTarget string              `json:"cumulative_target" gorm:"size:255"`
	StatusCode       string              `json:"status" gorm:"size:30;not null;default:OPEN;index"`
	Version          int                 `json:"version" gorm:"not null;default:1"`
	CreatedBy        *uint64             `json:"created_by" gorm:"index"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (Initiative) TableName() string {
	return "initiatives"
}

// InitiativeAction 举措执行情况，只允许在举措已批准时新增或修改
type InitiativeAction struct {
	ID                uint64      `json:"id" gorm:"primaryKey"`
	InitiativeID      uint64      `json:"initiative_id" gorm:"not null;index"`
	Initiative        *Initiative `json:"initiative,omitempty" gorm:"foreignKey:InitiativeID;constraint:OnDelete:CASCADE"`
	CummulativeActual string      `json:"cummulative_actual" gorm:"size:255"`
	ActionDescription string      `json:"action_description" gorm:"type:text"`
	ActionFactor      string      `json:"action_factor" gorm:"type:text"`
	RawScore          string      `json:"raw_score" gorm:"size:100"`
	WeightedScore     string      `json:"weighted_score" gorm:"size:100"`
	WeightedAchieved  string      `json:"weighted_achieved" gorm:"size:100"`
	CreatedBy         *uint64     `json:"created_by" gorm:"index"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func (InitiativeAction) TableName() string {
	return "initiative_actions"
}

// ApprovalEntry 举措审批记录，只追加不修改
type ApprovalEntry struct {
	ID           uint64     `json:"id" gorm:"primaryKey"`
	InitiativeID uint64     `json:"initiative_id" gorm:"not null;index"`
	RequestorID  *uint64    `json:"requestor_id"`
	RequestedAt  *time.Time `json:"requested_at"`
	ApproverID   *uint64    `json:"approver_id"`
	ActionedAt   *time.Time `json:"actioned_at"`
	StatusCode   string     `json:"status" gorm:"size:30;not null"`
	Comment      string     `json:"comment" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (ApprovalEntry) TableName() string {
	return "approval_entries"
}
