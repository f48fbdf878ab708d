package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 战略目标状态
const (
	StrategicOnTrack         = "on_track"
	StrategicInProgress      = "in_progress"
	StrategicExceedingTarget = "exceeding_target"
	StrategicBehindSchedule  = "behind_schedule"
	StrategicCompleted       = "completed"
)

// 行动项类型
const (
	ActionTypePriority    = "priority"
	ActionTypeAchievement = "achievement"
)

var strategicColors = map[string]string{
	StrategicOnTrack:         "success",
	StrategicInProgress:      "warning",
	StrategicExceedingTarget: "primary",
	StrategicBehindSchedule:  "error",
	StrategicCompleted:       "success",
}

// StrategicColor 状态对应的前端颜色
func StrategicColor(status string) string {
	if c, ok := strategicColors[status]; ok {
		return c
	}
	return "default"
}

// StrategicObjective 部门战略目标（看板），也是 Initiative 的上级目标
type StrategicObjective struct {
	ID              uint64              `json:"id" gorm:"primaryKey"`
	Title           string              `json:"title" gorm:"size:255;not null"`
	Description     string              `json:"description" gorm:"type:text"`
	BranchID        uint64              `json:"branch_id" gorm:"not null;index"`
	Branch          *Branch             `json:"branch,omitempty" gorm:"foreignKey:BranchID;constraint:OnDelete:CASCADE"`
	Progress        int                 `json:"progress" gorm:"not null;default:0"`
	Status          string              `json:"status" gorm:"size:20;not null;default:in_progress"`
	Target          string              `json:"target" gorm:"size:255"`
	Deadline        string              `json:"deadline" gorm:"size:100"`
	Priority        string              `json:"priority" gorm:"size:10;not null;default:medium"`
	CriteriaCount   int                 `json:"criteria_count" gorm:"not null;default:0"`
	ObjectivesCount int                 `json:"objectives_count" gorm:"not null;default:0"`
	IsActive        bool                `json:"is_active" gorm:"not null;default:true"`
	Color           string              `json:"color" gorm:"-"`
	Criteria        []StrategicCriteria `json:"criteria,omitempty" gorm:"foreignKey:StrategicObjectiveID"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (StrategicObjective) TableName() string {
	return "strategic_objectives"
}

// AfterFind 填充颜色
func (s *StrategicObjective) AfterFind(tx *gorm.DB) error {
	s.Color = StrategicColor(s.Status)
	return nil
}

// StrategicCriteria 战略目标下的衡量标准
type StrategicCriteria struct {
	ID                   uint64          `json:"id" gorm:"primaryKey"`
	StrategicObjectiveID uint64          `json:"strategic_objective_id" gorm:"not null;index"`
	Title                string          `json:"title" gorm:"size:255;not null"`
	Description          string          `json:"description" gorm:"type:text"`
	Weight               decimal.Decimal `json:"weight" gorm:"type:decimal(5,2);not null;default:0"`
	TargetValue          string          `json:"target_value" gorm:"size:100"`
	ActualValue          string          `json:"actual_value" gorm:"size:100"`
	IsActive             bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt            time.Time       `json:"created_at"`
}

func (StrategicCriteria) TableName() string {
	return "strategic_criteria"
}

// KeyMetric 部门关键指标
type KeyMetric struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	Label     string    `json:"label" gorm:"size:255;not null"`
	Value     string    `json:"value" gorm:"size:100"`
	Trend     string    `json:"trend" gorm:"size:50"`
	IconName  string    `json:"icon_name" gorm:"size:100"`
	BranchID  uint64    `json:"branch_id" gorm:"not null;index"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KeyMetric) TableName() string {
	return "key_metrics"
}

// ActionItem 重点行动 / 近期成果
type ActionItem struct {
	ID            uint64     `json:"id" gorm:"primaryKey"`
	Title         string     `json:"title" gorm:"size:255;not null"`
	Description   string     `json:"description" gorm:"type:text"`
	ActionType    string     `json:"action_type" gorm:"size:20;not null;default:priority;index"`
	DueDate       string     `json:"due_date" gorm:"size:100"`
	BranchID      uint64     `json:"branch_id" gorm:"not null;index"`
	IconName      string     `json:"icon_name" gorm:"size:100"`
	CompletedDate *time.Time `json:"completed_date"`
	IsActive      bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (ActionItem) TableName() string {
	return "action_items"
}
