package entity

import "github.com/shopspring/decimal"

// PerformanceObjective 年度考核目标（基线）
// 主审批流 + 计量单位审批流两条独立轨道
type PerformanceObjective struct {
	ID         uint64    `json:"id" gorm:"primaryKey"`
	BranchID   uint64    `json:"branch_id" gorm:"not null;uniqueIndex:idx_objective_scope"`
	Branch     *Branch   `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	SubtitleID uint64    `json:"subtitle_id" gorm:"not null;uniqueIndex:idx_objective_scope"`
	Subtitle   *Subtitle `json:"subtitle,omitempty" gorm:"foreignKey:SubtitleID"`
	CriteriaID *uint64   `json:"criteria_id" gorm:"uniqueIndex:idx_objective_scope"`
	Criteria   *Criteria `json:"criteria,omitempty" gorm:"foreignKey:CriteriaID;constraint:OnDelete:SET NULL"`

	UnitOfMeasure string          `json:"unit_of_measure" gorm:"size:255"`
	Weight        decimal.Decimal `json:"weight" gorm:"type:decimal(6,2);not null;default:0"`
	AnnualTarget  string          `json:"annual_target" gorm:"size:255"`
	Description   string          `json:"description" gorm:"type:text"`

	UnitOfMeasureStatus  string  `json:"unit_of_measure_status" gorm:"size:20;not null;default:DRAFT"`
	UnitOfMeasureComment *string `json:"unit_of_measure_comment" gorm:"type:text"`

	WorkflowState
}

func (PerformanceObjective) TableName() string {
	return "performance_objectives"
}

// Label 通知中使用的 "大类 - 细项"
func (o *PerformanceObjective) Label() string {
	subtitle := ""
	if o.Subtitle != nil {
		subtitle = o.Subtitle.Name
	}
	criteria := "General"
	if o.Criteria != nil {
		criteria = o.Criteria.Name
	}
	return subtitle + " - " + criteria
}

// QuarterlyProgress 季度进展，按 (objective, year, quarter) 唯一
type QuarterlyProgress struct {
	ID          uint64                `json:"id" gorm:"primaryKey"`
	ObjectiveID uint64                `json:"objective_id" gorm:"not null;uniqueIndex:idx_quarter_period"`
	Objective   *PerformanceObjective `json:"objective,omitempty" gorm:"foreignKey:ObjectiveID;constraint:OnDelete:CASCADE"`
	Year        int                   `json:"year" gorm:"not null;uniqueIndex:idx_quarter_period"`
	Quarter     int                   `json:"quarter" gorm:"not null;uniqueIndex:idx_quarter_period"`

	TargetQuarter       string `json:"target_quarter" gorm:"size:255"`
	ActualQuarter       string `json:"actual_quarter" gorm:"size:255"`
	CumulativeActual    string `json:"cumulative_actual" gorm:"size:255"`
	Explanation         string `json:"explanation" gorm:"type:text"`
	ContributingFactors string `json:"contributing_factors" gorm:"type:text"`
	RawScore            string `json:"raw_score" gorm:"size:100"`
	WtdScore            string `json:"wtd_score" gorm:"size:100"`
	WtdAchievement      string `json:"wtd_achievement" gorm:"size:100"`
	Rank                string `json:"rank" gorm:"size:100"`
	EvidenceKey         string `json:"evidence_key" gorm:"size:512"`

	WorkflowState
}

func (QuarterlyProgress) TableName() string {
	return "quarterly_progresses"
}
