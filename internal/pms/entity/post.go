package entity

// Post 部门计分卡行（旧版考核记录）
type Post struct {
	ID         uint64    `json:"id" gorm:"primaryKey"`
	BranchID   uint64    `json:"branch_id" gorm:"not null;index"`
	Branch     *Branch   `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	SubtitleID *uint64   `json:"subtitle_id" gorm:"index"`
	Subtitle   *Subtitle `json:"subtitle,omitempty" gorm:"foreignKey:SubtitleID"`
	CriteriaID *uint64   `json:"criteria_id" gorm:"index"`
	Criteria   *Criteria `json:"criteria,omitempty" gorm:"foreignKey:CriteriaID"`

	UnitOfMeasure          string `json:"unit_of_measure" gorm:"size:255;default:N/A"`
	Weight                 string `json:"weight" gorm:"size:100;default:N/A"`
	StatusYr2024           string `json:"status_yr_2024" gorm:"size:255;default:N/A"`
	AnnualTarget           string `json:"annual_target" gorm:"size:255;default:N/A"`
	CummulativeTarget      string `json:"cummulative_target" gorm:"size:255;default:N/A"`
	CummulativeActual      string `json:"cummulative_actual" gorm:"size:255;default:N/A"`
	StatisticalExplanation string `json:"statistical_explanation" gorm:"type:text;default:N/A"`
	FactorsContributing    string `json:"factors_contributing" gorm:"type:text;default:N/A"`
	RawScore               string `json:"raw_score" gorm:"size:100;default:N/A"`
	WtdScore               string `json:"wtd_score" gorm:"size:100;default:N/A"`
	WtdAchievement         string `json:"wtd_achievement" gorm:"size:100;default:N/A"`
	Rank                   string `json:"rank" gorm:"size:100;default:N/A"`
	StatusOfActivities     string `json:"status_of_activities" gorm:"type:text;default:N/A"`

	WorkflowState
}

func (Post) TableName() string {
	return "posts"
}
