package entity

import "time"

// Branch 部门（组织单元），通过 ParentID 构成树
type Branch struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Head        string    `json:"head" gorm:"size:255"`
	Description string    `json:"description" gorm:"type:text"`
	ParentID    *uint64   `json:"parent_id" gorm:"index"`
	Parent      *Branch   `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Branch) TableName() string {
	return "branches"
}

// Subtitle 考核大类
type Subtitle struct {
	ID         uint64    `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	DivisionID *uint64   `json:"division_id" gorm:"index"`
	Division   *Branch   `json:"division,omitempty" gorm:"foreignKey:DivisionID"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Subtitle) TableName() string {
	return "subtitles"
}

// Criteria 考核细项
type Criteria struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Criteria) TableName() string {
	return "criteria"
}
