package entity

// Models 需要 AutoMigrate 的全部模型
func Models() []interface{} {
	return []interface{}{
		&Branch{},
		&Role{},
		&User{},
		&Subtitle{},
		&Criteria{},
		&Post{},
		&PerformanceObjective{},
		&QuarterlyProgress{},
		&StrategicObjective{},
		&StrategicCriteria{},
		&KeyMetric{},
		&ActionItem{},
		&ApprovalStatus{},
		&Initiative{},
		&InitiativeAction{},
		&ApprovalEntry{},
		&Notification{},
		&ActivityLog{},
	}
}
