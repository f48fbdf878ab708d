package entity

import "time"

// Notification 站内通知，创建后只允许修改已读标记
type Notification struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	RecipientID uint64    `json:"recipient_id" gorm:"not null;index:idx_notification_recipient"`
	Message     string    `json:"message" gorm:"type:text;not null"`
	URL         string    `json:"url" gorm:"size:255"`
	IsRead      bool      `json:"is_read" gorm:"not null;default:false;index:idx_notification_recipient"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ActivityLog 审批流转日志
type ActivityLog struct {
	ID         uint64    `json:"id" gorm:"primaryKey"`
	EntityType string    `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"`
	EntityID   uint64    `json:"entity_id" gorm:"not null;index:idx_activity_entity"`
	Action     string    `json:"action" gorm:"size:50;not null"`
	FromStatus string    `json:"from_status" gorm:"size:30"`
	ToStatus   string    `json:"to_status" gorm:"size:30"`
	Comment    string    `json:"comment" gorm:"type:text"`
	OperatorID uint64    `json:"operator_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
