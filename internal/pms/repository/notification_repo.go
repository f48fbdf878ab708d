package repository

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

// NotificationRepository 通知仓库
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// FindByRecipient 某用户的通知，最新在前
func (r *NotificationRepository) FindByRecipient(ctx context.Context, recipientID uint64, unreadOnly bool, page, pageSize int) ([]entity.Notification, int64, error) {
	var items []entity.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Scopes(paginate(page, pageSize)).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, total, err
}

// CountUnread 未读数
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 标记已读，只能操作自己的通知
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID uint64) error {
	res := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "notification", id)
	}
	return nil
}

// MarkAllRead 全部标记已读，返回更新条数
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
