package repository

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

// ActivityLogRepository 审批流转日志仓库
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *ActivityLogRepository) WithTx(tx *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: tx}
}

// Create 写入一条日志
func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity 查询某实体的流转日志
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, entityType string, entityID uint64, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	var items []entity.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("id DESC").
		Scopes(paginate(page, pageSize)).
		Find(&items).Error

	return items, total, err
}
