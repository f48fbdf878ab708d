package repository

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

// StrategicRepository 战略看板仓库
type StrategicRepository struct {
	db *gorm.DB
}

func NewStrategicRepository(db *gorm.DB) *StrategicRepository {
	return &StrategicRepository{db: db}
}

// FindObjectives 启用中的战略目标，branchID 为 0 时不过滤
func (r *StrategicRepository) FindObjectives(ctx context.Context, branchID uint64) ([]entity.StrategicObjective, error) {
	var items []entity.StrategicObjective
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if branchID != 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	err := query.Preload("Criteria", "is_active = ?", true).Order("id ASC").Find(&items).Error
	return items, err
}

// FindObjectiveByID 根据ID查找
func (r *StrategicRepository) FindObjectiveByID(ctx context.Context, id uint64) (*entity.StrategicObjective, error) {
	var o entity.StrategicObjective
	if err := r.db.WithContext(ctx).Preload("Criteria").Preload("Branch").First(&o, id).Error; err != nil {
		return nil, translate(err, "strategic objective", id)
	}
	return &o, nil
}

// CreateObjective 创建战略目标
func (r *StrategicRepository) CreateObjective(ctx context.Context, o *entity.StrategicObjective) error {
	return r.db.WithContext(ctx).Omit("Branch").Create(o).Error
}

// UpdateObjective 更新战略目标
func (r *StrategicRepository) UpdateObjective(ctx context.Context, o *entity.StrategicObjective) error {
	return r.db.WithContext(ctx).Model(o).
		Select("*").
		Omit("created_at", "Branch", "Criteria").
		Updates(o).Error
}

// DeleteObjective 删除战略目标及其衡量标准，下属举措连同行动和审批记录一并删除
func (r *StrategicRepository) DeleteObjective(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		initiatives := tx.Model(&entity.Initiative{}).Select("id").Where("objective_id = ?", id)
		if err := tx.Where("initiative_id IN (?)", initiatives).Delete(&entity.InitiativeAction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("initiative_id IN (?)", initiatives).Delete(&entity.ApprovalEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("objective_id = ?", id).Delete(&entity.Initiative{}).Error; err != nil {
			return err
		}
		if err := tx.Where("strategic_objective_id = ?", id).Delete(&entity.StrategicCriteria{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.StrategicObjective{}, id).Error
	})
}

// FindKeyMetrics 启用中的关键指标
func (r *StrategicRepository) FindKeyMetrics(ctx context.Context, branchID uint64) ([]entity.KeyMetric, error) {
	var items []entity.KeyMetric
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if branchID != 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	err := query.Order("id ASC").Find(&items).Error
	return items, err
}

// CreateKeyMetric 创建关键指标
func (r *StrategicRepository) CreateKeyMetric(ctx context.Context, m *entity.KeyMetric) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// FindActionItems 启用中的行动项，actionType 为空时不过滤
func (r *StrategicRepository) FindActionItems(ctx context.Context, branchID uint64, actionType string) ([]entity.ActionItem, error) {
	var items []entity.ActionItem
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if branchID != 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	if actionType != "" {
		query = query.Where("action_type = ?", actionType)
	}
	err := query.Order("id ASC").Find(&items).Error
	return items, err
}

// CreateActionItem 创建行动项
func (r *StrategicRepository) CreateActionItem(ctx context.Context, a *entity.ActionItem) error {
	return r.db.WithContext(ctx).Create(a).Error
}
