package repository

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

// ObjectiveRepository 考核目标仓库
type ObjectiveRepository struct {
	db *gorm.DB
}

func NewObjectiveRepository(db *gorm.DB) *ObjectiveRepository {
	return &ObjectiveRepository{db: db}
}

func (r *ObjectiveRepository) filtered(ctx context.Context, scope Scope, filters map[string]interface{}) *gorm.DB {
	query := applyScope(r.db.WithContext(ctx).Model(&entity.PerformanceObjective{}), scope)
	if v, ok := filters["branch_id"]; ok {
		query = query.Where("branch_id = ?", v)
	}
	if v, ok := filters["status"]; ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filters["subtitle_id"]; ok {
		query = query.Where("subtitle_id = ?", v)
	}
	return query
}

// FindAll 分页列表
func (r *ObjectiveRepository) FindAll(ctx context.Context, scope Scope, page, pageSize int, filters map[string]interface{}) ([]entity.PerformanceObjective, int64, error) {
	var items []entity.PerformanceObjective
	var total int64

	query := r.filtered(ctx, scope, filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Preload("Branch").Preload("Subtitle").Preload("Criteria").
		Scopes(paginate(page, pageSize)).
		Order("id ASC").
		Find(&items).Error
	return items, total, err
}

// FindAllUnpaged 分组视图使用的全量列表
func (r *ObjectiveRepository) FindAllUnpaged(ctx context.Context, scope Scope, filters map[string]interface{}) ([]entity.PerformanceObjective, error) {
	var items []entity.PerformanceObjective
	err := r.filtered(ctx, scope, filters).
		Preload("Branch").Preload("Subtitle").Preload("Criteria").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找
func (r *ObjectiveRepository) FindByID(ctx context.Context, id uint64) (*entity.PerformanceObjective, error) {
	var o entity.PerformanceObjective
	err := r.db.WithContext(ctx).
		Preload("Branch").Preload("Subtitle").Preload("Criteria").
		First(&o, id).Error
	if err != nil {
		return nil, translate(err, "objective", id)
	}
	return &o, nil
}

// ExistsScope (部门, 大类, 细项) 是否已存在；细项为空时按 NULL 比较
func (r *ObjectiveRepository) ExistsScope(ctx context.Context, branchID, subtitleID uint64, criteriaID *uint64, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.PerformanceObjective{}).
		Where("branch_id = ? AND subtitle_id = ?", branchID, subtitleID)
	if criteriaID == nil {
		query = query.Where("criteria_id IS NULL")
	} else {
		query = query.Where("criteria_id = ?", *criteriaID)
	}
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Create 创建
func (r *ObjectiveRepository) Create(ctx context.Context, o *entity.PerformanceObjective) error {
	return translate(r.db.WithContext(ctx).Omit("Branch", "Subtitle", "Criteria").Create(o).Error, "objective", nil)
}

// Update 更新业务字段；计量单位轨道的状态和意见同样不可写
func (r *ObjectiveRepository) Update(ctx context.Context, o *entity.PerformanceObjective) error {
	omits := append(append([]string{}, updateOmits...), "unit_of_measure_status", "unit_of_measure_comment")
	err := r.db.WithContext(ctx).Model(o).Select("*").Omit(omits...).Updates(o).Error
	return translate(err, "objective", o.ID)
}

// Delete 删除目标及其季度进展
func (r *ObjectiveRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("objective_id = ?", id).Delete(&entity.QuarterlyProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.PerformanceObjective{}, id).Error
	})
}
