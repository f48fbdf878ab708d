package repository

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

// QuarterRepository 季度进展仓库
type QuarterRepository struct {
	db *gorm.DB
}

func NewQuarterRepository(db *gorm.DB) *QuarterRepository {
	return &QuarterRepository{db: db}
}

func preloadObjective(db *gorm.DB) *gorm.DB {
	return db.Preload("Objective").
		Preload("Objective.Branch").
		Preload("Objective.Subtitle").
		Preload("Objective.Criteria")
}

// FindAll 列表
func (r *QuarterRepository) FindAll(ctx context.Context, scope Scope, page, pageSize int, filters map[string]interface{}) ([]entity.QuarterlyProgress, int64, error) {
	var items []entity.QuarterlyProgress
	var total int64

	query := applyScope(r.db.WithContext(ctx).Model(&entity.QuarterlyProgress{}), scope)
	if v, ok := filters["objective_id"]; ok {
		query = query.Where("objective_id = ?", v)
	}
	if v, ok := filters["year"]; ok {
		query = query.Where("year = ?", v)
	}
	if v, ok := filters["status"]; ok {
		query = query.Where("status = ?", v)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Scopes(preloadObjective, paginate(page, pageSize)).
		Order("year DESC, quarter DESC, id DESC").
		Find(&items).Error
	return items, total, err
}

// FindByID 根据ID查找
func (r *QuarterRepository) FindByID(ctx context.Context, id uint64) (*entity.QuarterlyProgress, error) {
	var q entity.QuarterlyProgress
	if err := r.db.WithContext(ctx).Scopes(preloadObjective).First(&q, id).Error; err != nil {
		return nil, translate(err, "quarter", id)
	}
	return &q, nil
}

// FindByPeriod 按 (目标, 年, 季度) 查找，不存在返回 nil
func (r *QuarterRepository) FindByPeriod(ctx context.Context, objectiveID uint64, year, quarter int) (*entity.QuarterlyProgress, error) {
	var items []entity.QuarterlyProgress
	err := r.db.WithContext(ctx).
		Where("objective_id = ? AND year = ? AND quarter = ?", objectiveID, year, quarter).
		Limit(1).Find(&items).Error
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// ExistsPeriod 该期间是否已被其他记录占用
func (r *QuarterRepository) ExistsPeriod(ctx context.Context, objectiveID uint64, year, quarter int, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.QuarterlyProgress{}).
		Where("objective_id = ? AND year = ? AND quarter = ?", objectiveID, year, quarter)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Create 创建
func (r *QuarterRepository) Create(ctx context.Context, q *entity.QuarterlyProgress) error {
	return translate(r.db.WithContext(ctx).Omit("Objective").Create(q).Error, "quarter", nil)
}

// Update 更新业务字段；目标和期间不可修改
func (r *QuarterRepository) Update(ctx context.Context, q *entity.QuarterlyProgress) error {
	omits := append(append([]string{}, updateOmits...), "objective_id", "year", "quarter", "evidence_key")
	err := r.db.WithContext(ctx).Model(q).Select("*").Omit(omits...).Updates(q).Error
	return translate(err, "quarter", q.ID)
}

// SetEvidence 记录证明材料的对象 key
func (r *QuarterRepository) SetEvidence(ctx context.Context, id uint64, key string) error {
	return r.db.WithContext(ctx).Model(&entity.QuarterlyProgress{}).
		Where("id = ?", id).Update("evidence_key", key).Error
}

// Delete 删除
func (r *QuarterRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&entity.QuarterlyProgress{}, id).Error
}
