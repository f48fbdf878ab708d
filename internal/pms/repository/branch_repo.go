package repository

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

// BranchRepository 部门仓库
type BranchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) *BranchRepository {
	return &BranchRepository{db: db}
}

// FindAll 部门列表
func (r *BranchRepository) FindAll(ctx context.Context, page, pageSize int, search string) ([]entity.Branch, int64, error) {
	var items []entity.Branch
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Branch{})
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+lower(search)+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Scopes(paginate(page, pageSize)).Order("name ASC").Find(&items).Error
	return items, total, err
}

// FindByID 根据ID查找
func (r *BranchRepository) FindByID(ctx context.Context, id uint64) (*entity.Branch, error) {
	var b entity.Branch
	err := r.db.WithContext(ctx).Preload("Parent").First(&b, id).Error
	if err != nil {
		return nil, translate(err, "branch", id)
	}
	return &b, nil
}

// FindByName 按名称查找，大小写不敏感
func (r *BranchRepository) FindByName(ctx context.Context, name string) (*entity.Branch, error) {
	var b entity.Branch
	err := r.db.WithContext(ctx).Where("LOWER(name) = ?", lower(name)).First(&b).Error
	if err != nil {
		return nil, translate(err, "branch", name)
	}
	return &b, nil
}

// ExistsName 名称是否已被其他部门占用
func (r *BranchRepository) ExistsName(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.Branch{}).Where("LOWER(name) = ?", lower(name))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// ParentOf 父部门ID，根节点返回 nil
func (r *BranchRepository) ParentOf(ctx context.Context, id uint64) (*uint64, error) {
	var b entity.Branch
	err := r.db.WithContext(ctx).Select("id", "parent_id").First(&b, id).Error
	if err != nil {
		return nil, translate(err, "branch", id)
	}
	return b.ParentID, nil
}

// Create 创建部门
func (r *BranchRepository) Create(ctx context.Context, b *entity.Branch) error {
	return translate(r.db.WithContext(ctx).Omit("Parent").Create(b).Error, "branch", nil)
}

// Update 更新部门
func (r *BranchRepository) Update(ctx context.Context, b *entity.Branch) error {
	err := r.db.WithContext(ctx).Model(b).
		Select("name", "head", "description", "parent_id").
		Updates(map[string]interface{}{
			"name":        b.Name,
			"head":        b.Head,
			"description": b.Description,
			"parent_id":   b.ParentID,
		}).Error
	return translate(err, "branch", b.ID)
}

// Delete 删除部门
// CountChildren 直属下级部门数
func (r *BranchRepository) CountChildren(ctx context.Context, id uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Branch{}).Where("parent_id = ?", id).Count(&n).Error
	return n, err
}

// Delete 删除部门及其名下业务数据
//
// 帖子、绩效目标（连同季度进展）、举措（连同行动与审批记录）、战略目标及其看板数据一并删除；
// 用户和细项分类只解除关联。活动日志和通知保留。
func (r *BranchRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		objectives := tx.Model(&entity.PerformanceObjective{}).Select("id").Where("branch_id = ?", id)
		strategic := tx.Model(&entity.StrategicObjective{}).Select("id").Where("branch_id = ?", id)
		initiatives := tx.Model(&entity.Initiative{}).Select("id").
			Where("branch_id = ? OR objective_id IN (?)", id, strategic)

		steps := []struct {
			model interface{}
			query interface{}
			args  []interface{}
		}{
			{&entity.QuarterlyProgress{}, "objective_id IN (?)", []interface{}{objectives}},
			{&entity.PerformanceObjective{}, "branch_id = ?", []interface{}{id}},
			{&entity.Post{}, "branch_id = ?", []interface{}{id}},
			{&entity.InitiativeAction{}, "initiative_id IN (?)", []interface{}{initiatives}},
			{&entity.ApprovalEntry{}, "initiative_id IN (?)", []interface{}{initiatives}},
			{&entity.Initiative{}, "branch_id = ? OR objective_id IN (?)", []interface{}{id, strategic}},
			{&entity.StrategicCriteria{}, "strategic_objective_id IN (?)", []interface{}{strategic}},
			{&entity.StrategicObjective{}, "branch_id = ?", []interface{}{id}},
			{&entity.KeyMetric{}, "branch_id = ?", []interface{}{id}},
			{&entity.ActionItem{}, "branch_id = ?", []interface{}{id}},
		}
		for _, st := range steps {
			if err := tx.Where(st.query, st.args...).Delete(st.model).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&entity.User{}).Where("branch_id = ?", id).Update("branch_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.Subtitle{}).Where("division_id = ?", id).Update("division_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Branch{}, id).Error
	})
}
