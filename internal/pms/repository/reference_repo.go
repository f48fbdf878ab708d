package repository

import (
	"context"
	"strings"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SubtitleRepository 考核大类仓库
type SubtitleRepository struct {
	db *gorm.DB
}

func NewSubtitleRepository(db *gorm.DB) *SubtitleRepository {
	return &SubtitleRepository{db: db}
}

// FindAll 大类列表
func (r *SubtitleRepository) FindAll(ctx context.Context, search string) ([]entity.Subtitle, error) {
	var items []entity.Subtitle
	query := r.db.WithContext(ctx).Preload("Division")
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+lower(search)+"%")
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找
func (r *SubtitleRepository) FindByID(ctx context.Context, id uint64) (*entity.Subtitle, error) {
	var s entity.Subtitle
	if err := r.db.WithContext(ctx).Preload("Division").First(&s, id).Error; err != nil {
		return nil, translate(err, "subtitle", id)
	}
	return &s, nil
}

// ExistsName 名称是否已存在
func (r *SubtitleRepository) ExistsName(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.Subtitle{}).Where("LOWER(name) = ?", lower(name))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Create 创建
func (r *SubtitleRepository) Create(ctx context.Context, s *entity.Subtitle) error {
	return translate(r.db.WithContext(ctx).Omit("Division").Create(s).Error, "subtitle", nil)
}

// Update 更新
func (r *SubtitleRepository) Update(ctx context.Context, s *entity.Subtitle) error {
	err := r.db.WithContext(ctx).Model(s).Updates(map[string]interface{}{
		"name":        s.Name,
		"division_id": s.DivisionID,
	}).Error
	return translate(err, "subtitle", s.ID)
}

// Delete 删除
func (r *SubtitleRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&entity.Subtitle{}, id).Error
}

// InUse 是否仍被考核记录引用
func (r *SubtitleRepository) InUse(ctx context.Context, id uint64) (bool, error) {
	var n int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.PerformanceObjective{}).Where("subtitle_id = ?", id).Count(&n).Error; err != nil || n > 0 {
		return n > 0, err
	}
	err := db.Model(&entity.Post{}).Where("subtitle_id = ?", id).Count(&n).Error
	return n > 0, err
}

// CriteriaRepository 考核细项仓库
type CriteriaRepository struct {
	db *gorm.DB
}

func NewCriteriaRepository(db *gorm.DB) *CriteriaRepository {
	return &CriteriaRepository{db: db}
}

// FindAll 细项列表
func (r *CriteriaRepository) FindAll(ctx context.Context, search string) ([]entity.Criteria, error) {
	var items []entity.Criteria
	query := r.db.WithContext(ctx)
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+lower(search)+"%")
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找
func (r *CriteriaRepository) FindByID(ctx context.Context, id uint64) (*entity.Criteria, error) {
	var c entity.Criteria
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "criteria", id)
	}
	return &c, nil
}

// ExistsName 名称是否已存在
func (r *CriteriaRepository) ExistsName(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.Criteria{}).Where("LOWER(name) = ?", lower(name))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Create 创建
func (r *CriteriaRepository) Create(ctx context.Context, c *entity.Criteria) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "criteria", nil)
}

// Update 更新
func (r *CriteriaRepository) Update(ctx context.Context, c *entity.Criteria) error {
	err := r.db.WithContext(ctx).Model(c).Updates(map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
	}).Error
	return translate(err, "criteria", c.ID)
}

// Delete 删除细项；考核目标上的引用置空
func (r *CriteriaRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.PerformanceObjective{}).Where("criteria_id = ?", id).
			Update("criteria_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.Post{}).Where("criteria_id = ?", id).
			Update("criteria_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Criteria{}, id).Error
	})
}
