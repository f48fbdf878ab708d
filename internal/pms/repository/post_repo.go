package repository

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

// PostRepository 计分卡行仓库
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// FindAll 列表，scope 为读取范围
func (r *PostRepository) FindAll(ctx context.Context, scope Scope, page, pageSize int, filters map[string]interface{}) ([]entity.Post, int64, error) {
	var items []entity.Post
	var total int64

	query := applyScope(r.db.WithContext(ctx).Model(&entity.Post{}), scope)
	if v, ok := filters["branch_id"]; ok {
		query = query.Where("branch_id = ?", v)
	}
	if v, ok := filters["status"]; ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filters["subtitle_id"]; ok {
		query = query.Where("subtitle_id = ?", v)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Preload("Branch").Preload("Subtitle").Preload("Criteria").
		Scopes(paginate(page, pageSize)).
		Order("id DESC").
		Find(&items).Error
	return items, total, err
}

// FindByID 根据ID查找
func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*entity.Post, error) {
	var p entity.Post
	err := r.db.WithContext(ctx).
		Preload("Branch").Preload("Subtitle").Preload("Criteria").
		First(&p, id).Error
	if err != nil {
		return nil, translate(err, "post", id)
	}
	return &p, nil
}

// Create 创建
func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	return translate(r.db.WithContext(ctx).Omit("Branch", "Subtitle", "Criteria").Create(p).Error, "post", nil)
}

// Update 更新业务字段，审批字段不会被写入
func (r *PostRepository) Update(ctx context.Context, p *entity.Post) error {
	err := r.db.WithContext(ctx).Model(p).Select("*").Omit(updateOmits...).Updates(p).Error
	return translate(err, "post", p.ID)
}

// Delete 删除
func (r *PostRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&entity.Post{}, id).Error
}
