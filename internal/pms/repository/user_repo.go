package repository

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

// UserRepository 用户仓库
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindAll 用户列表
func (r *UserRepository) FindAll(ctx context.Context, scope Scope, page, pageSize int, filters map[string]interface{}) ([]entity.User, int64, error) {
	var items []entity.User
	var total int64

	query := applyScope(r.db.WithContext(ctx).Model(&entity.User{}), scope)
	if v, ok := filters["search"].(string); ok && v != "" {
		like := "%" + lower(v) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like, like)
	}
	if v, ok := filters["role"]; ok {
		query = query.Where("role_code = ?", v)
	}
	if v, ok := filters["branch_id"]; ok {
		query = query.Where("branch_id = ?", v)
	}
	if v, ok := filters["is_active"]; ok {
		query = query.Where("is_active = ?", v)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Role").Preload("Branch").
		Scopes(paginate(page, pageSize)).
		Order("id ASC").
		Find(&items).Error
	return items, total, err
}

// FindByID 根据ID查找
func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Preload("Role").Preload("Branch").First(&u, id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return &u, nil
}

// ExistsUsername 用户名是否被占用
func (r *UserRepository) ExistsUsername(ctx context.Context, username string, excludeID uint64) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

// ExistsEmail 邮箱是否被占用
func (r *UserRepository) ExistsEmail(ctx context.Context, email string, excludeID uint64) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *UserRepository) exists(ctx context.Context, column, value string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.User{}).Where("LOWER("+column+") = ?", lower(value))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Create 创建
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	return translate(r.db.WithContext(ctx).Omit("Role", "Branch").Create(u).Error, "user", nil)
}

// Transaction 在同一事务内执行 fn，fn 拿到绑定事务的仓库
func (r *UserRepository) Transaction(ctx context.Context, fn func(repo *UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx})
	})
}

// UpdateFields 更新指定字段
func (r *UserRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Updates(fields).Error
	return translate(err, "user", id)
}

// AssignRole 设置角色
func (r *UserRepository) AssignRole(ctx context.Context, id uint64, roleCode string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"role_code": roleCode})
}

// Delete 删除
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&entity.User{}, id).Error
}

// RoleCount 角色人数
type RoleCount struct {
	RoleCode string `json:"role"`
	Count    int64  `json:"count"`
}

// UserStats 用户统计
type UserStats struct {
	Total    int64       `json:"total"`
	Active   int64       `json:"active"`
	Inactive int64       `json:"inactive"`
	ByRole   []RoleCount `json:"by_role"`
}

// Stats 用户统计
func (r *UserRepository) Stats(ctx context.Context) (*UserStats, error) {
	db := r.db.WithContext(ctx)
	stats := &UserStats{}
	if err := db.Model(&entity.User{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.User{}).Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	stats.Inactive = stats.Total - stats.Active
	err := db.Model(&entity.User{}).
		Select("COALESCE(role_code, '') AS role_code, COUNT(*) AS count").
		Group("role_code").
		Order("role_code").
		Scan(&stats.ByRole).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RoleRepository 角色仓库
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// List 全部角色
func (r *RoleRepository) List(ctx context.Context) ([]entity.Role, error) {
	var items []entity.Role
	err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

// Codes 可选的角色编码
func (r *RoleRepository) Codes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Model(&entity.Role{}).Order("id ASC").Pluck("code", &codes).Error
	return codes, err
}

// FindByCode 按编码查找
func (r *RoleRepository) FindByCode(ctx context.Context, code string) (*entity.Role, error) {
	var role entity.Role
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&role).Error; err != nil {
		return nil, translate(err, "role", code)
	}
	return &role, nil
}

// Seed 写入缺失的系统角色
func (r *RoleRepository) Seed(ctx context.Context, roles []entity.Role) (int, error) {
	created := 0
	for _, role := range roles {
		var count int64
		if err := r.db.WithContext(ctx).Model(&entity.Role{}).Where("code = ?", role.Code).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}
		role := role
		if err := r.db.WithContext(ctx).Create(&role).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
