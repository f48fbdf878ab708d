package repository

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
)

// InitiativeRepository 举措仓库
type InitiativeRepository struct {
	db *gorm.DB
}

func NewInitiativeRepository(db *gorm.DB) *InitiativeRepository {
	return &InitiativeRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *InitiativeRepository) WithTx(tx *gorm.DB) *InitiativeRepository {
	return &InitiativeRepository{db: tx}
}

// FindAll 列表
func (r *InitiativeRepository) FindAll(ctx context.Context, scope Scope, page, pageSize int, filters map[string]interface{}) ([]entity.Initiative, int64, error) {
	var items []entity.Initiative
	var total int64

	query := applyScope(r.db.WithContext(ctx).Model(&entity.Initiative{}), scope)
	if v, ok := filters["objective_id"]; ok {
		query = query.Where("objective_id = ?", v)
	}
	if v, ok := filters["status"]; ok {
		query = query.Where("status_code = ?", v)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Objective").Preload("Branch").
		Scopes(paginate(page, pageSize)).
		Order("id DESC").
		Find(&items).Error
	return items, total, err
}

// FindByID 根据ID查找
func (r *InitiativeRepository) FindByID(ctx context.Context, id uint64) (*entity.Initiative, error) {
	var i entity.Initiative
	if err := r.db.WithContext(ctx).Preload("Objective").Preload("Branch").First(&i, id).Error; err != nil {
		return nil, translate(err, "initiative", id)
	}
	return &i, nil
}

// Create 创建
func (r *InitiativeRepository) Create(ctx context.Context, i *entity.Initiative) error {
	return translate(r.db.WithContext(ctx).Omit("Objective", "Branch").Create(i).Error, "initiative", nil)
}

// Update 更新业务字段；状态只能通过审批动作修改
func (r *InitiativeRepository) Update(ctx context.Context, i *entity.Initiative) error {
	err := r.db.WithContext(ctx).Model(i).
		Select("*").
		Omit("status_code", "version", "branch_id", "created_by", "created_at", "Objective", "Branch").
		Updates(i).Error
	return translate(err, "initiative", i.ID)
}

// Delete 删除举措及其执行记录和审批记录
func (r *InitiativeRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("initiative_id = ?", id).Delete(&entity.InitiativeAction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("initiative_id = ?", id).Delete(&entity.ApprovalEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Initiative{}, id).Error
	})
}

// LockForAction 事务内读取举措；postgres 下加行锁
func (r *InitiativeRepository) LockForAction(ctx context.Context, id uint64) (*entity.Initiative, error) {
	var i entity.Initiative
	if err := ForUpdate(r.db.WithContext(ctx)).First(&i, id).Error; err != nil {
		return nil, translate(err, "initiative", id)
	}
	return &i, nil
}

// SetStatus 以 version 做 CAS 写入状态，返回是否命中
func (r *InitiativeRepository) SetStatus(ctx context.Context, id uint64, version int, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Initiative{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"status_code": code,
			"version":     gorm.Expr("version + 1"),
		})
	return res.RowsAffected > 0, res.Error
}

// AppendEntry 追加审批记录
func (r *InitiativeRepository) AppendEntry(ctx context.Context, e *entity.ApprovalEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Entries 审批记录，按时间正序
func (r *InitiativeRepository) Entries(ctx context.Context, initiativeID uint64) ([]entity.ApprovalEntry, error) {
	var items []entity.ApprovalEntry
	err := r.db.WithContext(ctx).Where("initiative_id = ?", initiativeID).Order("id ASC").Find(&items).Error
	return items, err
}

// Statuses 全部审批状态码
func (r *InitiativeRepository) Statuses(ctx context.Context) ([]entity.ApprovalStatus, error) {
	var items []entity.ApprovalStatus
	err := r.db.WithContext(ctx).Order("code ASC").Find(&items).Error
	return items, err
}

// StatusDefined 状态码是否已配置
func (r *InitiativeRepository) StatusDefined(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ApprovalStatus{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// SeedStatuses 写入缺失的审批状态码
func (r *InitiativeRepository) SeedStatuses(ctx context.Context, statuses []entity.ApprovalStatus) (int, error) {
	created := 0
	for _, st := range statuses {
		ok, err := r.StatusDefined(ctx, st.Code)
		if err != nil {
			return created, err
		}
		if ok {
			continue
		}
		st := st
		if err := r.db.WithContext(ctx).Create(&st).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// InitiativeActionRepository 举措执行记录仓库
type InitiativeActionRepository struct {
	db *gorm.DB
}

func NewInitiativeActionRepository(db *gorm.DB) *InitiativeActionRepository {
	return &InitiativeActionRepository{db: db}
}

// FindAll 列表
func (r *InitiativeActionRepository) FindAll(ctx context.Context, scope Scope, page, pageSize int, initiativeID uint64) ([]entity.InitiativeAction, int64, error) {
	var items []entity.InitiativeAction
	var total int64

	query := applyScope(r.db.WithContext(ctx).Model(&entity.InitiativeAction{}), scope)
	if initiativeID != 0 {
		query = query.Where("initiative_id = ?", initiativeID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Scopes(paginate(page, pageSize)).Order("id DESC").Find(&items).Error
	return items, total, err
}

// FindByID 根据ID查找
func (r *InitiativeActionRepository) FindByID(ctx context.Context, id uint64) (*entity.InitiativeAction, error) {
	var a entity.InitiativeAction
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err, "initiative action", id)
	}
	return &a, nil
}

// Create 创建
func (r *InitiativeActionRepository) Create(ctx context.Context, a *entity.InitiativeAction) error {
	return r.db.WithContext(ctx).Omit("Initiative").Create(a).Error
}

// Update 更新
func (r *InitiativeActionRepository) Update(ctx context.Context, a *entity.InitiativeAction) error {
	return r.db.WithContext(ctx).Model(a).
		Select("*").
		Omit("initiative_id", "created_by", "created_at", "Initiative").
		Updates(a).Error
}

// Delete 删除
func (r *InitiativeActionRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&entity.InitiativeAction{}, id).Error
}
