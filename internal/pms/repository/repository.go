package repository

import (
	"errors"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope 读取范围过滤，由 authz.Scope 生成
type Scope func(*gorm.DB) *gorm.DB

// Repositories 仓库集合
type Repositories struct {
	Branch           *BranchRepository
	Subtitle         *SubtitleRepository
	Criteria         *CriteriaRepository
	Post             *PostRepository
	Objective        *ObjectiveRepository
	Quarter          *QuarterRepository
	Initiative       *InitiativeRepository
	InitiativeAction *InitiativeActionRepository
	User             *UserRepository
	Role             *RoleRepository
	Notification     *NotificationRepository
	Strategic        *StrategicRepository
	ActivityLog      *ActivityLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Branch:           NewBranchRepository(db),
		Subtitle:         NewSubtitleRepository(db),
		Criteria:         NewCriteriaRepository(db),
		Post:             NewPostRepository(db),
		Objective:        NewObjectiveRepository(db),
		Quarter:          NewQuarterRepository(db),
		Initiative:       NewInitiativeRepository(db),
		InitiativeAction: NewInitiativeActionRepository(db),
		User:             NewUserRepository(db),
		Role:             NewRoleRepository(db),
		Notification:     NewNotificationRepository(db),
		Strategic:        NewStrategicRepository(db),
		ActivityLog:      NewActivityLogRepository(db),
	}
}

// updateOmits 通用更新排除审批字段和关联
var updateOmits = append(append([]string{}, entity.GuardedColumns...), clause.Associations)

// translate gorm 错误转为业务错误
func translate(err error, resource string, id interface{}) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(resource, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Invalid(resource, "a "+resource+" with these values already exists")
	default:
		return err
	}
}

func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

func applyScope(db *gorm.DB, scope Scope) *gorm.DB {
	if scope == nil {
		return db
	}
	return db.Scopes(scope)
}

// ForUpdate postgres 下追加 FOR UPDATE；sqlite 不支持行锁，只依赖 version CAS
func ForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
