package service

import (
	"errors"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/cache"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrStorageUnavailable 未配置对象存储
var ErrStorageUnavailable = errors.New("evidence storage is not configured")

// Deps 构建服务所需的依赖
type Deps struct {
	DB       *gorm.DB
	Repos    *repository.Repositories
	Enforcer *authz.Enforcer
	Notifier Notifier
	Cache    *cache.Cache
	Evidence EvidenceStore
	Logger   *zap.Logger
}

// Services 服务集合
type Services struct {
	Actor        *ActorService
	Workflow     *WorkflowService
	Branch       *BranchService
	Reference    *ReferenceService
	Post         *PostService
	Objective    *ObjectiveService
	Quarter      *QuarterService
	Initiative   *InitiativeService
	Notification *NotificationService
	User         *UserService
	Strategic    *StrategicService
}

// NewServices 创建服务集合
func NewServices(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := d.Repos
	actor := NewActorService(r.User, d.Cache, d.Logger)
	return &Services{
		Actor:        actor,
		Workflow:     NewWorkflowService(d.DB, NewCatalog(), d.Enforcer, d.Notifier, r.ActivityLog, d.Logger),
		Branch:       NewBranchService(r.Branch, d.Enforcer),
		Reference:    NewReferenceService(r.Subtitle, r.Criteria, d.Enforcer),
		Post:         NewPostService(r.Post, r.Branch, d.Enforcer),
		Objective:    NewObjectiveService(r.Objective, r.Quarter, r.Branch, r.Subtitle, d.Enforcer),
		Quarter:      NewQuarterService(r.Quarter, r.Objective, d.Enforcer, d.Evidence, d.Logger),
		Initiative:   NewInitiativeService(d.DB, r.Initiative, r.InitiativeAction, r.Strategic, d.Enforcer, d.Notifier, d.Logger),
		Notification: NewNotificationService(r.Notification, d.Cache, d.Logger),
		User:         NewUserService(r.User, r.Role, r.Branch, d.Enforcer, actor, d.Logger),
		Strategic:    NewStrategicService(r.Strategic, r.Branch, d.Enforcer),
	}
}

// canCreateIn 非管理员只能在自己部门下新建
func canCreateIn(a *authz.Actor, branchID uint64) error {
	if a.IsAdmin() || a.InBranch(&branchID) {
		return nil
	}
	return apperr.Denied("you can only create records in your own branch")
}

// checkRead 单行读取范围
func checkRead(a *authz.Actor, branchID, ownerID *uint64) error {
	if authz.CanRead(a, branchID, ownerID) {
		return nil
	}
	return apperr.Denied("record is outside your scope")
}

// checkWrite 单行写入范围
func checkWrite(a *authz.Actor, branchID, ownerID *uint64) error {
	if authz.CanWrite(a, branchID, ownerID) {
		return nil
	}
	return apperr.Denied("record is outside your scope")
}

// checkUnlocked 锁定中的记录只允许管理员修改
func checkUnlocked(a *authz.Actor, locked bool) error {
	if locked && !a.IsAdmin() {
		return apperr.Conflict("record is locked")
	}
	return nil
}
