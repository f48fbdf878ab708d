package service

import (
	"context"
	"strings"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"go.uber.org/zap"
)

// UserService 用户管理
type UserService struct {
	repo     *repository.UserRepository
	roles    *repository.RoleRepository
	branches *repository.BranchRepository
	enforcer *authz.Enforcer
	actors   *ActorService
	logger   *zap.Logger
}

func NewUserService(repo *repository.UserRepository, roles *repository.RoleRepository, branches *repository.BranchRepository, enforcer *authz.Enforcer, actors *ActorService, logger *zap.Logger) *UserService {
	return &UserService{
		repo:     repo,
		roles:    roles,
		branches: branches,
		enforcer: enforcer,
		actors:   actors,
		logger:   logger.Named("user"),
	}
}

// CreateUserRequest 新建用户；Role 为空时按是否超级用户分配默认角色
type CreateUserRequest struct {
	Username    string  `json:"username" validate:"required,max=150"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	FirstName   string  `json:"first_name" validate:"max=150"`
	LastName    string  `json:"last_name" validate:"max=150"`
	Role        string  `json:"role"`
	BranchID    *uint64 `json:"branch_id"`
	IsSuperuser bool    `json:"is_superuser"`
}

// UpdateUserRequest 修改用户，nil 字段不修改
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Role      *string `json:"role"`
	BranchID  *uint64 `json:"branch_id"`
	IsActive  *bool   `json:"is_active"`
}

// AssignRoleRequest 分配角色
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// List 用户列表，普通用户只能看到自己
func (s *UserService) List(ctx context.Context, actor *authz.Actor, page, pageSize int, filters map[string]interface{}) ([]entity.User, int64, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjUsers, authz.ActRead); err != nil {
		return nil, 0, err
	}
	return s.repo.FindAll(ctx, authz.Scope(actor, authz.UserTarget), page, pageSize, filters)
}

// Me 当前用户
func (s *UserService) Me(ctx context.Context, actor *authz.Actor) (*entity.User, error) {
	return s.repo.FindByID(ctx, actor.ID)
}

// Get 用户详情
func (s *UserService) Get(ctx context.Context, actor *authz.Actor, id uint64) (*entity.User, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjUsers, authz.ActRead); err != nil {
		return nil, err
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkRead(actor, u.BranchID, &u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Roles 角色表
func (s *UserService) Roles(ctx context.Context) ([]entity.Role, error) {
	return s.roles.List(ctx)
}

// Stats 用户统计，仅管理员
func (s *UserService) Stats(ctx context.Context, actor *authz.Actor) (*repository.UserStats, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjUsers, authz.ActStats); err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx)
}

// checkRole 角色编码必须存在于角色表
func (s *UserService) checkRole(ctx context.Context, code string) error {
	codes, err := s.roles.Codes(ctx)
	if err != nil {
		return err
	}
	return oneOf("role", code, codes)
}

func (s *UserService) checkBranch(ctx context.Context, branchID *uint64) error {
	if branchID == nil {
		return nil
	}
	_, err := s.branches.FindByID(ctx, *branchID)
	return err
}

func (s *UserService) checkUnique(ctx context.Context, username, email string, excludeID uint64) error {
	fields := map[string]string{}
	if username != "" {
		taken, err := s.repo.ExistsUsername(ctx, username, excludeID)
		if err != nil {
			return err
		}
		if taken {
			fields["username"] = "A user with that username already exists."
		}
	}
	if email != "" {
		taken, err := s.repo.ExistsEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			fields["email"] = "user with this email already exists."
		}
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

// DefaultRole 新用户的默认角色
func DefaultRole(isSuperuser bool) string {
	if isSuperuser {
		return entity.RoleAdmin
	}
	return entity.RoleStaff
}

// Create 新建用户：同一事务内先写入（角色为空），再单独分配角色
func (s *UserService) Create(ctx context.Context, actor *authz.Actor, req *CreateUserRequest) (*entity.User, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjUsers, authz.ActCreate); err != nil {
		return nil, err
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role != "" {
		if err := s.checkRole(ctx, req.Role); err != nil {
			return nil, err
		}
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, req.Username, req.Email, 0); err != nil {
		return nil, err
	}
	if err := s.checkBranch(ctx, req.BranchID); err != nil {
		return nil, err
	}

	u := &entity.User{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		BranchID:    req.BranchID,
		IsActive:    true,
		IsSuperuser: req.IsSuperuser,
	}
	role := req.Role
	if role == "" {
		role = DefaultRole(u.IsSuperuser)
	}
	err := s.repo.Transaction(ctx, func(repo *repository.UserRepository) error {
		if err := repo.Create(ctx, u); err != nil {
			return err
		}
		return repo.AssignRole(ctx, u.ID, role)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.Uint64("id", u.ID),
		zap.String("username", u.Username),
		zap.String("role", role),
		zap.Uint64("operator_id", actor.ID),
	)
	return s.repo.FindByID(ctx, u.ID)
}

// Update 修改用户
//
// 普通用户可以修改自己的资料，但不能改自己的角色；部门和启用状态只有管理员能改。
func (s *UserService) Update(ctx context.Context, actor *authz.Actor, id uint64, req *UpdateUserRequest) (*entity.User, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjUsers, authz.ActUpdate); err != nil {
		return nil, err
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkWrite(actor, u.BranchID, &u.ID); err != nil && u.ID != actor.ID {
		return nil, err
	}
	if !actor.IsAdmin() {
		if req.Role != nil && *req.Role != u.RoleValue() {
			return nil, apperr.Denied("only administrators can change roles")
		}
		if req.BranchID != nil || req.IsActive != nil {
			return nil, apperr.Denied("only administrators can change branch or account status")
		}
	}
	if req.Role != nil {
		if err := s.checkRole(ctx, *req.Role); err != nil {
			return nil, err
		}
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if err := s.checkUnique(ctx, "", email, id); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if req.FirstName != nil {
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		fields["last_name"] = *req.LastName
	}
	if req.Role != nil {
		fields["role_code"] = *req.Role
	}
	if req.BranchID != nil {
		if err := s.checkBranch(ctx, req.BranchID); err != nil {
			return nil, err
		}
		fields["branch_id"] = *req.BranchID
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	s.actors.Invalidate(ctx, id)
	return s.repo.FindByID(ctx, id)
}

// Delete 删除用户，不能删除自己
func (s *UserService) Delete(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjUsers, authz.ActDelete); err != nil {
		return err
	}
	if id == actor.ID {
		return apperr.Denied("you cannot delete your own account")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.actors.Invalidate(ctx, id)
	s.logger.Info("user deleted", zap.Uint64("id", id), zap.Uint64("operator_id", actor.ID))
	return nil
}

// AssignRole 分配角色，仅管理员
func (s *UserService) AssignRole(ctx context.Context, actor *authz.Actor, id uint64, req *AssignRoleRequest) (*entity.User, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjUsers, authz.ActAssignRole); err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, req.Role); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.AssignRole(ctx, id, req.Role); err != nil {
		return nil, err
	}
	s.actors.Invalidate(ctx, id)
	return s.repo.FindByID(ctx, id)
}
