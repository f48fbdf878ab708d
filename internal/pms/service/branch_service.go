package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
)

// maxBranchDepth 父链遍历上限，超过视为成环
const maxBranchDepth = 64

// BranchService 部门服务
type BranchService struct {
	repo     *repository.BranchRepository
	enforcer *authz.Enforcer
}

func NewBranchService(repo *repository.BranchRepository, enforcer *authz.Enforcer) *BranchService {
	return &BranchService{repo: repo, enforcer: enforcer}
}

// BranchRequest 新建/更新请求
type BranchRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Head        string  `json:"head" validate:"max=255"`
	Description string  `json:"description"`
	ParentID    *uint64 `json:"parent_id"`
}

// List 列表
func (s *BranchService) List(ctx context.Context, actor *authz.Actor, page, pageSize int, search string) ([]entity.Branch, int64, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjBranches, authz.ActRead); err != nil {
		return nil, 0, err
	}
	return s.repo.FindAll(ctx, page, pageSize, search)
}

// Get 详情
func (s *BranchService) Get(ctx context.Context, actor *authz.Actor, id uint64) (*entity.Branch, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjBranches, authz.ActRead); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Create 新建
func (s *BranchService) Create(ctx context.Context, actor *authz.Actor, req *BranchRequest) (*entity.Branch, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjBranches, authz.ActCreate); err != nil {
		return nil, err
	}
	if err := s.check(ctx, req, 0); err != nil {
		return nil, err
	}
	b := &entity.Branch{
		Name:        strings.TrimSpace(req.Name),
		Head:        req.Head,
		Description: req.Description,
		ParentID:    req.ParentID,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, b.ID)
}

// Update 修改，含重新指定上级
func (s *BranchService) Update(ctx context.Context, actor *authz.Actor, id uint64, req *BranchRequest) (*entity.Branch, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjBranches, authz.ActUpdate); err != nil {
		return nil, err
	}
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, req, id); err != nil {
		return nil, err
	}
	b.Name = strings.TrimSpace(req.Name)
	b.Head = req.Head
	b.Description = req.Description
	b.ParentID = req.ParentID
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *BranchService) check(ctx context.Context, req *BranchRequest, id uint64) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	exists, err := s.repo.ExistsName(ctx, req.Name, id)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Invalid("name", "branch with this name already exists.")
	}
	if req.ParentID != nil {
		return s.checkParent(ctx, id, *req.ParentID)
	}
	return nil
}

// checkParent 沿父链向上走，遇到自身即成环；id 为 0 表示新建
func (s *BranchService) checkParent(ctx context.Context, id, parentID uint64) error {
	cur := parentID
	for depth := 0; depth < maxBranchDepth; depth++ {
		if id != 0 && cur == id {
			return apperr.Invalid("parent_id", "A branch cannot be its own ancestor.")
		}
		next, err := s.repo.ParentOf(ctx, cur)
		if err != nil {
			var nf *apperr.NotFoundError
			if depth == 0 && errors.As(err, &nf) {
				return apperr.Invalid("parent_id", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", parentID))
			}
			return err
		}
		if next == nil {
			return nil
		}
		cur = *next
	}
	return apperr.Invalid("parent_id", "Branch hierarchy is too deep or contains a cycle.")
}

// Delete 删除部门，名下业务数据级联删除；仍有下级部门时拒绝
func (s *BranchService) Delete(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjBranches, authz.ActDelete); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return apperr.Invalid("branch", "Branch still has sub-branches; move or delete them first.")
	}
	return s.repo.Delete(ctx, id)
}
