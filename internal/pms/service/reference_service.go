package service

import (
	"context"
	"strings"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
)

// ReferenceService 考核大类/细项服务
type ReferenceService struct {
	subtitles *repository.SubtitleRepository
	criteria  *repository.CriteriaRepository
	enforcer  *authz.Enforcer
}

func NewReferenceService(subtitles *repository.SubtitleRepository, criteria *repository.CriteriaRepository, enforcer *authz.Enforcer) *ReferenceService {
	return &ReferenceService{subtitles: subtitles, criteria: criteria, enforcer: enforcer}
}

// SubtitleRequest 大类请求
type SubtitleRequest struct {
	Name       string  `json:"name" validate:"required,max=255"`
	DivisionID *uint64 `json:"division_id"`
}

// CriteriaRequest 细项请求
type CriteriaRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

// ListSubtitles 大类列表
func (s *ReferenceService) ListSubtitles(ctx context.Context, actor *authz.Actor, search string) ([]entity.Subtitle, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjReference, authz.ActRead); err != nil {
		return nil, err
	}
	return s.subtitles.FindAll(ctx, search)
}

// GetSubtitle 大类详情
func (s *ReferenceService) GetSubtitle(ctx context.Context, actor *authz.Actor, id uint64) (*entity.Subtitle, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjReference, authz.ActRead); err != nil {
		return nil, err
	}
	return s.subtitles.FindByID(ctx, id)
}

// SaveSubtitle 新建（id 为 0）或更新大类
func (s *ReferenceService) SaveSubtitle(ctx context.Context, actor *authz.Actor, id uint64, req *SubtitleRequest) (*entity.Subtitle, error) {
	act := authz.ActCreate
	if id != 0 {
		act = authz.ActUpdate
	}
	if err := s.enforcer.Authorize(actor, authz.ObjReference, act); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	exists, err := s.subtitles.ExistsName(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Invalid("name", "subtitle with this name already exists.")
	}

	sub := &entity.Subtitle{ID: id}
	if id != 0 {
		if sub, err = s.subtitles.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}
	sub.Name = strings.TrimSpace(req.Name)
	sub.DivisionID = req.DivisionID
	if id == 0 {
		err = s.subtitles.Create(ctx, sub)
	} else {
		err = s.subtitles.Update(ctx, sub)
	}
	if err != nil {
		return nil, err
	}
	return s.subtitles.FindByID(ctx, sub.ID)
}

// DeleteSubtitle 删除大类；仍被引用时拒绝
func (s *ReferenceService) DeleteSubtitle(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjReference, authz.ActDelete); err != nil {
		return err
	}
	if _, err := s.subtitles.FindByID(ctx, id); err != nil {
		return err
	}
	inUse, err := s.subtitles.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apperr.Invalid("subtitle", "Subtitle is still used by objectives or posts.")
	}
	return s.subtitles.Delete(ctx, id)
}

// ListCriteria 细项列表
func (s *ReferenceService) ListCriteria(ctx context.Context, actor *authz.Actor, search string) ([]entity.Criteria, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjReference, authz.ActRead); err != nil {
		return nil, err
	}
	return s.criteria.FindAll(ctx, search)
}

// GetCriteria 细项详情
func (s *ReferenceService) GetCriteria(ctx context.Context, actor *authz.Actor, id uint64) (*entity.Criteria, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjReference, authz.ActRead); err != nil {
		return nil, err
	}
	return s.criteria.FindByID(ctx, id)
}

// SaveCriteria 新建（id 为 0）或更新细项
func (s *ReferenceService) SaveCriteria(ctx context.Context, actor *authz.Actor, id uint64, req *CriteriaRequest) (*entity.Criteria, error) {
	act := authz.ActCreate
	if id != 0 {
		act = authz.ActUpdate
	}
	if err := s.enforcer.Authorize(actor, authz.ObjReference, act); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	exists, err := s.criteria.ExistsName(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Invalid("name", "criteria with this name already exists.")
	}

	c := &entity.Criteria{ID: id}
	if id != 0 {
		if c, err = s.criteria.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}
	c.Name = strings.TrimSpace(req.Name)
	c.Description = req.Description
	if id == 0 {
		err = s.criteria.Create(ctx, c)
	} else {
		err = s.criteria.Update(ctx, c)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCriteria 删除细项，引用处置空
func (s *ReferenceService) DeleteCriteria(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjReference, authz.ActDelete); err != nil {
		return err
	}
	if _, err := s.criteria.FindByID(ctx, id); err != nil {
		return err
	}
	return s.criteria.Delete(ctx, id)
}
