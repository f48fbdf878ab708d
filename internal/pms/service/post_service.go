package service

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
)

// PostService 计分卡行服务
type PostService struct {
	repo     *repository.PostRepository
	branches *repository.BranchRepository
	enforcer *authz.Enforcer
}

func NewPostService(repo *repository.PostRepository, branches *repository.BranchRepository, enforcer *authz.Enforcer) *PostService {
	return &PostService{repo: repo, branches: branches, enforcer: enforcer}
}

// PostRequest 新建/更新请求，空字符串按 N/A 保存
type PostRequest struct {
	BranchID               uint64  `json:"branch_id" validate:"required"`
	SubtitleID             *uint64 `json:"subtitle_id"`
	CriteriaID             *uint64 `json:"criteria_id"`
	UnitOfMeasure          string  `json:"unit_of_measure"`
	Weight                 string  `json:"weight"`
	StatusYr2024           string  `json:"status_yr_2024"`
	AnnualTarget           string  `json:"annual_target"`
	CummulativeTarget      string  `json:"cummulative_target"`
	CummulativeActual      string  `json:"cummulative_actual"`
	StatisticalExplanation string  `json:"statistical_explanation"`
	FactorsContributing    string  `json:"factors_contributing"`
	RawScore               string  `json:"raw_score"`
	WtdScore               string  `json:"wtd_score"`
	WtdAchievement         string  `json:"wtd_achievement"`
	Rank                   string  `json:"rank"`
	StatusOfActivities     string  `json:"status_of_activities"`
}

func (req *PostRequest) apply(p *entity.Post) {
	p.BranchID = req.BranchID
	p.SubtitleID = req.SubtitleID
	p.CriteriaID = req.CriteriaID
	p.UnitOfMeasure = entity.OrNA(req.UnitOfMeasure)
	p.Weight = entity.OrNA(req.Weight)
	p.StatusYr2024 = entity.OrNA(req.StatusYr2024)
	p.AnnualTarget = entity.OrNA(req.AnnualTarget)
	p.CummulativeTarget = entity.OrNA(req.CummulativeTarget)
	p.CummulativeActual = entity.OrNA(req.CummulativeActual)
	p.StatisticalExplanation = entity.OrNA(req.StatisticalExplanation)
	p.FactorsContributing = entity.OrNA(req.FactorsContributing)
	p.RawScore = entity.OrNA(req.RawScore)
	p.WtdScore = entity.OrNA(req.WtdScore)
	p.WtdAchievement = entity.OrNA(req.WtdAchievement)
	p.Rank = entity.OrNA(req.Rank)
	p.StatusOfActivities = entity.OrNA(req.StatusOfActivities)
}

// List 列表
func (s *PostService) List(ctx context.Context, actor *authz.Actor, page, pageSize int, filters map[string]interface{}) ([]entity.Post, int64, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjPosts, authz.ActRead); err != nil {
		return nil, 0, err
	}
	return s.repo.FindAll(ctx, authz.Scope(actor, authz.PostTarget), page, pageSize, filters)
}

// Get 详情
func (s *PostService) Get(ctx context.Context, actor *authz.Actor, id uint64) (*entity.Post, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjPosts, authz.ActRead); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkRead(actor, &p.BranchID, p.CreatedBy); err != nil {
		return nil, err
	}
	return p, nil
}

// Create 新建，状态为 DRAFT
func (s *PostService) Create(ctx context.Context, actor *authz.Actor, req *PostRequest) (*entity.Post, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjPosts, authz.ActCreate); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.branches.FindByID(ctx, req.BranchID); err != nil {
		return nil, err
	}
	if err := canCreateIn(actor, req.BranchID); err != nil {
		return nil, err
	}

	p := &entity.Post{WorkflowState: entity.NewWorkflowState(actor.ID)}
	req.apply(p)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, p.ID)
}

// Update 修改业务字段
func (s *PostService) Update(ctx context.Context, actor *authz.Actor, id uint64, req *PostRequest) (*entity.Post, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjPosts, authz.ActUpdate); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkWrite(actor, &p.BranchID, p.CreatedBy); err != nil {
		return nil, err
	}
	if err := checkUnlocked(actor, p.IsLocked); err != nil {
		return nil, err
	}
	if req.BranchID != p.BranchID {
		if _, err := s.branches.FindByID(ctx, req.BranchID); err != nil {
			return nil, err
		}
		if err := canCreateIn(actor, req.BranchID); err != nil {
			return nil, err
		}
	}

	req.apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete 删除
func (s *PostService) Delete(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjPosts, authz.ActDelete); err != nil {
		return err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkWrite(actor, &p.BranchID, p.CreatedBy); err != nil {
		return err
	}
	if err := checkUnlocked(actor, p.IsLocked); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
