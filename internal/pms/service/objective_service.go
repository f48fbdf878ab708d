package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/shopspring/decimal"
)

// 分组视图中缺失名称的占位
const (
	UnspecifiedSubtitle = "Unspecified Subtitle"
	UnspecifiedCriteria = "Unspecified Criteria"
)

// ObjectiveService 考核目标服务
type ObjectiveService struct {
	repo      *repository.ObjectiveRepository
	quarters  *repository.QuarterRepository
	branches  *repository.BranchRepository
	subtitles *repository.SubtitleRepository
	enforcer  *authz.Enforcer
}

func NewObjectiveService(repo *repository.ObjectiveRepository, quarters *repository.QuarterRepository, branches *repository.BranchRepository, subtitles *repository.SubtitleRepository, enforcer *authz.Enforcer) *ObjectiveService {
	return &ObjectiveService{repo: repo, quarters: quarters, branches: branches, subtitles: subtitles, enforcer: enforcer}
}

// ObjectiveRequest 新建/更新请求
type ObjectiveRequest struct {
	BranchID      uint64          `json:"branch_id" validate:"required"`
	SubtitleID    uint64          `json:"subtitle_id" validate:"required"`
	CriteriaID    *uint64         `json:"criteria_id"`
	UnitOfMeasure string          `json:"unit_of_measure" validate:"max=255"`
	Weight        decimal.Decimal `json:"weight"`
	AnnualTarget  string          `json:"annual_target" validate:"max=255"`
	Description   string          `json:"description"`
}

var maxWeight = decimal.NewFromInt(10000)

func (req *ObjectiveRequest) validate() error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.Weight.IsNegative() || req.Weight.GreaterThanOrEqual(maxWeight) {
		return apperr.Invalid("weight", "Must be between 0 and 9999.99.")
	}
	return nil
}

// QuarterPeriodRequest 按期间新建或获取季度进展
type QuarterPeriodRequest struct {
	Year    int `json:"year" validate:"required,min=1900,max=9999"`
	Quarter int `json:"quarter" validate:"required,min=1,max=4"`
}

// ObjectiveFilter 列表过滤条件
type ObjectiveFilter struct {
	// Branch 部门 slug，大小写不敏感，连字符视为空格
	Branch     string
	Status     string
	SubtitleID uint64
}

// BranchNameFromSlug medical-services → medical services
func BranchNameFromSlug(slug string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(slug, "-", " ")), " ")
}

// resolveFilters 部门 slug 找不到时返回 ok=false，调用方直接返回空结果
func (s *ObjectiveService) resolveFilters(ctx context.Context, f ObjectiveFilter) (map[string]interface{}, bool, error) {
	filters := map[string]interface{}{}
	if f.Branch != "" {
		b, err := s.branches.FindByName(ctx, BranchNameFromSlug(f.Branch))
		if err != nil {
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				return nil, false, nil
			}
			return nil, false, err
		}
		filters["branch_id"] = b.ID
	}
	if f.Status != "" {
		filters["status"] = strings.ToUpper(f.Status)
	}
	if f.SubtitleID != 0 {
		filters["subtitle_id"] = f.SubtitleID
	}
	return filters, true, nil
}

// List 分页列表
func (s *ObjectiveService) List(ctx context.Context, actor *authz.Actor, page, pageSize int, f ObjectiveFilter) ([]entity.PerformanceObjective, int64, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjObjectives, authz.ActRead); err != nil {
		return nil, 0, err
	}
	filters, ok, err := s.resolveFilters(ctx, f)
	if err != nil || !ok {
		return []entity.PerformanceObjective{}, 0, err
	}
	return s.repo.FindAll(ctx, authz.Scope(actor, authz.ObjectiveTarget), page, pageSize, filters)
}

// Grouped 大类 → 细项 → 目标列表
func (s *ObjectiveService) Grouped(ctx context.Context, actor *authz.Actor, f ObjectiveFilter) (map[string]map[string][]entity.PerformanceObjective, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjObjectives, authz.ActRead); err != nil {
		return nil, err
	}
	grouped := make(map[string]map[string][]entity.PerformanceObjective)
	filters, ok, err := s.resolveFilters(ctx, f)
	if err != nil || !ok {
		return grouped, err
	}
	items, err := s.repo.FindAllUnpaged(ctx, authz.Scope(actor, authz.ObjectiveTarget), filters)
	if err != nil {
		return nil, err
	}
	return GroupObjectives(items), nil
}

// GroupObjectives 按大类和细项名称分组
func GroupObjectives(items []entity.PerformanceObjective) map[string]map[string][]entity.PerformanceObjective {
	grouped := make(map[string]map[string][]entity.PerformanceObjective)
	for _, o := range items {
		subtitle := UnspecifiedSubtitle
		if o.Subtitle != nil && o.Subtitle.Name != "" {
			subtitle = o.Subtitle.Name
		}
		criteria := UnspecifiedCriteria
		if o.Criteria != nil && o.Criteria.Name != "" {
			criteria = o.Criteria.Name
		}
		if grouped[subtitle] == nil {
			grouped[subtitle] = make(map[string][]entity.PerformanceObjective)
		}
		grouped[subtitle][criteria] = append(grouped[subtitle][criteria], o)
	}
	return grouped
}

// Get 详情
func (s *ObjectiveService) Get(ctx context.Context, actor *authz.Actor, id uint64) (*entity.PerformanceObjective, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjObjectives, authz.ActRead); err != nil {
		return nil, err
	}
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkRead(actor, &o.BranchID, o.CreatedBy); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *ObjectiveService) checkUnique(ctx context.Context, req *ObjectiveRequest, excludeID uint64) error {
	exists, err := s.repo.ExistsScope(ctx, req.BranchID, req.SubtitleID, req.CriteriaID, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Invalid("non_field_errors", "The fields branch, subtitle, criteria must make a unique set.")
	}
	return nil
}

func (s *ObjectiveService) checkRefs(ctx context.Context, req *ObjectiveRequest) error {
	if _, err := s.branches.FindByID(ctx, req.BranchID); err != nil {
		return err
	}
	if _, err := s.subtitles.FindByID(ctx, req.SubtitleID); err != nil {
		return err
	}
	return nil
}

// Create 新建
func (s *ObjectiveService) Create(ctx context.Context, actor *authz.Actor, req *ObjectiveRequest) (*entity.PerformanceObjective, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjObjectives, authz.ActCreate); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, req); err != nil {
		return nil, err
	}
	if err := canCreateIn(actor, req.BranchID); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, req, 0); err != nil {
		return nil, err
	}

	o := &entity.PerformanceObjective{
		BranchID:            req.BranchID,
		SubtitleID:          req.SubtitleID,
		CriteriaID:          req.CriteriaID,
		UnitOfMeasure:       req.UnitOfMeasure,
		Weight:              req.Weight,
		AnnualTarget:        req.AnnualTarget,
		Description:         req.Description,
		UnitOfMeasureStatus: entity.StatusDraft,
		WorkflowState:       entity.NewWorkflowState(actor.ID),
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, o.ID)
}

// Update 修改业务字段
func (s *ObjectiveService) Update(ctx context.Context, actor *authz.Actor, id uint64, req *ObjectiveRequest) (*entity.PerformanceObjective, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjObjectives, authz.ActUpdate); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkWrite(actor, &o.BranchID, o.CreatedBy); err != nil {
		return nil, err
	}
	if err := checkUnlocked(actor, o.IsLocked); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, req); err != nil {
		return nil, err
	}
	if req.BranchID != o.BranchID {
		if err := canCreateIn(actor, req.BranchID); err != nil {
			return nil, err
		}
	}
	if err := s.checkUnique(ctx, req, id); err != nil {
		return nil, err
	}

	o.BranchID = req.BranchID
	o.SubtitleID = req.SubtitleID
	o.CriteriaID = req.CriteriaID
	o.UnitOfMeasure = req.UnitOfMeasure
	o.Weight = req.Weight
	o.AnnualTarget = req.AnnualTarget
	o.Description = req.Description
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete 删除目标及其季度进展
func (s *ObjectiveService) Delete(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjObjectives, authz.ActDelete); err != nil {
		return err
	}
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkWrite(actor, &o.BranchID, o.CreatedBy); err != nil {
		return err
	}
	if err := checkUnlocked(actor, o.IsLocked); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// QuarterFor 按 (年, 季度) 获取季度进展，不存在则新建；created 表示是否新建
func (s *ObjectiveService) QuarterFor(ctx context.Context, actor *authz.Actor, objectiveID uint64, req *QuarterPeriodRequest) (*entity.QuarterlyProgress, bool, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjQuarters, authz.ActCreate); err != nil {
		return nil, false, err
	}
	if err := validateStruct(req); err != nil {
		return nil, false, err
	}
	o, err := s.repo.FindByID(ctx, objectiveID)
	if err != nil {
		return nil, false, err
	}
	if err := checkRead(actor, &o.BranchID, o.CreatedBy); err != nil {
		return nil, false, err
	}

	if q, err := s.quarters.FindByPeriod(ctx, objectiveID, req.Year, req.Quarter); err != nil || q != nil {
		return q, false, err
	}
	if err := canCreateIn(actor, o.BranchID); err != nil {
		return nil, false, err
	}

	q := &entity.QuarterlyProgress{
		ObjectiveID:   objectiveID,
		Year:          req.Year,
		Quarter:       req.Quarter,
		WorkflowState: entity.NewWorkflowState(actor.ID),
	}
	if err := s.quarters.Create(ctx, q); err != nil {
		// 并发创建时唯一索引冲突，取已存在的那条
		if existing, findErr := s.quarters.FindByPeriod(ctx, objectiveID, req.Year, req.Quarter); findErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return q, true, nil
}
