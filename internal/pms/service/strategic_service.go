package service

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/shopspring/decimal"
)

// StrategicService 部门战略看板
type StrategicService struct {
	repo     *repository.StrategicRepository
	branches *repository.BranchRepository
	enforcer *authz.Enforcer
}

func NewStrategicService(repo *repository.StrategicRepository, branches *repository.BranchRepository, enforcer *authz.Enforcer) *StrategicService {
	return &StrategicService{repo: repo, branches: branches, enforcer: enforcer}
}

// Department 看板中的部门信息
type Department struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Head string `json:"head"`
}

// Overview 部门看板
type Overview struct {
	DepartmentInfo     Department                  `json:"department_info"`
	Objectives         []entity.StrategicObjective `json:"objectives"`
	KeyMetrics         []entity.KeyMetric          `json:"key_metrics"`
	PriorityActions    []entity.ActionItem         `json:"priority_actions"`
	RecentAchievements []entity.ActionItem         `json:"recent_achievements"`
}

// StrategicObjectiveRequest 战略目标请求
type StrategicObjectiveRequest struct {
	Title       string                     `json:"title" validate:"required,max=255"`
	Description string                     `json:"description"`
	BranchID    uint64                     `json:"branch_id" validate:"required"`
	Progress    int                        `json:"progress" validate:"min=0,max=100"`
	Status      string                     `json:"status" validate:"omitempty,oneof=on_track in_progress exceeding_target behind_schedule completed"`
	Target      string                     `json:"target" validate:"max=255"`
	Deadline    string                     `json:"deadline" validate:"max=100"`
	Priority    string                     `json:"priority" validate:"omitempty,oneof=high medium low"`
	Criteria    []StrategicCriteriaRequest `json:"criteria" validate:"dive"`
}

// StrategicCriteriaRequest 衡量标准
type StrategicCriteriaRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	Weight      decimal.Decimal `json:"weight"`
	TargetValue string          `json:"target_value" validate:"max=100"`
	ActualValue string          `json:"actual_value" validate:"max=100"`
}

// KeyMetricRequest 关键指标请求
type KeyMetricRequest struct {
	Label    string `json:"label" validate:"required,max=255"`
	Value    string `json:"value" validate:"max=100"`
	Trend    string `json:"trend" validate:"max=50"`
	IconName string `json:"icon_name" validate:"max=100"`
	BranchID uint64 `json:"branch_id" validate:"required"`
}

// ActionItemRequest 行动项请求
type ActionItemRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	ActionType  string `json:"action_type" validate:"omitempty,oneof=priority achievement"`
	DueDate     string `json:"due_date" validate:"max=100"`
	BranchID    uint64 `json:"branch_id" validate:"required"`
	IconName    string `json:"icon_name" validate:"max=100"`
}

// department 按名称（不区分大小写）定位部门，空名称表示全部
func (s *StrategicService) department(ctx context.Context, name string) (uint64, error) {
	if name == "" {
		return 0, nil
	}
	b, err := s.branches.FindByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}

// Overview 部门看板；部门不存在返回 404
func (s *StrategicService) Overview(ctx context.Context, actor *authz.Actor, name string) (*Overview, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActRead); err != nil {
		return nil, err
	}
	b, err := s.branches.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	out := &Overview{DepartmentInfo: Department{ID: b.ID, Name: b.Name, Head: b.Head}}
	if out.Objectives, err = s.repo.FindObjectives(ctx, b.ID); err != nil {
		return nil, err
	}
	if out.KeyMetrics, err = s.repo.FindKeyMetrics(ctx, b.ID); err != nil {
		return nil, err
	}
	if out.PriorityActions, err = s.repo.FindActionItems(ctx, b.ID, entity.ActionTypePriority); err != nil {
		return nil, err
	}
	if out.RecentAchievements, err = s.repo.FindActionItems(ctx, b.ID, entity.ActionTypeAchievement); err != nil {
		return nil, err
	}
	return out, nil
}

// Departments 全部部门
func (s *StrategicService) Departments(ctx context.Context, actor *authz.Actor) ([]Department, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActRead); err != nil {
		return nil, err
	}
	branches, _, err := s.branches.FindAll(ctx, 0, 0, "")
	if err != nil {
		return nil, err
	}
	out := make([]Department, 0, len(branches))
	for _, b := range branches {
		out = append(out, Department{ID: b.ID, Name: b.Name, Head: b.Head})
	}
	return out, nil
}

// ListObjectives 战略目标列表
func (s *StrategicService) ListObjectives(ctx context.Context, actor *authz.Actor, department string) ([]entity.StrategicObjective, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActRead); err != nil {
		return nil, err
	}
	branchID, err := s.department(ctx, department)
	if err != nil {
		return nil, err
	}
	return s.repo.FindObjectives(ctx, branchID)
}

// GetObjective 战略目标详情
func (s *StrategicService) GetObjective(ctx context.Context, actor *authz.Actor, id uint64) (*entity.StrategicObjective, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActRead); err != nil {
		return nil, err
	}
	return s.repo.FindObjectiveByID(ctx, id)
}

func (s *StrategicService) checkObjective(ctx context.Context, req *StrategicObjectiveRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	_, err := s.branches.FindByID(ctx, req.BranchID)
	return err
}

func applyStrategic(o *entity.StrategicObjective, req *StrategicObjectiveRequest) {
	o.Title = req.Title
	o.Description = req.Description
	o.BranchID = req.BranchID
	o.Progress = req.Progress
	o.Status = req.Status
	if o.Status == "" {
		o.Status = entity.StrategicInProgress
	}
	o.Target = req.Target
	o.Deadline = req.Deadline
	o.Priority = req.Priority
	if o.Priority == "" {
		o.Priority = "medium"
	}
	o.Color = entity.StrategicColor(o.Status)
}

// CreateObjective 新建战略目标及其衡量标准
func (s *StrategicService) CreateObjective(ctx context.Context, actor *authz.Actor, req *StrategicObjectiveRequest) (*entity.StrategicObjective, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActCreate); err != nil {
		return nil, err
	}
	if err := s.checkObjective(ctx, req); err != nil {
		return nil, err
	}

	o := &entity.StrategicObjective{IsActive: true}
	applyStrategic(o, req)
	for _, c := range req.Criteria {
		o.Criteria = append(o.Criteria, entity.StrategicCriteria{
			Title:       c.Title,
			Description: c.Description,
			Weight:      c.Weight,
			TargetValue: c.TargetValue,
			ActualValue: c.ActualValue,
			IsActive:    true,
		})
	}
	o.CriteriaCount = len(o.Criteria)
	if err := s.repo.CreateObjective(ctx, o); err != nil {
		return nil, err
	}
	return s.repo.FindObjectiveByID(ctx, o.ID)
}

// UpdateObjective 修改战略目标，衡量标准不在此处修改
func (s *StrategicService) UpdateObjective(ctx context.Context, actor *authz.Actor, id uint64, req *StrategicObjectiveRequest) (*entity.StrategicObjective, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActUpdate); err != nil {
		return nil, err
	}
	o, err := s.repo.FindObjectiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkObjective(ctx, req); err != nil {
		return nil, err
	}

	applyStrategic(o, req)
	if err := s.repo.UpdateObjective(ctx, o); err != nil {
		return nil, err
	}
	return s.repo.FindObjectiveByID(ctx, id)
}

// DeleteObjective 删除战略目标
func (s *StrategicService) DeleteObjective(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActDelete); err != nil {
		return err
	}
	if _, err := s.repo.FindObjectiveByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteObjective(ctx, id)
}

// ListKeyMetrics 关键指标
func (s *StrategicService) ListKeyMetrics(ctx context.Context, actor *authz.Actor, department string) ([]entity.KeyMetric, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActRead); err != nil {
		return nil, err
	}
	branchID, err := s.department(ctx, department)
	if err != nil {
		return nil, err
	}
	return s.repo.FindKeyMetrics(ctx, branchID)
}

// CreateKeyMetric 新建关键指标
func (s *StrategicService) CreateKeyMetric(ctx context.Context, actor *authz.Actor, req *KeyMetricRequest) (*entity.KeyMetric, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActCreate); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.branches.FindByID(ctx, req.BranchID); err != nil {
		return nil, err
	}
	m := &entity.KeyMetric{
		Label:    req.Label,
		Value:    req.Value,
		Trend:    req.Trend,
		IconName: req.IconName,
		BranchID: req.BranchID,
		IsActive: true,
	}
	if err := s.repo.CreateKeyMetric(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListActionItems 行动项，actionType 为 priority 或 achievement
func (s *StrategicService) ListActionItems(ctx context.Context, actor *authz.Actor, department, actionType string) ([]entity.ActionItem, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActRead); err != nil {
		return nil, err
	}
	if actionType != "" && actionType != entity.ActionTypePriority && actionType != entity.ActionTypeAchievement {
		return nil, apperr.Invalid("type", "'"+actionType+"' is not a valid choice.")
	}
	branchID, err := s.department(ctx, department)
	if err != nil {
		return nil, err
	}
	return s.repo.FindActionItems(ctx, branchID, actionType)
}

// CreateActionItem 新建行动项
func (s *StrategicService) CreateActionItem(ctx context.Context, actor *authz.Actor, req *ActionItemRequest) (*entity.ActionItem, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjStrategic, authz.ActCreate); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.branches.FindByID(ctx, req.BranchID); err != nil {
		return nil, err
	}
	a := &entity.ActionItem{
		Title:       req.Title,
		Description: req.Description,
		ActionType:  req.ActionType,
		DueDate:     req.DueDate,
		BranchID:    req.BranchID,
		IconName:    req.IconName,
		IsActive:    true,
	}
	if a.ActionType == "" {
		a.ActionType = entity.ActionTypePriority
	}
	if err := s.repo.CreateActionItem(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
