package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/metrics"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/notify"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/workflow"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// KindInitiatives 举措在日志和指标中的类型名
const KindInitiatives = "initiatives"

// InitiativeService 举措及其审批记录、执行记录
type InitiativeService struct {
	db        *gorm.DB
	repo      *repository.InitiativeRepository
	actions   *repository.InitiativeActionRepository
	strategic *repository.StrategicRepository
	enforcer  *authz.Enforcer
	notifier  Notifier
	machine   *workflow.Machine
	logger    *zap.Logger
}

func NewInitiativeService(db *gorm.DB, repo *repository.InitiativeRepository, actions *repository.InitiativeActionRepository, strategic *repository.StrategicRepository, enforcer *authz.Enforcer, notifier Notifier, logger *zap.Logger) *InitiativeService {
	return &InitiativeService{
		db:        db,
		repo:      repo,
		actions:   actions,
		strategic: strategic,
		enforcer:  enforcer,
		notifier:  notifier,
		machine:   workflow.Initiative(KindInitiatives),
		logger:    logger.Named("initiative"),
	}
}

// InitiativeRequest 新建/更新请求；部门取自操作人
type InitiativeRequest struct {
	ObjectiveID      uint64          `json:"objective_id" validate:"required"`
	Description      string          `json:"description" validate:"required"`
	UnitOfMeasure    string          `json:"unit_of_measure" validate:"max=255"`
	Weight           decimal.Decimal `json:"weight"`
	PreviousTarget   string          `json:"previous_target" validate:"max=255"`
	CurrentTarget    string          `json:"current_target" validate:"max=255"`
	CumulativeTarget string          `json:"cumulative_target" validate:"max=255"`
}

// InitiativeActionRequest 执行记录请求
type InitiativeActionRequest struct {
	InitiativeID      uint64 `json:"initiative_id" validate:"required"`
	CummulativeActual string `json:"cummulative_actual" validate:"max=255"`
	ActionDescription string `json:"action_description"`
	ActionFactor      string `json:"action_factor"`
	RawScore          string `json:"raw_score" validate:"max=100"`
	WeightedScore     string `json:"weighted_score" validate:"max=100"`
	WeightedAchieved  string `json:"weighted_achieved" validate:"max=100"`
}

var initiativeMessages = map[workflow.Action]string{
	workflow.RequestApproval: "Initiative '%s' submitted for approval.",
	workflow.Approve:         "Initiative '%s' was approved.",
	workflow.Reject:          "Initiative '%s' was rejected. Reason: %s",
	workflow.Cancel:          "Initiative '%s' approval request was cancelled.",
}

// List 列表
func (s *InitiativeService) List(ctx context.Context, actor *authz.Actor, page, pageSize int, filters map[string]interface{}) ([]entity.Initiative, int64, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiatives, authz.ActRead); err != nil {
		return nil, 0, err
	}
	return s.repo.FindAll(ctx, authz.Scope(actor, authz.InitiativeTarget), page, pageSize, filters)
}

// Get 详情
func (s *InitiativeService) Get(ctx context.Context, actor *authz.Actor, id uint64) (*entity.Initiative, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiatives, authz.ActRead); err != nil {
		return nil, err
	}
	i, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkRead(actor, &i.BranchID, i.CreatedBy); err != nil {
		return nil, err
	}
	return i, nil
}

// Create 新建，状态为 OPEN
func (s *InitiativeService) Create(ctx context.Context, actor *authz.Actor, req *InitiativeRequest) (*entity.Initiative, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiatives, authz.ActCreate); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if actor.BranchID == nil {
		return nil, apperr.Invalid("dimension", "Your account is not assigned to a dimension.")
	}
	if _, err := s.strategic.FindObjectiveByID(ctx, req.ObjectiveID); err != nil {
		return nil, err
	}

	createdBy := actor.ID
	i := &entity.Initiative{
		ObjectiveID:      req.ObjectiveID,
		BranchID:         *actor.BranchID,
		Description:      req.Description,
		UnitOfMeasure:    req.UnitOfMeasure,
		Weight:           req.Weight,
		PreviousTarget:   req.PreviousTarget,
		CurrentTarget:    req.CurrentTarget,
		CumulativeTarget: req.CumulativeTarget,
		StatusCode:       entity.ApprovalOpen,
		Version:          1,
		CreatedBy:        &createdBy,
	}
	if err := s.repo.Create(ctx, i); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, i.ID)
}

// Update 修改业务字段
func (s *InitiativeService) Update(ctx context.Context, actor *authz.Actor, id uint64, req *InitiativeRequest) (*entity.Initiative, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiatives, authz.ActUpdate); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	i, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkWrite(actor, &i.BranchID, i.CreatedBy); err != nil {
		return nil, err
	}
	if err := checkUnlocked(actor, i.StatusCode == entity.ApprovalPendingApproval); err != nil {
		return nil, err
	}
	if req.ObjectiveID != i.ObjectiveID {
		if _, err := s.strategic.FindObjectiveByID(ctx, req.ObjectiveID); err != nil {
			return nil, err
		}
	}

	i.ObjectiveID = req.ObjectiveID
	i.Description = req.Description
	i.UnitOfMeasure = req.UnitOfMeasure
	i.Weight = req.Weight
	i.PreviousTarget = req.PreviousTarget
	i.CurrentTarget = req.CurrentTarget
	i.CumulativeTarget = req.CumulativeTarget
	if err := s.repo.Update(ctx, i); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete 删除
func (s *InitiativeService) Delete(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiatives, authz.ActDelete); err != nil {
		return err
	}
	i, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkWrite(actor, &i.BranchID, i.CreatedBy); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Transition 执行审批动作：校验当前状态和状态码配置，追加审批记录并更新举措状态
func (s *InitiativeService) Transition(ctx context.Context, actor *authz.Actor, id uint64, action workflow.Action, comment string) (*entity.Initiative, error) {
	if action == workflow.Submit {
		action = workflow.RequestApproval
	}
	if !s.machine.Supports(action) {
		return nil, apperr.Invalid("action", fmt.Sprintf("%s does not support %s", KindInitiatives, action))
	}
	if err := s.enforcer.Authorize(actor, authz.ObjInitiatives, string(action)); err != nil {
		s.count(action, "denied")
		return nil, err
	}

	var tr workflow.Transition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		i, err := repo.LockForAction(ctx, id)
		if err != nil {
			return err
		}
		if err := checkWrite(actor, &i.BranchID, i.CreatedBy); err != nil {
			return err
		}
		if tr, err = s.machine.Fire(i.StatusCode, action); err != nil {
			return err
		}
		for _, code := range []string{tr.Entry, tr.To} {
			defined, err := repo.StatusDefined(ctx, code)
			if err != nil {
				return err
			}
			if !defined {
				return apperr.Invalid("status", fmt.Sprintf("'%s' status not defined.", code))
			}
		}

		now := time.Now()
		entry := &entity.ApprovalEntry{InitiativeID: id, StatusCode: tr.Entry, Comment: comment}
		if action == workflow.RequestApproval {
			entry.RequestorID = &actor.ID
			entry.RequestedAt = &now
		} else {
			entry.ApproverID = &actor.ID
			entry.ActionedAt = &now
		}
		if err := repo.AppendEntry(ctx, entry); err != nil {
			return err
		}
		ok, err := repo.SetStatus(ctx, id, i.Version, tr.To)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("record was modified by another request")
		}
		return nil
	})
	if err != nil {
		s.count(action, resultOf(err))
		return nil, err
	}
	s.count(action, "ok")

	i, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("initiative transition",
		zap.Uint64("id", id),
		zap.String("action", string(action)),
		zap.String("from", tr.From),
		zap.String("to", tr.To),
		zap.Uint64("operator_id", actor.ID),
	)

	if s.notifier != nil {
		msg := fmt.Sprintf(initiativeMessages[action], i.Description)
		if action == workflow.Reject {
			msg = fmt.Sprintf(initiativeMessages[action], i.Description, workflow.DisplayComment(comment))
		}
		branchName := ""
		if i.Branch != nil {
			branchName = i.Branch.Name
		}
		s.notifier.Dispatch(ctx, notify.Event{
			Kind:       KindInitiatives,
			EntityID:   id,
			Action:     string(action),
			Message:    msg,
			BranchID:   &i.BranchID,
			BranchName: branchName,
			ActorID:    actor.ID,
		})
	}
	return i, nil
}

func (s *InitiativeService) count(action workflow.Action, result string) {
	metrics.Transitions.WithLabelValues(KindInitiatives, string(action), result).Inc()
}

// Approvals 审批历史，时间正序
func (s *InitiativeService) Approvals(ctx context.Context, actor *authz.Actor, id uint64) ([]entity.ApprovalEntry, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.Entries(ctx, id)
}

// Statuses 已配置的审批状态码
func (s *InitiativeService) Statuses(ctx context.Context) ([]entity.ApprovalStatus, error) {
	return s.repo.Statuses(ctx)
}

// ListActions 执行记录列表
func (s *InitiativeService) ListActions(ctx context.Context, actor *authz.Actor, page, pageSize int, initiativeID uint64) ([]entity.InitiativeAction, int64, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiativeActions, authz.ActRead); err != nil {
		return nil, 0, err
	}
	return s.actions.FindAll(ctx, authz.Scope(actor, authz.ActionTarget), page, pageSize, initiativeID)
}

// GetAction 执行记录详情
func (s *InitiativeService) GetAction(ctx context.Context, actor *authz.Actor, id uint64) (*entity.InitiativeAction, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiativeActions, authz.ActRead); err != nil {
		return nil, err
	}
	a, err := s.actions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	parent, err := s.repo.FindByID(ctx, a.InitiativeID)
	if err != nil {
		return nil, err
	}
	if err := checkRead(actor, &parent.BranchID, a.CreatedBy); err != nil {
		return nil, err
	}
	return a, nil
}

// approvedParent 执行记录只能挂在已批准的举措下
func (s *InitiativeService) approvedParent(ctx context.Context, actor *authz.Actor, initiativeID uint64) (*entity.Initiative, error) {
	parent, err := s.repo.FindByID(ctx, initiativeID)
	if err != nil {
		return nil, err
	}
	if err := checkRead(actor, &parent.BranchID, parent.CreatedBy); err != nil {
		return nil, err
	}
	if parent.StatusCode != entity.ApprovalApproved {
		return nil, apperr.Invalid("initiative", "Actions can only be recorded for approved initiatives.")
	}
	return parent, nil
}

// CreateAction 新建执行记录
func (s *InitiativeService) CreateAction(ctx context.Context, actor *authz.Actor, req *InitiativeActionRequest) (*entity.InitiativeAction, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiativeActions, authz.ActCreate); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	parent, err := s.approvedParent(ctx, actor, req.InitiativeID)
	if err != nil {
		return nil, err
	}
	if err := canCreateIn(actor, parent.BranchID); err != nil {
		return nil, err
	}

	createdBy := actor.ID
	a := &entity.InitiativeAction{InitiativeID: req.InitiativeID, CreatedBy: &createdBy}
	applyAction(a, req)
	if err := s.actions.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAction 修改执行记录
func (s *InitiativeService) UpdateAction(ctx context.Context, actor *authz.Actor, id uint64, req *InitiativeActionRequest) (*entity.InitiativeAction, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiativeActions, authz.ActUpdate); err != nil {
		return nil, err
	}
	a, err := s.actions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.InitiativeID = a.InitiativeID
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	parent, err := s.approvedParent(ctx, actor, a.InitiativeID)
	if err != nil {
		return nil, err
	}
	if err := checkWrite(actor, &parent.BranchID, a.CreatedBy); err != nil {
		return nil, err
	}

	applyAction(a, req)
	if err := s.actions.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.actions.FindByID(ctx, id)
}

// DeleteAction 删除执行记录
func (s *InitiativeService) DeleteAction(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjInitiativeActions, authz.ActDelete); err != nil {
		return err
	}
	a, err := s.actions.FindByID(ctx, id)
	if err != nil {
		return err
	}
	parent, err := s.repo.FindByID(ctx, a.InitiativeID)
	if err != nil {
		return err
	}
	if err := checkWrite(actor, &parent.BranchID, a.CreatedBy); err != nil {
		return err
	}
	return s.actions.Delete(ctx, id)
}

func applyAction(a *entity.InitiativeAction, req *InitiativeActionRequest) {
	a.CummulativeActual = req.CummulativeActual
	a.ActionDescription = req.ActionDescription
	a.ActionFactor = req.ActionFactor
	a.RawScore = req.RawScore
	a.WeightedScore = req.WeightedScore
	a.WeightedAchieved = req.WeightedAchieved
}
