package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/metrics"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/notify"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier 事务提交后的通知出口
type Notifier interface {
	Dispatch(ctx context.Context, ev notify.Event) int
}

// WorkflowService 审批引擎：按实体类型选择状态机，在事务内完成校验和写入
type WorkflowService struct {
	db       *gorm.DB
	catalog  *workflow.Catalog
	enforcer *authz.Enforcer
	notifier Notifier
	logs     *repository.ActivityLogRepository
	logger   *zap.Logger
}

func NewWorkflowService(db *gorm.DB, catalog *workflow.Catalog, enforcer *authz.Enforcer, notifier Notifier, logs *repository.ActivityLogRepository, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{
		db:       db,
		catalog:  catalog,
		enforcer: enforcer,
		notifier: notifier,
		logs:     logs,
		logger:   logger.Named("workflow"),
	}
}

// workflowRow 引擎读取的审批列
type workflowRow struct {
	ID       uint64
	Status   string
	Version  int
	BranchID *uint64
	OwnerID  *uint64
}

// Execute 执行一次审批动作，返回更新后的实体
//
// 顺序：动作是否存在 → 角色矩阵 → 事务内读行、行级范围、状态校验、CAS 写入、流转日志、重新加载 → 提交后通知。
func (s *WorkflowService) Execute(ctx context.Context, actor *authz.Actor, kind string, id uint64, action workflow.Action, comment string) (interface{}, error) {
	d, ok := s.catalog.Get(kind)
	if !ok {
		return nil, apperr.Invalid("kind", "unknown entity kind "+kind)
	}
	if !d.Machine.Supports(action) {
		s.count(kind, action, "invalid")
		return nil, apperr.Invalid("action", fmt.Sprintf("%s does not support %s", kind, action))
	}
	if err := s.enforcer.Authorize(actor, d.Object, d.Permission(action)); err != nil {
		s.count(kind, action, "denied")
		return nil, err
	}

	var (
		tr  workflow.Transition
		rec workflow.Record
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row workflowRow
		res := repository.ForUpdate(tx.Table(d.Table)).
			Select(fmt.Sprintf("id, %s AS status, version, %s AS branch_id, %s AS owner_id",
				d.StatusColumn, d.BranchExpr, d.OwnerColumn)).
			Where("id = ?", id).
			Limit(1).
			Scan(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(kind, id)
		}
		if !authz.CanWrite(actor, row.BranchID, row.OwnerID) {
			return apperr.Denied("record is outside your scope")
		}

		var err error
		tr, err = d.Machine.Fire(row.Status, action)
		if err != nil {
			return err
		}
		if !tr.Changed {
			rec, err = d.Load(ctx, tx, id)
			return err
		}

		updates := map[string]interface{}{
			d.StatusColumn: tr.To,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now(),
		}
		if d.LockColumn != "" {
			switch tr.Lock {
			case workflow.LockSet:
				updates[d.LockColumn] = true
			case workflow.LockClear:
				updates[d.LockColumn] = false
			}
		}
		if d.CommentColumn != "" {
			switch tr.Comment {
			case workflow.CommentSet:
				updates[d.CommentColumn] = workflow.DisplayComment(comment)
			case workflow.CommentClear:
				updates[d.CommentColumn] = nil
			}
		}

		res = tx.Table(d.Table).Where("id = ? AND version = ?", id, row.Version).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("write %s %d: %w", kind, id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("record was modified by another request")
		}

		if err := s.logs.WithTx(tx).Create(ctx, &entity.ActivityLog{
			EntityType: kind,
			EntityID:   id,
			Action:     string(action),
			FromStatus: tr.From,
			ToStatus:   tr.To,
			Comment:    comment,
			OperatorID: actor.ID,
		}); err != nil {
			return err
		}

		// 在事务内重新加载，加载失败时整次流转回滚
		rec, err = d.Load(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("reload %s %d: %w", kind, id, err)
		}
		return nil
	})
	if err != nil {
		s.count(kind, action, resultOf(err))
		return nil, err
	}

	if !tr.Changed {
		s.count(kind, action, "noop")
		return rec.Entity, nil
	}
	s.count(kind, action, "ok")
	s.logger.Info("workflow transition",
		zap.String("kind", kind),
		zap.Uint64("id", id),
		zap.String("action", string(action)),
		zap.String("from", tr.From),
		zap.String("to", tr.To),
		zap.Uint64("operator_id", actor.ID),
	)

	if build, ok := d.Messages[action]; ok && s.notifier != nil {
		s.notifier.Dispatch(ctx, notify.Event{
			Kind:       kind,
			EntityID:   id,
			Action:     string(action),
			Message:    build(rec, workflow.DisplayComment(comment)),
			BranchID:   rec.BranchID,
			BranchName: rec.BranchName,
			ActorID:    actor.ID,
		})
	}
	return rec.Entity, nil
}

// History 某条记录的流转日志
func (s *WorkflowService) History(ctx context.Context, kind string, id uint64, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	return s.logs.FindByEntity(ctx, kind, id, page, pageSize)
}

func (s *WorkflowService) count(kind string, action workflow.Action, result string) {
	metrics.Transitions.WithLabelValues(kind, string(action), result).Inc()
}

func resultOf(err error) string {
	var (
		it *apperr.InvalidTransitionError
		pd *apperr.PermissionDeniedError
		cf *apperr.ConflictError
		nf *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &it):
		return "invalid"
	case errors.As(err, &pd):
		return "denied"
	case errors.As(err, &cf):
		return "conflict"
	case errors.As(err, &nf):
		return "not_found"
	default:
		return "error"
	}
}
