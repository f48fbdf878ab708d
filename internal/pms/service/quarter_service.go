package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EvidenceStore 证明材料存储
type EvidenceStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

// QuarterService 季度进展服务
type QuarterService struct {
	repo       *repository.QuarterRepository
	objectives *repository.ObjectiveRepository
	enforcer   *authz.Enforcer
	evidence   EvidenceStore
	logger     *zap.Logger
}

func NewQuarterService(repo *repository.QuarterRepository, objectives *repository.ObjectiveRepository, enforcer *authz.Enforcer, evidence EvidenceStore, logger *zap.Logger) *QuarterService {
	return &QuarterService{repo: repo, objectives: objectives, enforcer: enforcer, evidence: evidence, logger: logger}
}

// QuarterRequest 新建/更新请求；更新时 objective_id/year/quarter 不生效
type QuarterRequest struct {
	ObjectiveID         uint64 `json:"objective_id" validate:"required"`
	Year                int    `json:"year" validate:"required,min=1900,max=9999"`
	Quarter             int    `json:"quarter" validate:"required,min=1,max=4"`
	TargetQuarter       string `json:"target_quarter"`
	ActualQuarter       string `json:"actual_quarter"`
	CumulativeActual    string `json:"cumulative_actual"`
	Explanation         string `json:"explanation"`
	ContributingFactors string `json:"contributing_factors"`
	RawScore            string `json:"raw_score"`
	WtdScore            string `json:"wtd_score"`
	WtdAchievement      string `json:"wtd_achievement"`
	Rank                string `json:"rank"`
}

func (req *QuarterRequest) apply(q *entity.QuarterlyProgress) {
	q.TargetQuarter = req.TargetQuarter
	q.ActualQuarter = req.ActualQuarter
	q.CumulativeActual = req.CumulativeActual
	q.Explanation = req.Explanation
	q.ContributingFactors = req.ContributingFactors
	q.RawScore = req.RawScore
	q.WtdScore = req.WtdScore
	q.WtdAchievement = req.WtdAchievement
	q.Rank = req.Rank
}

func quarterBranch(q *entity.QuarterlyProgress) *uint64 {
	if q.Objective == nil {
		return nil
	}
	return &q.Objective.BranchID
}

// List 列表
func (s *QuarterService) List(ctx context.Context, actor *authz.Actor, page, pageSize int, filters map[string]interface{}) ([]entity.QuarterlyProgress, int64, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjQuarters, authz.ActRead); err != nil {
		return nil, 0, err
	}
	return s.repo.FindAll(ctx, authz.Scope(actor, authz.QuarterTarget), page, pageSize, filters)
}

// Get 详情
func (s *QuarterService) Get(ctx context.Context, actor *authz.Actor, id uint64) (*entity.QuarterlyProgress, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjQuarters, authz.ActRead); err != nil {
		return nil, err
	}
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkRead(actor, quarterBranch(q), q.CreatedBy); err != nil {
		return nil, err
	}
	return q, nil
}

// Create 新建；同一目标同一期间只能有一条
func (s *QuarterService) Create(ctx context.Context, actor *authz.Actor, req *QuarterRequest) (*entity.QuarterlyProgress, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjQuarters, authz.ActCreate); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	o, err := s.objectives.FindByID(ctx, req.ObjectiveID)
	if err != nil {
		return nil, err
	}
	if err := canCreateIn(actor, o.BranchID); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsPeriod(ctx, req.ObjectiveID, req.Year, req.Quarter, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Invalid("non_field_errors", "The fields objective, year, quarter must make a unique set.")
	}

	q := &entity.QuarterlyProgress{
		ObjectiveID:   req.ObjectiveID,
		Year:          req.Year,
		Quarter:       req.Quarter,
		WorkflowState: entity.NewWorkflowState(actor.ID),
	}
	req.apply(q)
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, q.ID)
}

// Update 修改业务字段
func (s *QuarterService) Update(ctx context.Context, actor *authz.Actor, id uint64, req *QuarterRequest) (*entity.QuarterlyProgress, error) {
	if err := s.enforcer.Authorize(actor, authz.ObjQuarters, authz.ActUpdate); err != nil {
		return nil, err
	}
	q, err := s.writable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	req.apply(q)
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete 删除
func (s *QuarterService) Delete(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.enforcer.Authorize(actor, authz.ObjQuarters, authz.ActDelete); err != nil {
		return err
	}
	if _, err := s.writable(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *QuarterService) writable(ctx context.Context, actor *authz.Actor, id uint64) (*entity.QuarterlyProgress, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkWrite(actor, quarterBranch(q), q.CreatedBy); err != nil {
		return nil, err
	}
	if err := checkUnlocked(actor, q.IsLocked); err != nil {
		return nil, err
	}
	return q, nil
}

// UploadEvidence 上传证明材料，返回对象 key
func (s *QuarterService) UploadEvidence(ctx context.Context, actor *authz.Actor, id uint64, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if s.evidence == nil {
		return "", ErrStorageUnavailable
	}
	if err := s.enforcer.Authorize(actor, authz.ObjQuarters, authz.ActUpdate); err != nil {
		return "", err
	}
	q, err := s.writable(ctx, actor, id)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("quarters/%d/%d-Q%d/%s%s", q.ObjectiveID, q.Year, q.Quarter, uuid.New().String(), strings.ToLower(path.Ext(filename)))
	if err := s.evidence.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("upload evidence: %w", err)
	}
	if err := s.repo.SetEvidence(ctx, id, key); err != nil {
		return "", err
	}
	s.logger.Info("evidence uploaded",
		zap.Uint64("quarter_id", id),
		zap.String("key", key),
		zap.Int64("size", size),
		zap.Uint64("operator_id", actor.ID),
	)
	return key, nil
}

// EvidenceURL 证明材料的临时下载地址
func (s *QuarterService) EvidenceURL(ctx context.Context, actor *authz.Actor, id uint64) (string, error) {
	if s.evidence == nil {
		return "", ErrStorageUnavailable
	}
	q, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if q.EvidenceKey == "" {
		return "", apperr.NotFound("evidence for quarter", id)
	}
	url, err := s.evidence.URL(ctx, q.EvidenceKey)
	if err != nil {
		return "", fmt.Errorf("presign evidence: %w", err)
	}
	return url, nil
}
