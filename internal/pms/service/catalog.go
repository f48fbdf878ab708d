package service

import (
	"context"
	"fmt"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/workflow"
	"gorm.io/gorm"
)

// 审批实体类型
const (
	KindPosts         = "posts"
	KindObjectives    = "objectives"
	KindUnitOfMeasure = "objectives/unit-of-measure"
	KindQuarters      = "quarters"
)

func branchName(b *entity.Branch) string {
	if b == nil {
		return ""
	}
	return b.Name
}

func loadPost(ctx context.Context, db *gorm.DB, id uint64) (workflow.Record, error) {
	p, err := repository.NewPostRepository(db).FindByID(ctx, id)
	if err != nil {
		return workflow.Record{}, err
	}
	return workflow.Record{Entity: p, BranchID: &p.BranchID, BranchName: branchName(p.Branch)}, nil
}

func loadObjective(ctx context.Context, db *gorm.DB, id uint64) (workflow.Record, error) {
	o, err := repository.NewObjectiveRepository(db).FindByID(ctx, id)
	if err != nil {
		return workflow.Record{}, err
	}
	return workflow.Record{Entity: o, BranchID: &o.BranchID, BranchName: branchName(o.Branch)}, nil
}

func loadQuarter(ctx context.Context, db *gorm.DB, id uint64) (workflow.Record, error) {
	q, err := repository.NewQuarterRepository(db).FindByID(ctx, id)
	if err != nil {
		return workflow.Record{}, err
	}
	rec := workflow.Record{Entity: q}
	if q.Objective != nil {
		rec.BranchID = &q.Objective.BranchID
		rec.BranchName = branchName(q.Objective.Branch)
	}
	return rec, nil
}

func objectiveLabel(rec workflow.Record) string {
	switch e := rec.Entity.(type) {
	case *entity.PerformanceObjective:
		return e.Label()
	case *entity.QuarterlyProgress:
		if e.Objective != nil {
			return e.Objective.Label()
		}
	}
	return ""
}

func quarterPrefix(rec workflow.Record) string {
	q, _ := rec.Entity.(*entity.QuarterlyProgress)
	if q == nil {
		return "Quarterly"
	}
	return fmt.Sprintf("Quarter %d %d", q.Quarter, q.Year)
}

// NewCatalog 注册全部走审批流的实体类型
func NewCatalog() *workflow.Catalog {
	c := workflow.NewCatalog()

	c.Register(&workflow.Descriptor{
		Kind:          KindPosts,
		Object:        authz.ObjPosts,
		Table:         "posts",
		StatusColumn:  "status",
		LockColumn:    "is_locked",
		CommentColumn: "rejection_comment",
		BranchExpr:    authz.PostTarget.BranchExpr,
		OwnerColumn:   authz.PostTarget.OwnerColumn,
		Machine:       workflow.Standard(KindPosts),
		Load:          loadPost,
		Messages: map[workflow.Action]workflow.MessageFunc{
			workflow.Submit: func(workflow.Record, string) string { return "Post was submitted for approval." },
			workflow.Approve: func(workflow.Record, string) string {
				return "Post was approved by admin."
			},
			workflow.Reject: func(_ workflow.Record, comment string) string {
				return "Post was rejected by admin. Reason: " + comment
			},
		},
	})

	c.Register(&workflow.Descriptor{
		Kind:          KindObjectives,
		Object:        authz.ObjObjectives,
		Table:         "performance_objectives",
		StatusColumn:  "status",
		LockColumn:    "is_locked",
		CommentColumn: "rejection_comment",
		BranchExpr:    authz.ObjectiveTarget.BranchExpr,
		OwnerColumn:   authz.ObjectiveTarget.OwnerColumn,
		Machine:       workflow.Standard(KindObjectives),
		Load:          loadObjective,
		Messages:      labelMessages("Performance objective"),
	})

	c.Register(&workflow.Descriptor{
		Kind:          KindUnitOfMeasure,
		Object:        authz.ObjObjectives,
		ActionSuffix:  "-unit-of-measure",
		Table:         "performance_objectives",
		StatusColumn:  "unit_of_measure_status",
		CommentColumn: "unit_of_measure_comment",
		BranchExpr:    authz.ObjectiveTarget.BranchExpr,
		OwnerColumn:   authz.ObjectiveTarget.OwnerColumn,
		Machine:       workflow.UnitOfMeasure(KindUnitOfMeasure),
		Load:          loadObjective,
		Messages:      labelMessages("Unit of measure for"),
	})

	c.Register(&workflow.Descriptor{
		Kind:          KindQuarters,
		Object:        authz.ObjQuarters,
		Table:         "quarterly_progresses",
		StatusColumn:  "status",
		LockColumn:    "is_locked",
		CommentColumn: "rejection_comment",
		BranchExpr:    authz.QuarterTarget.BranchExpr,
		OwnerColumn:   authz.QuarterTarget.OwnerColumn,
		Machine:       workflow.Standard(KindQuarters),
		Load:          loadQuarter,
		Messages: map[workflow.Action]workflow.MessageFunc{
			workflow.Submit: func(rec workflow.Record, _ string) string {
				return fmt.Sprintf("%s progress for '%s' submitted for approval.", quarterPrefix(rec), objectiveLabel(rec))
			},
			workflow.Approve: func(rec workflow.Record, _ string) string {
				return fmt.Sprintf("%s progress for '%s' was approved.", quarterPrefix(rec), objectiveLabel(rec))
			},
			workflow.Reject: func(rec workflow.Record, comment string) string {
				return fmt.Sprintf("%s progress for '%s' was rejected. Reason: %s", quarterPrefix(rec), objectiveLabel(rec), comment)
			},
		},
	})

	return c
}

func labelMessages(subject string) map[workflow.Action]workflow.MessageFunc {
	return map[workflow.Action]workflow.MessageFunc{
		workflow.Submit: func(rec workflow.Record, _ string) string {
			return fmt.Sprintf("%s '%s' submitted for approval.", subject, objectiveLabel(rec))
		},
		workflow.Approve: func(rec workflow.Record, _ string) string {
			return fmt.Sprintf("%s '%s' was approved.", subject, objectiveLabel(rec))
		},
		workflow.Reject: func(rec workflow.Record, comment string) string {
			return fmt.Sprintf("%s '%s' was rejected. Reason: %s", subject, objectiveLabel(rec), comment)
		},
	}
}
