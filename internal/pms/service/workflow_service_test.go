package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/notify"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestSubmitThenApprove(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)
	assert.Equal(t, entity.StatusDraft, p.Status)
	assert.Equal(t, 1, p.Version)

	out, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Submit, "")
	require.NoError(t, err)
	got := out.(*entity.Post)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.True(t, got.IsLocked)
	assert.Equal(t, 2, got.Version)

	out, err = f.execute(t, f.admin, KindPosts, p.ID, workflow.Approve, "")
	require.NoError(t, err)
	got = out.(*entity.Post)
	assert.Equal(t, entity.StatusApproved, got.Status)
	assert.False(t, got.IsLocked)
	assert.Equal(t, 3, got.Version)

	logs, total, err := f.svc.Workflow.History(f.ctx, KindPosts, p.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
}

func TestRejectStoresCommentAndNotifiesAdmins(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)
	_, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Submit, "")
	require.NoError(t, err)
	before := f.notificationCount(t)

	out, err := f.execute(t, f.ceo, KindPosts, p.ID, workflow.Reject, "insufficient evidence")
	require.NoError(t, err)
	got := out.(*entity.Post)
	assert.Equal(t, entity.StatusRejected, got.Status)
	assert.False(t, got.IsLocked)
	require.NotNil(t, got.RejectionComment)
	assert.Equal(t, "insufficient evidence", *got.RejectionComment)

	// admin1 and ceo1 are the only administrators
	assert.Equal(t, before+2, f.notificationCount(t))

	var last entity.Notification
	require.NoError(t, f.db.Order("id DESC").First(&last).Error)
	assert.Equal(t, "Post was rejected by admin. Reason: insufficient evidence", last.Message)
	assert.Equal(t, "/pages/finance", last.URL)
}

func TestRejectWithoutComment(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)
	_, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Submit, "")
	require.NoError(t, err)

	out, err := f.execute(t, f.admin, KindPosts, p.ID, workflow.Reject, "")
	require.NoError(t, err)
	got := out.(*entity.Post)
	assert.False(t, got.IsLocked)
	require.NotNil(t, got.RejectionComment)
	assert.Equal(t, workflow.NoReason, *got.RejectionComment)

	var last entity.Notification
	require.NoError(t, f.db.Order("id DESC").First(&last).Error)
	assert.Equal(t, "Post was rejected by admin. Reason: No reason provided", last.Message)
}

func TestResubmitClearsRejection(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)
	for _, step := range []struct {
		actor   bool
		action  workflow.Action
		comment string
	}{
		{false, workflow.Submit, ""},
		{true, workflow.Reject, "wrong figures"},
		{false, workflow.Submit, ""},
	} {
		actor := f.staff
		if step.actor {
			actor = f.admin
		}
		_, err := f.execute(t, actor, KindPosts, p.ID, step.action, step.comment)
		require.NoError(t, err)
	}

	got, err := f.svc.Post.Get(f.ctx, f.staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Nil(t, got.RejectionComment)
	assert.True(t, got.IsLocked)
}

func TestApproveRejectOutsidePendingIsInvalid(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)

	for _, action := range []workflow.Action{workflow.Approve, workflow.Reject} {
		_, err := f.execute(t, f.admin, KindPosts, p.ID, action, "")
		it := requireErrorType[*apperr.InvalidTransitionError](t, err)
		assert.Equal(t, entity.StatusDraft, it.Current)
	}

	_, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Submit, "")
	require.NoError(t, err)
	_, err = f.execute(t, f.admin, KindPosts, p.ID, workflow.Approve, "")
	require.NoError(t, err)

	for _, action := range []workflow.Action{workflow.Approve, workflow.Reject, workflow.Submit} {
		_, err := f.execute(t, f.admin, KindPosts, p.ID, action, "")
		requireErrorType[*apperr.InvalidTransitionError](t, err)
	}

	got, err := f.svc.Post.Get(f.ctx, f.admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)
	assert.Equal(t, 3, got.Version)
}

func TestWithdrawOutsidePendingIsNoop(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)
	before := f.notificationCount(t)

	out, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Withdraw, "")
	require.NoError(t, err)
	got := out.(*entity.Post)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, before, f.notificationCount(t))

	_, total, err := f.svc.Workflow.History(f.ctx, KindPosts, p.ID, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestWithdrawFromPending(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)
	_, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Submit, "")
	require.NoError(t, err)

	out, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Withdraw, "")
	require.NoError(t, err)
	got := out.(*entity.Post)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.False(t, got.IsLocked)
}

func TestUnlockReturnsToDraft(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)
	_, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Submit, "")
	require.NoError(t, err)
	_, err = f.execute(t, f.admin, KindPosts, p.ID, workflow.Reject, "redo")
	require.NoError(t, err)

	_, err = f.execute(t, f.staff, KindPosts, p.ID, workflow.Unlock, "")
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	out, err := f.execute(t, f.admin, KindPosts, p.ID, workflow.Unlock, "")
	require.NoError(t, err)
	got := out.(*entity.Post)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.False(t, got.IsLocked)
	assert.Nil(t, got.RejectionComment)
}

func TestStaffCannotApprove(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)
	_, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Submit, "")
	require.NoError(t, err)

	for _, actor := range []*authz.Actor{f.staff, f.hod} {
		_, err := f.execute(t, actor, KindPosts, p.ID, workflow.Approve, "")
		requireErrorType[*apperr.PermissionDeniedError](t, err)
	}
}

func TestSubmitOutsideScopeDenied(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)

	_, err := f.execute(t, f.outsider, KindPosts, p.ID, workflow.Submit, "")
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	// same branch, different owner
	_, err = f.execute(t, f.peer, KindPosts, p.ID, workflow.Submit, "")
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	// unit lead of the branch may act on any record in it
	_, err = f.execute(t, f.hod, KindPosts, p.ID, workflow.Submit, "")
	require.NoError(t, err)
}

func TestExecuteUnknownRecordAndAction(t *testing.T) {
	f := newFixture(t)

	_, err := f.execute(t, f.admin, KindPosts, 9999, workflow.Submit, "")
	requireErrorType[*apperr.NotFoundError](t, err)

	p := f.post(t, f.staff)
	_, err = f.execute(t, f.admin, KindPosts, p.ID, workflow.Cancel, "")
	requireValidation(t, err, "action")

	_, err = f.execute(t, f.admin, "budgets", p.ID, workflow.Submit, "")
	requireValidation(t, err, "kind")
}

func TestLockedRecordRefusesEdits(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)
	_, err := f.execute(t, f.staff, KindPosts, p.ID, workflow.Submit, "")
	require.NoError(t, err)

	req := &PostRequest{BranchID: f.finance.ID, AnnualTarget: "99%"}
	_, err = f.svc.Post.Update(f.ctx, f.staff, p.ID, req)
	requireErrorType[*apperr.ConflictError](t, err)

	got, err := f.svc.Post.Update(f.ctx, f.admin, p.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "99%", got.AnnualTarget)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.True(t, got.IsLocked)
}

func TestUnitOfMeasureTrackIsIndependent(t *testing.T) {
	f := newFixture(t)
	o := f.objective(t, f.staff)
	assert.Equal(t, entity.StatusDraft, o.UnitOfMeasureStatus)

	out, err := f.execute(t, f.staff, KindUnitOfMeasure, o.ID, workflow.Submit, "")
	require.NoError(t, err)
	got := out.(*entity.PerformanceObjective)
	assert.Equal(t, entity.StatusPending, got.UnitOfMeasureStatus)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.False(t, got.IsLocked)

	_, err = f.execute(t, f.staff, KindUnitOfMeasure, o.ID, workflow.Approve, "")
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	out, err = f.execute(t, f.admin, KindUnitOfMeasure, o.ID, workflow.Reject, "use a percentage")
	require.NoError(t, err)
	got = out.(*entity.PerformanceObjective)
	assert.Equal(t, entity.StatusRejected, got.UnitOfMeasureStatus)
	require.NotNil(t, got.UnitOfMeasureComment)
	assert.Equal(t, "use a percentage", *got.UnitOfMeasureComment)
	assert.Nil(t, got.RejectionComment)

	var last entity.Notification
	require.NoError(t, f.db.Order("id DESC").First(&last).Error)
	assert.Equal(t, "Unit of measure for 'Financial Stewardship - Revenue Collection' was rejected. Reason: use a percentage", last.Message)

	_, err = f.execute(t, f.staff, KindUnitOfMeasure, o.ID, workflow.Withdraw, "")
	requireValidation(t, err, "action")
}

func TestQuarterWorkflowScopesThroughObjective(t *testing.T) {
	f := newFixture(t)
	o := f.objective(t, f.staff)
	q, created, err := f.svc.Objective.QuarterFor(f.ctx, f.staff, o.ID, &QuarterPeriodRequest{Year: 2024, Quarter: 1})
	require.NoError(t, err)
	require.True(t, created)

	_, err = f.execute(t, f.outsider, KindQuarters, q.ID, workflow.Submit, "")
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	out, err := f.execute(t, f.staff, KindQuarters, q.ID, workflow.Submit, "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, out.(*entity.QuarterlyProgress).Status)

	var last entity.Notification
	require.NoError(t, f.db.Order("id DESC").First(&last).Error)
	assert.Equal(t, "Quarter 1 2024 progress for 'Financial Stewardship - Revenue Collection' submitted for approval.", last.Message)
}

func TestStaleVersionIsConflict(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)

	// 在读取和 CAS 写入之间模拟另一个请求改动了同一行
	bumped := false
	err := f.db.Callback().Update().Before("gorm:update").Register("bump_post_version", func(db *gorm.DB) {
		if bumped || db.Statement.Table != "posts" {
			return
		}
		bumped = true
		db.Session(&gorm.Session{NewDB: true}).Exec("UPDATE posts SET version = version + 1 WHERE id = ?", p.ID)
	})
	require.NoError(t, err)

	_, err = f.execute(t, f.staff, KindPosts, p.ID, workflow.Submit, "")
	requireErrorType[*apperr.ConflictError](t, err)
	assert.True(t, bumped)

	var got entity.Post
	require.NoError(t, f.db.First(&got, p.ID).Error)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.Equal(t, 1, got.Version)
	assert.False(t, got.IsLocked)

	var logs int64
	require.NoError(t, f.db.Model(&entity.ActivityLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
	assert.Zero(t, f.notificationCount(t))
}

func TestReloadFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.staff)

	base, ok := NewCatalog().Get(KindPosts)
	require.True(t, ok)
	broken := *base
	broken.Load = func(ctx context.Context, db *gorm.DB, id uint64) (workflow.Record, error) {
		return workflow.Record{}, errors.New("connection reset")
	}
	catalog := workflow.NewCatalog()
	catalog.Register(&broken)

	enf, err := authz.NewEnforcer(nil)
	require.NoError(t, err)
	svc := NewWorkflowService(f.db, catalog, enf, notify.NewDispatcher(f.db, nil),
		repository.NewActivityLogRepository(f.db), zap.NewNop())

	_, err = svc.Execute(f.ctx, f.staff, KindPosts, p.ID, workflow.Submit, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	var got entity.Post
	require.NoError(t, f.db.First(&got, p.ID).Error)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.False(t, got.IsLocked)
	assert.Zero(t, f.notificationCount(t))
}
