package service

import (
	"context"
	"testing"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/cache"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/notify"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/testutil"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/workflow"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db  *gorm.DB
	svc *Services
	ctx context.Context

	finance  *entity.Branch
	ict      *entity.Branch
	subtitle *entity.Subtitle
	criteria *entity.Criteria

	admin      *authz.Actor
	ceo        *authz.Actor
	hod        *authz.Actor
	staff      *authz.Actor
	peer       *authz.Actor
	outsider   *authz.Actor
	unassigned *authz.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	enf, err := authz.NewEnforcer(nil)
	require.NoError(t, err)

	f := &fixture{db: db, ctx: context.Background()}
	f.finance = testutil.SeedBranch(t, db, "Finance")
	f.ict = testutil.SeedBranch(t, db, "ICT")
	f.subtitle = testutil.SeedSubtitle(t, db, "Financial Stewardship")
	f.criteria = testutil.SeedCriteria(t, db, "Revenue Collection")

	f.admin = authz.ActorFromUser(testutil.SeedUser(t, db, "admin1", entity.RoleAdmin, nil))
	f.ceo = authz.ActorFromUser(testutil.SeedUser(t, db, "ceo1", entity.RoleCEO, nil))
	f.hod = authz.ActorFromUser(testutil.SeedUser(t, db, "hod1", entity.RoleHeadOfDepartment, f.finance))
	f.staff = authz.ActorFromUser(testutil.SeedUser(t, db, "staff1", entity.RoleStaff, f.finance))
	f.peer = authz.ActorFromUser(testutil.SeedUser(t, db, "staff2", entity.RoleStaff, f.finance))
	f.outsider = authz.ActorFromUser(testutil.SeedUser(t, db, "ict1", entity.RoleStaff, f.ict))
	f.unassigned = authz.ActorFromUser(testutil.SeedUser(t, db, "floater", entity.RoleStaff, nil))

	f.svc = NewServices(Deps{
		DB:       db,
		Repos:    repository.NewRepositories(db),
		Enforcer: enf,
		Notifier: notify.NewDispatcher(db, nil),
		Cache:    cache.New(nil, 0),
	})
	return f
}

func (f *fixture) post(t *testing.T, actor *authz.Actor) *entity.Post {
	t.Helper()
	p, err := f.svc.Post.Create(f.ctx, actor, &PostRequest{BranchID: f.finance.ID, SubtitleID: &f.subtitle.ID, AnnualTarget: "95%"})
	require.NoError(t, err)
	return p
}

func (f *fixture) objective(t *testing.T, actor *authz.Actor) *entity.PerformanceObjective {
	t.Helper()
	o, err := f.svc.Objective.Create(f.ctx, actor, &ObjectiveRequest{
		BranchID:      f.finance.ID,
		SubtitleID:    f.subtitle.ID,
		CriteriaID:    &f.criteria.ID,
		UnitOfMeasure: "KES (M)",
		AnnualTarget:  "1200",
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) execute(t *testing.T, actor *authz.Actor, kind string, id uint64, action workflow.Action, comment string) (interface{}, error) {
	t.Helper()
	return f.svc.Workflow.Execute(f.ctx, actor, kind, id, action, comment)
}

func (f *fixture) notificationCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&entity.Notification{}).Count(&n).Error)
	return n
}

func requireErrorType[T error](t *testing.T, err error) T {
	t.Helper()
	require.Error(t, err)
	var target T
	require.ErrorAs(t, err, &target)
	return target
}

func requireValidation(t *testing.T, err error, field string) *apperr.ValidationError {
	t.Helper()
	ve := requireErrorType[*apperr.ValidationError](t, err)
	require.Contains(t, ve.Fields, field)
	return ve
}
