package repository

import (
	"context"
	"testing"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchFindByNameIgnoresCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()
	testutil.SeedBranch(t, db, "Medical Services")

	b, err := repos.Branch.FindByName(ctx, "medical services")
	require.NoError(t, err)
	assert.Equal(t, "Medical Services", b.Name)

	_, err = repos.Branch.FindByName(ctx, "radiology")
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestBranchChildrenAndParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()
	parent := testutil.SeedBranch(t, db, "Operations")
	child := &entity.Branch{Name: "Security", ParentID: &parent.ID}
	require.NoError(t, repos.Branch.Create(ctx, child))

	n, err := repos.Branch.CountChildren(ctx, parent.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repos.Branch.CountChildren(ctx, child.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := repos.Branch.ParentOf(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, parent.ID, *p)
}

func TestBranchDeleteDetachesUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()
	b := testutil.SeedBranch(t, db, "Legal KHA")
	u := testutil.SeedUser(t, db, "counsel", entity.RoleStaff, b)
	p := &entity.Post{BranchID: b.ID, WorkflowState: entity.NewWorkflowState(0)}
	require.NoError(t, repos.Post.Create(ctx, p))

	require.NoError(t, repos.Branch.Delete(ctx, b.ID))

	got, err := repos.User.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BranchID)

	_, err = repos.Post.FindByID(ctx, p.ID)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestObjectiveExistsScopeNullCriteria(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()
	b := testutil.SeedBranch(t, db, "Finance")
	s := testutil.SeedSubtitle(t, db, "Revenue")
	c := testutil.SeedCriteria(t, db, "Collections")

	o := &entity.PerformanceObjective{BranchID: b.ID, SubtitleID: s.ID, WorkflowState: entity.NewWorkflowState(0)}
	require.NoError(t, repos.Objective.Create(ctx, o))

	exists, err := repos.Objective.ExistsScope(ctx, b.ID, s.ID, nil, 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repos.Objective.ExistsScope(ctx, b.ID, s.ID, nil, o.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repos.Objective.ExistsScope(ctx, b.ID, s.ID, &c.ID, 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPostUpdateKeepsWorkflowColumns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()
	b := testutil.SeedBranch(t, db, "ICT")

	p := &entity.Post{BranchID: b.ID, UnitOfMeasure: "%", WorkflowState: entity.NewWorkflowState(0)}
	require.NoError(t, repos.Post.Create(ctx, p))
	require.NoError(t, db.Model(&entity.Post{}).Where("id = ?", p.ID).
		Updates(map[string]interface{}{"status": entity.StatusPending, "is_locked": true}).Error)

	p.UnitOfMeasure = "count"
	p.Status = entity.StatusApproved
	p.IsLocked = false
	require.NoError(t, repos.Post.Update(ctx, p))

	got, err := repos.Post.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "count", got.UnitOfMeasure)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.True(t, got.IsLocked)
}

func TestNotificationMarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	list := []entity.Notification{
		{RecipientID: 1, Message: "a"},
		{RecipientID: 1, Message: "b"},
		{RecipientID: 2, Message: "c"},
	}
	require.NoError(t, db.Create(&list).Error)

	require.NoError(t, repos.Notification.MarkRead(ctx, list[0].ID, 1))
	err := repos.Notification.MarkRead(ctx, list[2].ID, 1)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)

	n, err := repos.Notification.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	updated, err := repos.Notification.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
}

func TestUserStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	testutil.SeedUser(t, db, "a1", entity.RoleAdmin, nil)
	testutil.SeedUser(t, db, "s1", entity.RoleStaff, nil)
	s2 := testutil.SeedUser(t, db, "s2", entity.RoleStaff, nil)
	testutil.Deactivate(t, db, s2)

	stats, err := repos.User.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Active)
	assert.Equal(t, int64(1), stats.Inactive)
	assert.Equal(t, []RoleCount{{RoleCode: "admin", Count: 1}, {RoleCode: "staff", Count: 2}}, stats.ByRole)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	// SetupTestDB already seeds both tables
	n, err := repos.Role.Seed(ctx, entity.DefaultRoles)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, db.Where("code = ?", entity.ApprovalCancelled).Delete(&entity.ApprovalStatus{}).Error)
	n, err = repos.Initiative.SeedStatuses(ctx, entity.DefaultApprovalStatuses)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := repos.Initiative.StatusDefined(ctx, entity.ApprovalCancelled)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserRoleMustExist(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	ghost := "ghost"
	err := repos.User.Create(ctx, &entity.User{Username: "g", Email: "g@test.com", RoleCode: &ghost, IsActive: true})
	assert.Error(t, err)

	u := &entity.User{Username: "n", Email: "n@test.com", IsActive: true}
	require.NoError(t, repos.User.Create(ctx, u))
	assert.Nil(t, u.RoleCode)

	// 分配角色失败时，同一事务内写入的用户一并回滚
	err = repos.User.Transaction(ctx, func(repo *UserRepository) error {
		m := &entity.User{Username: "m", Email: "m@test.com", IsActive: true}
		if err := repo.Create(ctx, m); err != nil {
			return err
		}
		return repo.AssignRole(ctx, m.ID, ghost)
	})
	assert.Error(t, err)
	exists, err := repos.User.ExistsUsername(ctx, "m", 0)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repos.User.AssignRole(ctx, u.ID, entity.RoleStaff))
	got, err := repos.User.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, got.RoleValue())
}
