package service

import (
	"testing"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/notify"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateUserAssignsDefaultRole(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.User.Create(f.ctx, f.admin, &CreateUserRequest{Username: "nurse1", Email: "nurse1@tnh.test", BranchID: &f.finance.ID})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, u.RoleValue())
	assert.True(t, u.IsActive)

	su, err := f.svc.User.Create(f.ctx, f.admin, &CreateUserRequest{Username: "root2", Email: "root2@tnh.test", IsSuperuser: true})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, su.RoleValue())

	hod, err := f.svc.User.Create(f.ctx, f.admin, &CreateUserRequest{Username: "hod2", Email: "hod2@tnh.test", Role: entity.RoleHeadOfDepartment})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleHeadOfDepartment, hod.RoleValue())
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.User.Create(f.ctx, f.staff, &CreateUserRequest{Username: "x", Email: "x@tnh.test"})
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	_, err = f.svc.User.Create(f.ctx, f.admin, &CreateUserRequest{Username: "x", Email: "x@tnh.test", Role: "janitor"})
	ve := requireValidation(t, err, "role")
	assert.Equal(t, "'janitor' is not a valid choice.", ve.Fields["role"])

	_, err = f.svc.User.Create(f.ctx, f.admin, &CreateUserRequest{Username: "STAFF1", Email: "new@tnh.test"})
	requireValidation(t, err, "username")

	_, err = f.svc.User.Create(f.ctx, f.admin, &CreateUserRequest{Username: "x", Email: "not-an-email"})
	requireValidation(t, err, "email")
}

func TestUserCannotChangeOwnRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.User.Update(f.ctx, f.staff, f.staff.ID, &UpdateUserRequest{Role: strPtr(entity.RoleAdmin)})
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	u, err := f.svc.User.Update(f.ctx, f.staff, f.staff.ID, &UpdateUserRequest{FirstName: strPtr("Achieng")})
	require.NoError(t, err)
	assert.Equal(t, "Achieng", u.FirstName)
	assert.Equal(t, entity.RoleStaff, u.RoleValue())

	active := false
	_, err = f.svc.User.Update(f.ctx, f.staff, f.staff.ID, &UpdateUserRequest{IsActive: &active})
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	_, err = f.svc.User.Update(f.ctx, f.staff, f.peer.ID, &UpdateUserRequest{FirstName: strPtr("x")})
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	u, err = f.svc.User.Update(f.ctx, f.admin, f.staff.ID, &UpdateUserRequest{Role: strPtr(entity.RoleHeadOfDepartment)})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleHeadOfDepartment, u.RoleValue())
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)

	err := f.svc.User.Delete(f.ctx, f.admin, f.admin.ID)
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	err = f.svc.User.Delete(f.ctx, f.hod, f.staff.ID)
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	require.NoError(t, f.svc.User.Delete(f.ctx, f.admin, f.staff.ID))
	_, err = f.svc.User.Get(f.ctx, f.admin, f.staff.ID)
	requireErrorType[*apperr.NotFoundError](t, err)
}

func TestAssignRoleAndStats(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.User.AssignRole(f.ctx, f.hod, f.staff.ID, &AssignRoleRequest{Role: entity.RoleCEO})
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	u, err := f.svc.User.AssignRole(f.ctx, f.admin, f.staff.ID, &AssignRoleRequest{Role: entity.RoleCEO})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleCEO, u.RoleValue())

	_, err = f.svc.User.Stats(f.ctx, f.staff)
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	stats, err := f.svc.User.Stats(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.Total)
	assert.Equal(t, int64(7), stats.Active)
}

func TestUserListScope(t *testing.T) {
	f := newFixture(t)

	users, total, err := f.svc.User.List(f.ctx, f.staff, 1, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, f.staff.ID, users[0].ID)

	_, total, err = f.svc.User.List(f.ctx, f.hod, 1, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	roles, err := f.svc.User.Roles(f.ctx)
	require.NoError(t, err)
	assert.Len(t, roles, len(entity.DefaultRoles))
}

func TestBranchCycleGuard(t *testing.T) {
	f := newFixture(t)

	child, err := f.svc.Branch.Create(f.ctx, f.admin, &BranchRequest{Name: "Revenue", ParentID: &f.finance.ID})
	require.NoError(t, err)
	grandchild, err := f.svc.Branch.Create(f.ctx, f.admin, &BranchRequest{Name: "Cashiers", ParentID: &child.ID})
	require.NoError(t, err)

	_, err = f.svc.Branch.Update(f.ctx, f.admin, f.finance.ID, &BranchRequest{Name: "Finance", ParentID: &grandchild.ID})
	ve := requireValidation(t, err, "parent_id")
	assert.Equal(t, "A branch cannot be its own ancestor.", ve.Fields["parent_id"])

	_, err = f.svc.Branch.Update(f.ctx, f.admin, child.ID, &BranchRequest{Name: "Revenue", ParentID: &child.ID})
	requireValidation(t, err, "parent_id")

	missing := uint64(999)
	_, err = f.svc.Branch.Create(f.ctx, f.admin, &BranchRequest{Name: "Orphan", ParentID: &missing})
	requireValidation(t, err, "parent_id")

	_, err = f.svc.Branch.Create(f.ctx, f.admin, &BranchRequest{Name: "finance"})
	requireValidation(t, err, "name")

	_, err = f.svc.Branch.Create(f.ctx, f.staff, &BranchRequest{Name: "Pharmacy"})
	requireErrorType[*apperr.PermissionDeniedError](t, err)
}

func TestBranchDeleteCascades(t *testing.T) {
	f := newFixture(t)
	f.post(t, f.staff)
	o := f.objective(t, f.staff)
	_, _, err := f.svc.Objective.QuarterFor(f.ctx, f.staff, o.ID, &QuarterPeriodRequest{Year: 2024, Quarter: 2})
	require.NoError(t, err)
	i := f.initiative(t)
	_, err = f.svc.Initiative.Transition(f.ctx, f.staff, i.ID, workflow.RequestApproval, "")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(f.subtitle).Update("division_id", f.finance.ID).Error)

	// ICT 的数据不受影响
	ictPost, err := f.svc.Post.Create(f.ctx, f.outsider, &PostRequest{BranchID: f.ict.ID, AnnualTarget: "99%"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Branch.Delete(f.ctx, f.admin, f.finance.ID))

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 1, count(&entity.Post{}))
	assert.EqualValues(t, 0, count(&entity.PerformanceObjective{}))
	assert.EqualValues(t, 0, count(&entity.QuarterlyProgress{}))
	assert.EqualValues(t, 0, count(&entity.Initiative{}))
	assert.EqualValues(t, 0, count(&entity.ApprovalEntry{}))
	assert.EqualValues(t, 0, count(&entity.StrategicObjective{}))

	_, err = f.svc.Post.Get(f.ctx, f.admin, ictPost.ID)
	require.NoError(t, err)

	var staff entity.User
	require.NoError(t, f.db.First(&staff, f.staff.ID).Error)
	assert.Nil(t, staff.BranchID)

	var sub entity.Subtitle
	require.NoError(t, f.db.First(&sub, f.subtitle.ID).Error)
	assert.Nil(t, sub.DivisionID)

	_, err = f.svc.Branch.Get(f.ctx, f.admin, f.finance.ID)
	requireErrorType[*apperr.NotFoundError](t, err)
}

func TestBranchDeleteRefusesSubBranches(t *testing.T) {
	f := newFixture(t)
	child, err := f.svc.Branch.Create(f.ctx, f.admin, &BranchRequest{Name: "Revenue Office", ParentID: &f.finance.ID})
	require.NoError(t, err)

	err = f.svc.Branch.Delete(f.ctx, f.admin, f.finance.ID)
	requireValidation(t, err, "branch")

	err = f.svc.Branch.Delete(f.ctx, f.hod, child.ID)
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	require.NoError(t, f.svc.Branch.Delete(f.ctx, f.admin, child.ID))
	require.NoError(t, f.svc.Branch.Delete(f.ctx, f.admin, f.finance.ID))
}

func TestNotificationInbox(t *testing.T) {
	f := newFixture(t)
	d := notify.NewDispatcher(f.db, nil)
	d.Dispatch(f.ctx, notify.Event{Message: "first"})
	d.Dispatch(f.ctx, notify.Event{Message: "second"})

	items, total, err := f.svc.Notification.List(f.ctx, f.admin, false, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Message)

	count, err := f.svc.Notification.UnreadCount(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// another user's notification is not visible
	err = f.svc.Notification.MarkRead(f.ctx, f.ceo, items[0].ID)
	requireErrorType[*apperr.NotFoundError](t, err)

	require.NoError(t, f.svc.Notification.MarkRead(f.ctx, f.admin, items[0].ID))
	count, err = f.svc.Notification.UnreadCount(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	n, err := f.svc.Notification.MarkAllRead(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unread, _, err := f.svc.Notification.List(f.ctx, f.admin, true, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestStrategicOverview(t *testing.T) {
	f := newFixture(t)
	obj, err := f.svc.Strategic.CreateObjective(f.ctx, f.admin, &StrategicObjectiveRequest{
		Title:    "Reduce waiting time",
		BranchID: f.finance.ID,
		Progress: 40,
		Status:   "behind_schedule",
		Criteria: []StrategicCriteriaRequest{{Title: "Triage under 15 minutes"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "error", obj.Color)
	assert.Len(t, obj.Criteria, 1)

	_, err = f.svc.Strategic.CreateActionItem(f.ctx, f.admin, &ActionItemRequest{Title: "Hire cashiers", BranchID: f.finance.ID})
	require.NoError(t, err)
	_, err = f.svc.Strategic.CreateActionItem(f.ctx, f.admin, &ActionItemRequest{Title: "ISO audit passed", ActionType: "achievement", BranchID: f.finance.ID})
	require.NoError(t, err)
	_, err = f.svc.Strategic.CreateKeyMetric(f.ctx, f.admin, &KeyMetricRequest{Label: "Collections", Value: "92%", BranchID: f.finance.ID})
	require.NoError(t, err)

	_, err = f.svc.Strategic.CreateKeyMetric(f.ctx, f.staff, &KeyMetricRequest{Label: "x", BranchID: f.finance.ID})
	requireErrorType[*apperr.PermissionDeniedError](t, err)

	ov, err := f.svc.Strategic.Overview(f.ctx, f.staff, "FINANCE")
	require.NoError(t, err)
	assert.Equal(t, "Finance", ov.DepartmentInfo.Name)
	assert.Len(t, ov.Objectives, 1)
	assert.Len(t, ov.KeyMetrics, 1)
	require.Len(t, ov.PriorityActions, 1)
	assert.Equal(t, "Hire cashiers", ov.PriorityActions[0].Title)
	require.Len(t, ov.RecentAchievements, 1)

	_, err = f.svc.Strategic.Overview(f.ctx, f.staff, "radiology")
	requireErrorType[*apperr.NotFoundError](t, err)

	_, err = f.svc.Strategic.ListActionItems(f.ctx, f.staff, "", "urgent")
	requireValidation(t, err, "type")

	deps, err := f.svc.Strategic.Departments(f.ctx, f.staff)
	require.NoError(t, err)
	assert.Len(t, deps, 2)
}
