package authz

import (
	"testing"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func u64(v uint64) *uint64 { return &v }

func TestActorRoleMapping(t *testing.T) {
	assert.Equal(t, RoleAdministrator, (&Actor{RoleCode: entity.RoleAdmin}).Role())
	assert.Equal(t, RoleAdministrator, (&Actor{RoleCode: entity.RoleCEO}).Role())
	assert.Equal(t, RoleAdministrator, (&Actor{RoleCode: entity.RoleStaff, IsSuperuser: true}).Role())
	assert.Equal(t, RoleUnitLead, (&Actor{RoleCode: entity.RoleHeadOfDepartment}).Role())
	assert.Equal(t, RoleGeneral, (&Actor{RoleCode: entity.RoleStaff}).Role())
	assert.Equal(t, RoleGeneral, (&Actor{}).Role())
	assert.Equal(t, entity.RoleStaff, (&Actor{}).Subject())
	assert.Equal(t, entity.RoleAdmin, (&Actor{IsSuperuser: true, RoleCode: entity.RoleStaff}).Subject())
}

func TestCanReadAndWrite(t *testing.T) {
	admin := &Actor{ID: 1, RoleCode: entity.RoleAdmin}
	lead := &Actor{ID: 2, RoleCode: entity.RoleHeadOfDepartment, BranchID: u64(10)}
	staff := &Actor{ID: 3, RoleCode: entity.RoleStaff, BranchID: u64(10)}
	orphan := &Actor{ID: 4, RoleCode: entity.RoleHeadOfDepartment}

	assert.True(t, CanWrite(admin, u64(99), nil))
	assert.True(t, CanRead(lead, u64(10), u64(7)))
	assert.False(t, CanRead(lead, u64(11), u64(2)))
	assert.True(t, CanWrite(lead, u64(10), nil))

	assert.True(t, CanRead(staff, u64(11), u64(3)))
	assert.False(t, CanWrite(staff, u64(11), u64(3)), "write requires same branch")
	assert.True(t, CanWrite(staff, u64(10), u64(3)))
	assert.False(t, CanWrite(staff, u64(10), u64(2)))

	assert.False(t, CanRead(orphan, u64(10), u64(4)))
	assert.False(t, CanWrite(orphan, u64(10), u64(4)))
	assert.False(t, CanRead(nil, u64(10), nil))
}

type scopedRow struct {
	ID        uint64 `gorm:"primaryKey"`
	BranchID  uint64
	CreatedBy uint64
}

func TestScopeFiltersRows(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&scopedRow{}))

	rows := []scopedRow{
		{ID: 1, BranchID: 10, CreatedBy: 3},
		{ID: 2, BranchID: 10, CreatedBy: 5},
		{ID: 3, BranchID: 20, CreatedBy: 3},
	}
	require.NoError(t, db.Create(&rows).Error)

	target := Target{BranchExpr: "branch_id", OwnerColumn: "created_by"}
	count := func(a *Actor) int64 {
		var n int64
		require.NoError(t, db.Model(&scopedRow{}).Scopes(Scope(a, target)).Count(&n).Error)
		return n
	}

	assert.EqualValues(t, 3, count(&Actor{ID: 1, RoleCode: entity.RoleAdmin}))
	assert.EqualValues(t, 2, count(&Actor{ID: 2, RoleCode: entity.RoleHeadOfDepartment, BranchID: u64(10)}))
	assert.EqualValues(t, 2, count(&Actor{ID: 3, RoleCode: entity.RoleStaff, BranchID: u64(10)}))
	assert.EqualValues(t, 0, count(&Actor{ID: 3, RoleCode: entity.RoleStaff}))
	assert.EqualValues(t, 0, count(&Actor{ID: 2, RoleCode: entity.RoleHeadOfDepartment}))
	assert.EqualValues(t, 0, count(nil))
}

func TestEnforcerMatrix(t *testing.T) {
	e, err := NewEnforcer(nil)
	require.NoError(t, err)

	staff := &Actor{ID: 3, RoleCode: entity.RoleStaff}
	lead := &Actor{ID: 2, RoleCode: entity.RoleHeadOfDepartment}
	ceo := &Actor{ID: 1, RoleCode: entity.RoleCEO}

	allowed := []struct {
		actor    *Actor
		obj, act string
	}{
		{staff, ObjObjectives, "submit"},
		{staff, ObjObjectives, "submit-unit-of-measure"},
		{staff, ObjQuarters, "withdraw"},
		{staff, ObjInitiatives, "request-approval"},
		{staff, ObjUsers, ActUpdate},
		{lead, ObjPosts, "submit"},
		{lead, ObjPosts, ActDelete},
		{ceo, ObjObjectives, "approve"},
		{ceo, ObjUsers, ActStats},
	}
	for _, tc := range allowed {
		ok, err := e.Check(tc.actor, tc.obj, tc.act)
		require.NoError(t, err)
		assert.True(t, ok, "%s %s %s", tc.actor.Subject(), tc.act, tc.obj)
	}

	denied := []struct {
		actor    *Actor
		obj, act string
	}{
		{staff, ObjObjectives, "approve"},
		{staff, ObjObjectives, "approve-unit-of-measure"},
		{staff, ObjPosts, ActDelete},
		{staff, ObjUsers, ActCreate},
		{lead, ObjQuarters, "reject"},
		{lead, ObjObjectives, "unlock"},
		{lead, ObjInitiatives, "cancel"},
		{lead, ObjUsers, ActAssignRole},
	}
	for _, tc := range denied {
		ok, err := e.Check(tc.actor, tc.obj, tc.act)
		require.NoError(t, err)
		assert.False(t, ok, "%s %s %s", tc.actor.Subject(), tc.act, tc.obj)
	}

	err = e.Authorize(staff, ObjPosts, "approve")
	var denied403 *apperr.PermissionDeniedError
	require.ErrorAs(t, err, &denied403)
	require.NoError(t, e.Authorize(&Actor{IsSuperuser: true}, ObjPosts, "unlock"))
}
