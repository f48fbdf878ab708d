package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/cache"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/notify"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine

	finance *entity.Branch
	admin   *entity.User
	staff   *entity.User
	other   *entity.User
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	enf, err := authz.NewEnforcer(nil)
	require.NoError(t, err)

	svc := service.NewServices(service.Deps{
		DB:       db,
		Repos:    repository.NewRepositories(db),
		Enforcer: enf,
		Notifier: notify.NewDispatcher(db, nil),
		Cache:    cache.New(nil, 0),
	})
	router := testutil.SetupRouter()
	NewHandlers(svc, nil).Register(testutil.AuthGroup(router, "/api/v1"))

	env := &testEnv{db: db, router: router}
	env.finance = testutil.SeedBranch(t, db, "Finance")
	ict := testutil.SeedBranch(t, db, "ICT")
	env.admin = testutil.SeedUser(t, db, "admin1", entity.RoleAdmin, nil)
	env.staff = testutil.SeedUser(t, db, "staff1", entity.RoleStaff, env.finance)
	env.other = testutil.SeedUser(t, db, "ict1", entity.RoleStaff, ict)
	return env
}

func (e *testEnv) do(method, path string, body interface{}, u *entity.User) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := testutil.DoRequest(e.router, method, "/api/v1"+path, body, testutil.TokenFor(u))
	return w, testutil.ParseResponse(w)
}

func (e *testEnv) createPost(t *testing.T) uint64 {
	t.Helper()
	w, resp := e.do("POST", "/posts", map[string]interface{}{
		"branch_id":     e.finance.ID,
		"annual_target": "95%",
	}, e.staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, entity.StatusDraft, data["status"])
	return uint64(data["id"].(float64))
}

func TestPostWorkflowOverHTTP(t *testing.T) {
	env := setupHandlerTest(t)
	id := env.createPost(t)

	w, resp := env.do("POST", fmt.Sprintf("/posts/%d/submit", id), nil, env.staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, entity.StatusPending, data["status"])
	assert.Equal(t, true, data["is_locked"])

	// staff cannot approve
	w, resp = env.do("POST", fmt.Sprintf("/posts/%d/approve", id), nil, env.staff)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, float64(CodeForbidden), resp["code"])

	w, resp = env.do("POST", fmt.Sprintf("/posts/%d/reject", id), map[string]string{"rejection_comment": "weights missing"}, env.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = resp["data"].(map[string]interface{})
	assert.Equal(t, entity.StatusRejected, data["status"])
	assert.Equal(t, "weights missing", data["rejection_comment"])

	// rejected records cannot be approved
	w, resp = env.do("POST", fmt.Sprintf("/posts/%d/approve", id), nil, env.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, float64(CodeInvalidTransition), resp["code"])

	w, resp = env.do("GET", fmt.Sprintf("/posts/%d/history", id), nil, env.staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pagination := resp["data"].(map[string]interface{})["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total"])

	w, _ = env.do("GET", fmt.Sprintf("/posts/%d/history", id), nil, env.other)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestErrorMapping(t *testing.T) {
	env := setupHandlerTest(t)

	w, resp := env.do("POST", "/posts/9999/submit", nil, env.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, float64(CodeNotFound), resp["code"])

	w, _ = env.do("POST", "/posts/abc/submit", nil, env.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = env.do("POST", "/objectives", map[string]interface{}{"branch_id": env.finance.ID}, env.staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, float64(CodeValidation), resp["code"])
	fields := resp["data"].(map[string]interface{})
	assert.Contains(t, fields, "subtitle_id")
}

func TestAuthentication(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, "GET", "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp := env.do("GET", "/users/me", nil, env.staff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff1", resp["data"].(map[string]interface{})["username"])

	testutil.Deactivate(t, env.db, env.staff)
	w, _ = env.do("GET", "/users/me", nil, env.staff)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ghost := &entity.User{ID: 4242, Username: "ghost"}
	w, _ = env.do("GET", "/users/me", nil, ghost)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestObjectivesGroupedQuery(t *testing.T) {
	env := setupHandlerTest(t)
	subtitle := testutil.SeedSubtitle(t, env.db, "Financial Stewardship")

	w, _ := env.do("POST", "/objectives", map[string]interface{}{
		"branch_id":   env.finance.ID,
		"subtitle_id": subtitle.ID,
	}, env.staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, flag := range []string{"true", "1", "True"} {
		w, resp := env.do("GET", "/objectives?grouped="+flag, nil, env.staff)
		require.Equal(t, http.StatusOK, w.Code)
		grouped := resp["data"].(map[string]interface{})
		require.Contains(t, grouped, "Financial Stewardship")
	}

	w, resp := env.do("GET", "/objectives?branch=finance", nil, env.admin)
	require.Equal(t, http.StatusOK, w.Code)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	assert.Len(t, items, 1)
}

func TestQuarterForAndEvidence(t *testing.T) {
	env := setupHandlerTest(t)
	subtitle := testutil.SeedSubtitle(t, env.db, "Clinical Care")
	w, resp := env.do("POST", "/objectives", map[string]interface{}{
		"branch_id":   env.finance.ID,
		"subtitle_id": subtitle.ID,
	}, env.staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	objectiveID := uint64(resp["data"].(map[string]interface{})["id"].(float64))

	period := map[string]int{"year": 2024, "quarter": 1}
	w, resp = env.do("POST", fmt.Sprintf("/objectives/%d/quarters", objectiveID), period, env.staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quarterID := uint64(resp["data"].(map[string]interface{})["id"].(float64))

	w, _ = env.do("POST", fmt.Sprintf("/objectives/%d/quarters", objectiveID), period, env.staff)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = env.do("GET", fmt.Sprintf("/quarters/%d/evidence", quarterID), nil, env.staff)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, float64(CodeStorageUnavailable), resp["code"])

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "q1.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/quarters/%d/evidence", quarterID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testutil.TokenFor(env.staff))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInitiativeRoutes(t *testing.T) {
	env := setupHandlerTest(t)
	so := &entity.StrategicObjective{Title: "Grow revenue", BranchID: env.finance.ID, IsActive: true}
	require.NoError(t, env.db.Create(so).Error)

	w, resp := env.do("POST", "/initiatives", map[string]interface{}{
		"objective_id": so.ID,
		"description":  "Cashless billing",
	}, env.staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := uint64(resp["data"].(map[string]interface{})["id"].(float64))

	w, resp = env.do("POST", fmt.Sprintf("/initiatives/%d/request-approval", id), nil, env.staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, entity.ApprovalPendingApproval, resp["data"].(map[string]interface{})["status"])

	w, resp = env.do("POST", fmt.Sprintf("/initiatives/%d/approve", id), nil, env.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, entity.ApprovalApproved, resp["data"].(map[string]interface{})["status"])

	w, resp = env.do("GET", fmt.Sprintf("/initiatives/%d/approvals", id), nil, env.staff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["data"].([]interface{}), 2)

	w, resp = env.do("GET", "/approval-statuses", nil, env.staff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["data"].([]interface{}), len(entity.DefaultApprovalStatuses))
}

func TestNotificationRoutes(t *testing.T) {
	env := setupHandlerTest(t)
	id := env.createPost(t)
	w, _ := env.do("POST", fmt.Sprintf("/posts/%d/submit", id), nil, env.staff)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := env.do("GET", "/notifications/unread-count", nil, env.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["data"].(map[string]interface{})["count"])

	w, resp = env.do("POST", "/notifications/read-all", nil, env.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["data"].(map[string]interface{})["updated"])

	w, resp = env.do("GET", "/notifications/unread-count", nil, env.staff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["data"].(map[string]interface{})["count"])
}
