package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Saviken/TNH-Performance-Target/internal/middleware"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "tnh-pms-test-secret"

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// SetupTestDB opens an in-memory SQLite database with the full schema and
// the default roles and approval statuses seeded. Foreign keys are created
// and enforced so the tests see the same constraints as postgres.
//
// The pool is pinned to one connection: every new connection to ":memory:"
// would otherwise see its own empty database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(entity.Models()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}
	if err := db.Create(cloneRoles()).Error; err != nil {
		t.Fatalf("Failed to seed roles: %v", err)
	}
	if err := db.Create(cloneStatuses()).Error; err != nil {
		t.Fatalf("Failed to seed approval statuses: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

func cloneRoles() []entity.Role {
	roles := make([]entity.Role, len(entity.DefaultRoles))
	copy(roles, entity.DefaultRoles)
	return roles
}

func cloneStatuses() []entity.ApprovalStatus {
	statuses := make([]entity.ApprovalStatus, len(entity.DefaultApprovalStatuses))
	copy(statuses, entity.DefaultApprovalStatuses)
	return statuses
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string, extra ...gin.HandlerFunc) *gin.RouterGroup {
	handlers := append([]gin.HandlerFunc{middleware.JWTAuth(JWTSecret)}, extra...)
	return r.Group(path, handlers...)
}

// GenerateTestToken creates a valid JWT token for the given user
func GenerateTestToken(userID uint64, username string) string {
	now := time.Now()
	uid := strconv.FormatUint(userID, 10)
	claims := jwt.MapClaims{
		"sub":   uid,
		"uid":   uid,
		"name":  username,
		"email": username + "@test.com",
		"roles": []string{},
		"iss":   "tnh-pms",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// TokenFor returns a token for a seeded user
func TokenFor(u *entity.User) string {
	return GenerateTestToken(u.ID, u.Username)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedBranch creates a branch
func SeedBranch(t *testing.T, db *gorm.DB, name string) *entity.Branch {
	t.Helper()
	b := &entity.Branch{Name: name}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("Failed to seed branch %q: %v", name, err)
	}
	return b
}

// SeedSubtitle creates a subtitle
func SeedSubtitle(t *testing.T, db *gorm.DB, name string) *entity.Subtitle {
	t.Helper()
	s := &entity.Subtitle{Name: name}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed subtitle %q: %v", name, err)
	}
	return s
}

// SeedCriteria creates a criteria row
func SeedCriteria(t *testing.T, db *gorm.DB, name string) *entity.Criteria {
	t.Helper()
	c := &entity.Criteria{Name: name}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to seed criteria %q: %v", name, err)
	}
	return c
}

// SeedUser creates an active user with the given role; branch may be nil
func SeedUser(t *testing.T, db *gorm.DB, username, role string, branch *entity.Branch) *entity.User {
	t.Helper()
	u := &entity.User{
		Username: username,
		Email:    username + "@test.com",
		IsActive: true,
	}
	if role != "" {
		u.RoleCode = &role
	}
	if branch != nil {
		u.BranchID = &branch.ID
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to seed user %q: %v", username, err)
	}
	return u
}

// SeedSuperuser creates an active superuser without a role code
func SeedSuperuser(t *testing.T, db *gorm.DB, username string) *entity.User {
	t.Helper()
	u := &entity.User{Username: username, Email: username + "@test.com", IsActive: true, IsSuperuser: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to seed superuser %q: %v", username, err)
	}
	return u
}

// Deactivate marks a user inactive. A zero-value bool is skipped on create
// because of the column default, so this is a separate update.
func Deactivate(t *testing.T, db *gorm.DB, u *entity.User) {
	t.Helper()
	if err := db.Model(u).Update("is_active", false).Error; err != nil {
		t.Fatalf("Failed to deactivate user %q: %v", u.Username, err)
	}
	u.IsActive = false
}
