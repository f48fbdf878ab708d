package handler

import (
	"strconv"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户管理
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List GET /users?search=&role=&branch_id=&is_active=
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{}
	if v := c.Query("search"); v != "" {
		filters["search"] = v
	}
	if v := c.Query("role"); v != "" {
		filters["role"] = v
	}
	if !queryUint(c, filters, "branch_id") {
		return
	}
	if v := c.Query("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			BadRequest(c, "Invalid is_active")
			return
		}
		filters["is_active"] = b
	}

	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), page, pageSize, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	List(c, items, page, pageSize, total)
}

// Me GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, u)
}

// Get GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, u)
}

// Roles GET /users/roles
func (h *UserHandler) Roles(c *gin.Context) {
	roles, err := h.svc.Roles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, roles)
}

// Stats GET /users/stats
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, stats)
}

// Create POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, u)
}

// Update PUT|PATCH /users/:id，只更新请求中出现的字段
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.svc.Update(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, u)
}

// Delete DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// AssignRole POST /users/:id/assign-role
func (h *UserHandler) AssignRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.AssignRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.svc.AssignRole(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, u)
}
