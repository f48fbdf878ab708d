package handler

import (
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/gin-gonic/gin"
)

// BranchHandler 部门
type BranchHandler struct {
	svc *service.BranchService
}

func NewBranchHandler(svc *service.BranchService) *BranchHandler {
	return &BranchHandler{svc: svc}
}

// List GET /branches?search=
func (h *BranchHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), page, pageSize, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	List(c, items, page, pageSize, total)
}

// Get GET /branches/:id
func (h *BranchHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Get(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, b)
}

// Create POST /branches
func (h *BranchHandler) Create(c *gin.Context) {
	var req service.BranchRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, b)
}

// Update PUT /branches/:id
func (h *BranchHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.BranchRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.svc.Update(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, b)
}

// Delete DELETE /branches/:id
func (h *BranchHandler) Delete(c *gin.Context) {
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
