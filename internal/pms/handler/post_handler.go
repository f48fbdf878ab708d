package handler

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/gin-gonic/gin"
)

// PostHandler 年度岗位指标
type PostHandler struct {
	svc *service.PostService
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// List GET /posts
func (h *PostHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{}
	if !queryUint(c, filters, "branch_id") || !queryUint(c, filters, "subtitle_id") {
		return
	}
	queryStatus(c, filters)

	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), page, pageSize, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	List(c, items, page, pageSize, total)
}

// Get GET /posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, p)
}

// Create POST /posts
func (h *PostHandler) Create(c *gin.Context) {
	var req service.PostRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, p)
}

// Update PUT /posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.PostRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, p)
}

// Delete DELETE /posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
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

func (h *PostHandler) visible(ctx context.Context, actor *authz.Actor, id uint64) error {
	_, err := h.svc.Get(ctx, actor, id)
	return err
}
