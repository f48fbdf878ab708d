package handler

import (
	"context"
	"strconv"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/gin-gonic/gin"
)

// ObjectiveHandler 绩效目标
type ObjectiveHandler struct {
	svc *service.ObjectiveService
}

func NewObjectiveHandler(svc *service.ObjectiveService) *ObjectiveHandler {
	return &ObjectiveHandler{svc: svc}
}

// List GET /objectives?branch=medical-services&status=approved&grouped=true
func (h *ObjectiveHandler) List(c *gin.Context) {
	f := service.ObjectiveFilter{
		Branch: c.Query("branch"),
		Status: c.Query("status"),
	}
	if v := c.Query("subtitle_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			BadRequest(c, "Invalid subtitle_id")
			return
		}
		f.SubtitleID = id
	}

	if queryBool(c, "grouped") {
		grouped, err := h.svc.Grouped(c.Request.Context(), GetActor(c), f)
		if err != nil {
			respondError(c, err)
			return
		}
		Success(c, grouped)
		return
	}

	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), page, pageSize, f)
	if err != nil {
		respondError(c, err)
		return
	}
	List(c, items, page, pageSize, total)
}

// Get GET /objectives/:id
func (h *ObjectiveHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.Get(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, o)
}

// Create POST /objectives
func (h *ObjectiveHandler) Create(c *gin.Context) {
	var req service.ObjectiveRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, o)
}

// Update PUT /objectives/:id
func (h *ObjectiveHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ObjectiveRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.svc.Update(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, o)
}

// Delete DELETE /objectives/:id
func (h *ObjectiveHandler) Delete(c *gin.Context) {
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

// QuarterFor 获取或新建某季度进展
// POST /objectives/:id/quarters
func (h *ObjectiveHandler) QuarterFor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.QuarterPeriodRequest
	if !bindJSON(c, &req) {
		return
	}
	q, created, err := h.svc.QuarterFor(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	data := gin.H{"id": q.ID, "created": created}
	if created {
		Created(c, data)
		return
	}
	Success(c, data)
}

func (h *ObjectiveHandler) visible(ctx context.Context, actor *authz.Actor, id uint64) error {
	_, err := h.svc.Get(ctx, actor, id)
	return err
}
