package handler

import (
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/gin-gonic/gin"
)

// StrategicHandler 战略看板
type StrategicHandler struct {
	svc *service.StrategicService
}

func NewStrategicHandler(svc *service.StrategicService) *StrategicHandler {
	return &StrategicHandler{svc: svc}
}

// Overview GET /strategic/overview/:department
func (h *StrategicHandler) Overview(c *gin.Context) {
	ov, err := h.svc.Overview(c.Request.Context(), GetActor(c), c.Param("department"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, ov)
}

// Departments GET /strategic/departments
func (h *StrategicHandler) Departments(c *gin.Context) {
	items, err := h.svc.Departments(c.Request.Context(), GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, items)
}

// ListObjectives GET /strategic/objectives?department=
func (h *StrategicHandler) ListObjectives(c *gin.Context) {
	items, err := h.svc.ListObjectives(c.Request.Context(), GetActor(c), c.Query("department"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, items)
}

// GetObjective GET /strategic/objectives/:id
func (h *StrategicHandler) GetObjective(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.GetObjective(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, o)
}

// CreateObjective POST /strategic/objectives
func (h *StrategicHandler) CreateObjective(c *gin.Context) {
	var req service.StrategicObjectiveRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.svc.CreateObjective(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, o)
}

// UpdateObjective PUT /strategic/objectives/:id
func (h *StrategicHandler) UpdateObjective(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.StrategicObjectiveRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.svc.UpdateObjective(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, o)
}

// DeleteObjective DELETE /strategic/objectives/:id
func (h *StrategicHandler) DeleteObjective(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteObjective(c.Request.Context(), GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// ListKeyMetrics GET /strategic/key-metrics?department=
func (h *StrategicHandler) ListKeyMetrics(c *gin.Context) {
	items, err := h.svc.ListKeyMetrics(c.Request.Context(), GetActor(c), c.Query("department"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, items)
}

// CreateKeyMetric POST /strategic/key-metrics
func (h *StrategicHandler) CreateKeyMetric(c *gin.Context) {
	var req service.KeyMetricRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.CreateKeyMetric(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, m)
}

// ListActionItems GET /strategic/action-items?department=&type=priority
func (h *StrategicHandler) ListActionItems(c *gin.Context) {
	items, err := h.svc.ListActionItems(c.Request.Context(), GetActor(c), c.Query("department"), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, items)
}

// CreateActionItem POST /strategic/action-items
func (h *StrategicHandler) CreateActionItem(c *gin.Context) {
	var req service.ActionItemRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.CreateActionItem(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, a)
}
