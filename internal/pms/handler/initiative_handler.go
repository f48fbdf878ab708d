package handler

import (
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/workflow"
	"github.com/gin-gonic/gin"
)

// InitiativeHandler 战略举措及其审批记录
type InitiativeHandler struct {
	svc *service.InitiativeService
}

func NewInitiativeHandler(svc *service.InitiativeService) *InitiativeHandler {
	return &InitiativeHandler{svc: svc}
}

// List GET /initiatives?objective_id=&status=
func (h *InitiativeHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{}
	if !queryUint(c, filters, "objective_id") {
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

// Get GET /initiatives/:id
func (h *InitiativeHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	i, err := h.svc.Get(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, i)
}

// Create POST /initiatives
func (h *InitiativeHandler) Create(c *gin.Context) {
	var req service.InitiativeRequest
	if !bindJSON(c, &req) {
		return
	}
	i, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, i)
}

// Update PUT /initiatives/:id
func (h *InitiativeHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.InitiativeRequest
	if !bindJSON(c, &req) {
		return
	}
	i, err := h.svc.Update(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, i)
}

// Delete DELETE /initiatives/:id
func (h *InitiativeHandler) Delete(c *gin.Context) {
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

// Transition POST /initiatives/:id/{request-approval|submit|approve|reject|cancel}
func (h *InitiativeHandler) Transition(action workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req TransitionRequest
		if !bindJSON(c, &req) {
			return
		}
		i, err := h.svc.Transition(c.Request.Context(), GetActor(c), id, action, req.text())
		if err != nil {
			respondError(c, err)
			return
		}
		Success(c, i)
	}
}

// Approvals GET /initiatives/:id/approvals
func (h *InitiativeHandler) Approvals(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entries, err := h.svc.Approvals(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, entries)
}

// Statuses GET /approval-statuses
func (h *InitiativeHandler) Statuses(c *gin.Context) {
	items, err := h.svc.Statuses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, items)
}

// ListActions GET /initiative-actions?initiative_id=
func (h *InitiativeHandler) ListActions(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{}
	if !queryUint(c, filters, "initiative_id") {
		return
	}
	initiativeID, _ := filters["initiative_id"].(uint64)

	items, total, err := h.svc.ListActions(c.Request.Context(), GetActor(c), page, pageSize, initiativeID)
	if err != nil {
		respondError(c, err)
		return
	}
	List(c, items, page, pageSize, total)
}

// GetAction GET /initiative-actions/:id
func (h *InitiativeHandler) GetAction(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetAction(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, a)
}

// CreateAction POST /initiative-actions
func (h *InitiativeHandler) CreateAction(c *gin.Context) {
	var req service.InitiativeActionRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.CreateAction(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, a)
}

// UpdateAction PUT /initiative-actions/:id
func (h *InitiativeHandler) UpdateAction(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.InitiativeActionRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.UpdateAction(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, a)
}

// DeleteAction DELETE /initiative-actions/:id
func (h *InitiativeHandler) DeleteAction(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAction(c.Request.Context(), GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}
