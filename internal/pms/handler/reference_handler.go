package handler

import (
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/gin-gonic/gin"
)

// ReferenceHandler 指标大类与细项
type ReferenceHandler struct {
	svc *service.ReferenceService
}

func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

func (h *ReferenceHandler) ListSubtitles(c *gin.Context) {
	items, err := h.svc.ListSubtitles(c.Request.Context(), GetActor(c), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, items)
}

func (h *ReferenceHandler) GetSubtitle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	s, err := h.svc.GetSubtitle(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, s)
}

func (h *ReferenceHandler) CreateSubtitle(c *gin.Context) {
	var req service.SubtitleRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.svc.SaveSubtitle(c.Request.Context(), GetActor(c), 0, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, s)
}

func (h *ReferenceHandler) UpdateSubtitle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.SubtitleRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.svc.SaveSubtitle(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, s)
}

func (h *ReferenceHandler) DeleteSubtitle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSubtitle(c.Request.Context(), GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

func (h *ReferenceHandler) ListCriteria(c *gin.Context) {
	items, err := h.svc.ListCriteria(c.Request.Context(), GetActor(c), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, items)
}

func (h *ReferenceHandler) GetCriteria(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cr, err := h.svc.GetCriteria(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, cr)
}

func (h *ReferenceHandler) CreateCriteria(c *gin.Context) {
	var req service.CriteriaRequest
	if !bindJSON(c, &req) {
		return
	}
	cr, err := h.svc.SaveCriteria(c.Request.Context(), GetActor(c), 0, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, cr)
}

func (h *ReferenceHandler) UpdateCriteria(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.CriteriaRequest
	if !bindJSON(c, &req) {
		return
	}
	cr, err := h.svc.SaveCriteria(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, cr)
}

func (h *ReferenceHandler) DeleteCriteria(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCriteria(c.Request.Context(), GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}
