package handler

import (
	"context"
	"fmt"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/gin-gonic/gin"
)

// maxEvidenceSize 证明材料上限 20MB
const maxEvidenceSize = 20 << 20

// QuarterHandler 季度进展
type QuarterHandler struct {
	svc *service.QuarterService
}

func NewQuarterHandler(svc *service.QuarterService) *QuarterHandler {
	return &QuarterHandler{svc: svc}
}

// List GET /quarters?objective_id=&year=&status=
func (h *QuarterHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{}
	if !queryUint(c, filters, "objective_id") || !queryUint(c, filters, "year") {
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

// Get GET /quarters/:id
func (h *QuarterHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	q, err := h.svc.Get(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, q)
}

// Create POST /quarters
func (h *QuarterHandler) Create(c *gin.Context) {
	var req service.QuarterRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, q)
}

// Update PUT /quarters/:id
func (h *QuarterHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.QuarterRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.svc.Update(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, q)
}

// Delete DELETE /quarters/:id
func (h *QuarterHandler) Delete(c *gin.Context) {
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

// UploadEvidence 上传证明材料（multipart 字段 file）
// POST /quarters/:id/evidence
func (h *QuarterHandler) UploadEvidence(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	if fh.Size > maxEvidenceSize {
		BadRequest(c, fmt.Sprintf("file exceeds %d MB", maxEvidenceSize>>20))
		return
	}
	f, err := fh.Open()
	if err != nil {
		BadRequest(c, "cannot read uploaded file")
		return
	}
	defer f.Close()

	key, err := h.svc.UploadEvidence(c.Request.Context(), GetActor(c), id, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, gin.H{"evidence_key": key})
}

// EvidenceURL GET /quarters/:id/evidence
func (h *QuarterHandler) EvidenceURL(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	url, err := h.svc.EvidenceURL(c.Request.Context(), GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"url": url})
}

func (h *QuarterHandler) visible(ctx context.Context, actor *authz.Actor, id uint64) error {
	_, err := h.svc.Get(ctx, actor, id)
	return err
}
