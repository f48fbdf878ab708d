package handler

import (
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler 站内通知
type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List GET /notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), queryBool(c, "unread"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	List(c, items, page, pageSize, total)
}

// UnreadCount GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"count": n})
}

// MarkRead POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// MarkAllRead POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"updated": n})
}
