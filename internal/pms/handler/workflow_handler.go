package handler

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/workflow"
	"github.com/gin-gonic/gin"
)

// WorkflowHandler 审批动作与流转日志
type WorkflowHandler struct {
	svc *service.WorkflowService
}

func NewWorkflowHandler(svc *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// TransitionRequest 审批动作请求体，驳回意见两个字段名都接受
type TransitionRequest struct {
	Comment          string `json:"comment"`
	RejectionComment string `json:"rejection_comment"`
}

func (r *TransitionRequest) text() string {
	if r.Comment != "" {
		return r.Comment
	}
	return r.RejectionComment
}

// Transition 返回执行指定动作的处理函数
// POST /<kind>/:id/<action>
func (h *WorkflowHandler) Transition(kind string, action workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req TransitionRequest
		if !bindJSON(c, &req) {
			return
		}
		result, err := h.svc.Execute(c.Request.Context(), GetActor(c), kind, id, action, req.text())
		if err != nil {
			respondError(c, err)
			return
		}
		Success(c, result)
	}
}

// visibleFunc 校验当前 Actor 能否读取该记录
type visibleFunc func(ctx context.Context, actor *authz.Actor, id uint64) error

// History 流转日志，先按读取范围校验记录本身
// GET /<kind>/:id/history
func (h *WorkflowHandler) History(kind string, visible visibleFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := visible(c.Request.Context(), GetActor(c), id); err != nil {
			respondError(c, err)
			return
		}
		page, pageSize := GetPagination(c)
		logs, total, err := h.svc.History(c.Request.Context(), kind, id, page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		List(c, logs, page, pageSize, total)
	}
}

// register 为某类实体挂载全部审批动作
func (h *WorkflowHandler) register(g *gin.RouterGroup, prefix, kind string, actions ...workflow.Action) {
	for _, a := range actions {
		g.POST(prefix+"/"+string(a), h.Transition(kind, a))
	}
}
