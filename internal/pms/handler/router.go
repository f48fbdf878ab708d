package handler

import (
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/sse"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/workflow"
	"github.com/gin-gonic/gin"
)

// Handlers 所有 handler 的集合
type Handlers struct {
	actors *service.ActorService

	Workflow     *WorkflowHandler
	Branch       *BranchHandler
	Reference    *ReferenceHandler
	Post         *PostHandler
	Objective    *ObjectiveHandler
	Quarter      *QuarterHandler
	Initiative   *InitiativeHandler
	Notification *NotificationHandler
	User         *UserHandler
	Strategic    *StrategicHandler
	SSE          *SSEHandler
}

// NewHandlers 创建 handler 集合，hub 为空时不挂载 SSE
func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	h := &Handlers{
		actors:       svc.Actor,
		Workflow:     NewWorkflowHandler(svc.Workflow),
		Branch:       NewBranchHandler(svc.Branch),
		Reference:    NewReferenceHandler(svc.Reference),
		Post:         NewPostHandler(svc.Post),
		Objective:    NewObjectiveHandler(svc.Objective),
		Quarter:      NewQuarterHandler(svc.Quarter),
		Initiative:   NewInitiativeHandler(svc.Initiative),
		Notification: NewNotificationHandler(svc.Notification),
		User:         NewUserHandler(svc.User),
		Strategic:    NewStrategicHandler(svc.Strategic),
	}
	if hub != nil {
		h.SSE = NewSSEHandler(hub)
	}
	return h
}

// standardActions 年度指标、目标和季度进展共用的审批动作
var standardActions = []workflow.Action{workflow.Submit, workflow.Approve, workflow.Reject, workflow.Withdraw, workflow.Unlock}

// Register 在已做 JWT 认证的分组下注册全部业务路由
func (h *Handlers) Register(api *gin.RouterGroup) {
	g := api.Group("", LoadActor(h.actors))

	if h.SSE != nil {
		g.GET("/sse/events", h.SSE.Stream)
	}

	branches := g.Group("/branches")
	{
		branches.GET("", h.Branch.List)
		branches.POST("", h.Branch.Create)
		branches.GET("/:id", h.Branch.Get)
		branches.PUT("/:id", h.Branch.Update)
		branches.DELETE("/:id", h.Branch.Delete)
	}

	subtitles := g.Group("/subtitles")
	{
		subtitles.GET("", h.Reference.ListSubtitles)
		subtitles.POST("", h.Reference.CreateSubtitle)
		subtitles.GET("/:id", h.Reference.GetSubtitle)
		subtitles.PUT("/:id", h.Reference.UpdateSubtitle)
		subtitles.DELETE("/:id", h.Reference.DeleteSubtitle)
	}
	criteria := g.Group("/criteria")
	{
		criteria.GET("", h.Reference.ListCriteria)
		criteria.POST("", h.Reference.CreateCriteria)
		criteria.GET("/:id", h.Reference.GetCriteria)
		criteria.PUT("/:id", h.Reference.UpdateCriteria)
		criteria.DELETE("/:id", h.Reference.DeleteCriteria)
	}

	posts := g.Group("/posts")
	{
		posts.GET("", h.Post.List)
		posts.POST("", h.Post.Create)
		posts.GET("/:id", h.Post.Get)
		posts.PUT("/:id", h.Post.Update)
		posts.DELETE("/:id", h.Post.Delete)
		posts.GET("/:id/history", h.Workflow.History(service.KindPosts, h.Post.visible))
		h.Workflow.register(posts, "/:id", service.KindPosts, standardActions...)
	}

	objectives := g.Group("/objectives")
	{
		objectives.GET("", h.Objective.List)
		objectives.POST("", h.Objective.Create)
		objectives.GET("/:id", h.Objective.Get)
		objectives.PUT("/:id", h.Objective.Update)
		objectives.DELETE("/:id", h.Objective.Delete)
		objectives.POST("/:id/quarters", h.Objective.QuarterFor)
		objectives.GET("/:id/history", h.Workflow.History(service.KindObjectives, h.Objective.visible))
		h.Workflow.register(objectives, "/:id", service.KindObjectives, standardActions...)
		// 计量单位独立审批：submit-unit-of-measure 等
		for _, a := range []workflow.Action{workflow.Submit, workflow.Approve, workflow.Reject} {
			objectives.POST("/:id/"+string(a)+"-unit-of-measure", h.Workflow.Transition(service.KindUnitOfMeasure, a))
		}
		objectives.GET("/:id/unit-of-measure/history", h.Workflow.History(service.KindUnitOfMeasure, h.Objective.visible))
	}

	quarters := g.Group("/quarters")
	{
		quarters.GET("", h.Quarter.List)
		quarters.POST("", h.Quarter.Create)
		quarters.GET("/:id", h.Quarter.Get)
		quarters.PUT("/:id", h.Quarter.Update)
		quarters.DELETE("/:id", h.Quarter.Delete)
		quarters.POST("/:id/evidence", h.Quarter.UploadEvidence)
		quarters.GET("/:id/evidence", h.Quarter.EvidenceURL)
		quarters.GET("/:id/history", h.Workflow.History(service.KindQuarters, h.Quarter.visible))
		h.Workflow.register(quarters, "/:id", service.KindQuarters, standardActions...)
	}

	initiatives := g.Group("/initiatives")
	{
		initiatives.GET("", h.Initiative.List)
		initiatives.POST("", h.Initiative.Create)
		initiatives.GET("/:id", h.Initiative.Get)
		initiatives.PUT("/:id", h.Initiative.Update)
		initiatives.DELETE("/:id", h.Initiative.Delete)
		initiatives.GET("/:id/approvals", h.Initiative.Approvals)
		for _, a := range []workflow.Action{workflow.RequestApproval, workflow.Submit, workflow.Approve, workflow.Reject, workflow.Cancel} {
			initiatives.POST("/:id/"+string(a), h.Initiative.Transition(a))
		}
	}
	g.GET("/approval-statuses", h.Initiative.Statuses)

	actions := g.Group("/initiative-actions")
	{
		actions.GET("", h.Initiative.ListActions)
		actions.POST("", h.Initiative.CreateAction)
		actions.GET("/:id", h.Initiative.GetAction)
		actions.PUT("/:id", h.Initiative.UpdateAction)
		actions.DELETE("/:id", h.Initiative.DeleteAction)
	}

	notifications := g.Group("/notifications")
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.POST("/read-all", h.Notification.MarkAllRead)
		notifications.POST("/:id/read", h.Notification.MarkRead)
	}

	users := g.Group("/users")
	{
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
		users.GET("/me", h.User.Me)
		users.GET("/roles", h.User.Roles)
		users.GET("/stats", h.User.Stats)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id", h.User.Update)
		users.PATCH("/:id", h.User.Update)
		users.DELETE("/:id", h.User.Delete)
		users.POST("/:id/assign-role", h.User.AssignRole)
	}

	strategic := g.Group("/strategic")
	{
		strategic.GET("/overview/:department", h.Strategic.Overview)
		strategic.GET("/departments", h.Strategic.Departments)
		strategic.GET("/objectives", h.Strategic.ListObjectives)
		strategic.POST("/objectives", h.Strategic.CreateObjective)
		strategic.GET("/objectives/:id", h.Strategic.GetObjective)
		strategic.PUT("/objectives/:id", h.Strategic.UpdateObjective)
		strategic.DELETE("/objectives/:id", h.Strategic.DeleteObjective)
		strategic.GET("/key-metrics", h.Strategic.ListKeyMetrics)
		strategic.POST("/key-metrics", h.Strategic.CreateKeyMetric)
		strategic.GET("/action-items", h.Strategic.ListActionItems)
		strategic.POST("/action-items", h.Strategic.CreateActionItem)
	}
}
