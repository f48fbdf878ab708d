// Package metrics 审批流和通知的 prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transitions 审批流转次数，result 为 ok/noop/invalid/denied/conflict/not_found/error
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pms",
		Name:      "workflow_transitions_total",
		Help:      "Workflow actions by entity kind, action and result.",
	}, []string{"kind", "action", "result"})

	// NotificationsCreated 已写入的通知数
	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pms",
		Name:      "notifications_created_total",
		Help:      "Notifications persisted by the dispatcher.",
	})

	// DispatchFailures 通知分发失败次数，stage 为 recipients/persist/push/publish
	DispatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pms",
		Name:      "notification_dispatch_failures_total",
		Help:      "Notification dispatch failures by stage.",
	}, []string{"stage"})
)
