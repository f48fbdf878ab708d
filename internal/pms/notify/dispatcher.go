// Package notify 审批流转后的站内通知分发
//
// 分发在事务提交之后执行，任何失败只记录日志和指标，不返回给调用方。
package notify

import (
	"context"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/cache"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/metrics"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/sse"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 接收范围
const (
	ScopeAll    = "all"
	ScopeBranch = "branch"
)

// Event 一次已提交的审批流转
type Event struct {
	Kind       string
	EntityID   uint64
	Action     string
	Message    string
	BranchID   *uint64
	BranchName string
	ActorID    uint64
}

// Dispatcher 通知分发器
type Dispatcher struct {
	db        *gorm.DB
	hub       *sse.Hub
	publisher Publisher
	cache     *cache.Cache
	scope     string
	logger    *zap.Logger
}

// Option 可选依赖
type Option func(*Dispatcher)

// WithHub 推送到 SSE 连接
func WithHub(hub *sse.Hub) Option {
	return func(d *Dispatcher) { d.hub = hub }
}

// WithPublisher 发布到外部消息通道
func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

// WithCache 分发后清理未读数缓存
func WithCache(c *cache.Cache) Option {
	return func(d *Dispatcher) { d.cache = c }
}

// WithScope 设置接收范围
func WithScope(scope string) Option {
	return func(d *Dispatcher) {
		if scope == ScopeBranch {
			d.scope = ScopeBranch
		}
	}
}

// NewDispatcher 创建分发器
func NewDispatcher(db *gorm.DB, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{db: db, scope: ScopeAll, logger: logger.Named("notify")}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch 给每个管理员写一条通知，返回写入条数
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) int {
	fields := []zap.Field{
		zap.String("kind", ev.Kind),
		zap.Uint64("entity_id", ev.EntityID),
		zap.String("action", ev.Action),
	}

	recipients, err := d.recipients(ctx, ev.BranchID)
	if err != nil {
		metrics.DispatchFailures.WithLabelValues("recipients").Inc()
		d.logger.Error("notification dispatch failed: recipient lookup", append(fields, zap.Error(err))...)
		return 0
	}
	if len(recipients) == 0 {
		d.logger.Debug("no notification recipients", fields...)
		return 0
	}

	url := RouteFor(ev.BranchName)
	list := make([]entity.Notification, len(recipients))
	for i, id := range recipients {
		list[i] = entity.Notification{RecipientID: id, Message: ev.Message, URL: url}
	}
	if err := d.db.WithContext(ctx).Create(&list).Error; err != nil {
		metrics.DispatchFailures.WithLabelValues("persist").Inc()
		d.logger.Error("notification dispatch failed: persist", append(fields, zap.Error(err))...)
		return 0
	}
	metrics.NotificationsCreated.Add(float64(len(list)))

	keys := make([]string, 0, len(list))
	for i := range list {
		n := &list[i]
		keys = append(keys, cache.UnreadKey(n.RecipientID))
		if d.hub != nil {
			if err := d.hub.PublishNotification(n.RecipientID, n); err != nil {
				metrics.DispatchFailures.WithLabelValues("push").Inc()
				d.logger.Warn("notification push failed", append(fields, zap.Uint64("recipient_id", n.RecipientID), zap.Error(err))...)
			}
		}
		if d.publisher != nil {
			if err := d.publisher.Publish(n); err != nil {
				metrics.DispatchFailures.WithLabelValues("publish").Inc()
				d.logger.Warn("notification publish failed", append(fields, zap.Uint64("recipient_id", n.RecipientID), zap.Error(err))...)
			}
		}
	}
	if err := d.cache.Delete(ctx, keys...); err != nil {
		d.logger.Warn("unread cache invalidation failed", append(fields, zap.Error(err))...)
	}

	d.logger.Info("notifications dispatched", append(fields, zap.Int("count", len(list)))...)
	return len(list)
}

func (d *Dispatcher) recipients(ctx context.Context, branchID *uint64) ([]uint64, error) {
	q := d.db.WithContext(ctx).Model(&entity.User{}).
		Where("is_active = ?", true).
		Where("(is_superuser = ? OR role_code IN ?)", true, []string{entity.RoleAdmin, entity.RoleCEO})
	if d.scope == ScopeBranch && branchID != nil {
		q = q.Where("(branch_id = ? OR branch_id IS NULL)", *branchID)
	}
	var ids []uint64
	err := q.Order("id").Pluck("id", &ids).Error
	return ids, err
}
