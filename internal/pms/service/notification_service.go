package service

import (
	"context"
	"errors"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/cache"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"go.uber.org/zap"
)

// NotificationService 站内通知服务，只能操作自己的通知
type NotificationService struct {
	repo   *repository.NotificationRepository
	cache  *cache.Cache
	logger *zap.Logger
}

func NewNotificationService(repo *repository.NotificationRepository, c *cache.Cache, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, cache: c, logger: logger}
}

// List 当前用户的通知，最新在前
func (s *NotificationService) List(ctx context.Context, actor *authz.Actor, unreadOnly bool, page, pageSize int) ([]entity.Notification, int64, error) {
	return s.repo.FindByRecipient(ctx, actor.ID, unreadOnly, page, pageSize)
}

// UnreadCount 未读数，优先读缓存
func (s *NotificationService) UnreadCount(ctx context.Context, actor *authz.Actor) (int64, error) {
	key := cache.UnreadKey(actor.ID)
	var count int64
	err := s.cache.Get(ctx, key, &count)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("unread cache read failed", zap.Uint64("user_id", actor.ID), zap.Error(err))
	}

	count, err = s.repo.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, key, count); err != nil {
		s.logger.Warn("unread cache write failed", zap.Uint64("user_id", actor.ID), zap.Error(err))
	}
	return count, nil
}

// MarkRead 标记一条已读
func (s *NotificationService) MarkRead(ctx context.Context, actor *authz.Actor, id uint64) error {
	if err := s.repo.MarkRead(ctx, id, actor.ID); err != nil {
		return err
	}
	s.invalidate(ctx, actor.ID)
	return nil
}

// MarkAllRead 全部已读，返回更新条数
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *authz.Actor) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, actor.ID)
	return n, nil
}

func (s *NotificationService) invalidate(ctx context.Context, userID uint64) {
	if err := s.cache.Delete(ctx, cache.UnreadKey(userID)); err != nil {
		s.logger.Warn("unread cache invalidation failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
}
