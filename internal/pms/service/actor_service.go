package service

import (
	"context"
	"errors"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/cache"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"go.uber.org/zap"
)

// ActorService 解析请求的操作人
type ActorService struct {
	users  *repository.UserRepository
	cache  *cache.Cache
	logger *zap.Logger
}

func NewActorService(users *repository.UserRepository, c *cache.Cache, logger *zap.Logger) *ActorService {
	return &ActorService{users: users, cache: c, logger: logger}
}

// Resolve 由用户ID解析 Actor，停用账号视为无权限
func (s *ActorService) Resolve(ctx context.Context, userID uint64) (*authz.Actor, error) {
	var cached authz.Actor
	err := s.cache.Get(ctx, cache.ActorKey(userID), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("actor cache read failed", zap.Uint64("user_id", userID), zap.Error(err))
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, apperr.Denied("unknown user")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Denied("account is disabled")
	}

	actor := authz.ActorFromUser(u)
	if err := s.cache.Set(ctx, cache.ActorKey(userID), actor); err != nil {
		s.logger.Warn("actor cache write failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
	return actor, nil
}

// Invalidate 用户角色、部门或状态变化后清理缓存
func (s *ActorService) Invalidate(ctx context.Context, userID uint64) {
	if err := s.cache.Delete(ctx, cache.ActorKey(userID)); err != nil {
		s.logger.Warn("actor cache invalidation failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
}
