package service

import (
	"context"
	"fmt"
	"time"

	"github.com/surdiana/auth-service/internal/constants"
	"github.com/surdiana/auth-service/internal/dto"
	"github.com/surdiana/auth-service/pkg/logger"
	"github.com/surdiana/auth-service/pkg/redis"
	"go.uber.org/zap"
)

// CacheService keeps user summaries in Redis to spare the database on
// profile reads. It never backs an auth decision: ledger lookups always go
// to storage, so a stale or lost cache can only slow things down.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    ttl,
	}
}

func (s *CacheService) userKey(id uint) string {
	return fmt.Sprintf("%s%d", constants.CacheKeyUser, id)
}

// GetUserSummary returns the cached summary for id, or false on a miss.
// Cache errors degrade to a miss.
func (s *CacheService) GetUserSummary(ctx context.Context, id uint) (*dto.UserSummary, bool) {
	if s.client == nil {
		return nil, false
	}

	var summary dto.UserSummary
	hit, err := s.client.GetJSON(ctx, s.userKey(id), &summary)
	if err != nil {
		logger.GetLogger().Warn("User cache read failed",
			zap.Uint("user_id", id),
			zap.Error(err),
		)
		return nil, false
	}
	if !hit {
		return nil, false
	}

	return &summary, true
}

// SetUserSummary stores a summary. Failures are logged and swallowed.
func (s *CacheService) SetUserSummary(ctx context.Context, summary dto.UserSummary) {
	if s.client == nil {
		return
	}

	if err := s.client.SetJSON(ctx, s.userKey(summary.ID), summary, s.ttl); err != nil {
		logger.GetLogger().Warn("User cache write failed",
			zap.Uint("user_id", summary.ID),
			zap.Error(err),
		)
	}
}

// InvalidateUser drops the cached summary for id.
func (s *CacheService) InvalidateUser(ctx context.Context, id uint) {
	if s.client == nil {
		return
	}

	if err := s.client.Delete(ctx, s.userKey(id)); err != nil {
		logger.GetLogger().Warn("User cache invalidation failed",
			zap.Uint("user_id", id),
			zap.Error(err),
		)
	}
}
