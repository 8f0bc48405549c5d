package service

import (
	"context"
	"errors"

	"github.com/surdiana/auth-service/internal/dto"
	domainerrors "github.com/surdiana/auth-service/internal/errors"
	"github.com/surdiana/auth-service/internal/model"
	"github.com/surdiana/auth-service/internal/repository"
	ctxutil "github.com/surdiana/auth-service/pkg/context"
	"github.com/surdiana/auth-service/pkg/logger"
)

// UserService serves profile reads. Lookups go through the summary cache
// when one is configured; the database remains the source of truth.
type UserService struct {
	users      UserStore
	accessLogs *repository.AccessLogRepository
	cache      *CacheService
}

func NewUserService(users UserStore, accessLogs *repository.AccessLogRepository, cache *CacheService) *UserService {
	return &UserService{
		users:      users,
		accessLogs: accessLogs,
		cache:      cache,
	}
}

// GetByID returns the public summary for a user.
func (s *UserService) GetByID(ctx context.Context, id uint) (*dto.UserSummary, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "GetUserByID")

	if s.cache != nil {
		if summary, hit := s.cache.GetUserSummary(ctx, id); hit {
			logger.DebugWithContext(ctx, "User summary served from cache").
				Uint("user_id", id).
				Log()
			return summary, nil
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrIdentityNotFound) {
			return nil, domainerrors.ErrIdentityNotFound
		}
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	summary := toUserSummary(user)
	if s.cache != nil {
		s.cache.SetUserSummary(ctx, summary)
	}

	return &summary, nil
}

// GetAccessHistory returns a user's recent login audit entries.
func (s *UserService) GetAccessHistory(ctx context.Context, userID uint, limit int) ([]model.AccessLog, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "GetAccessHistory")

	entries, err := s.accessLogs.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	return entries, nil
}
