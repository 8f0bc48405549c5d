package repository

import (
	"context"
	"time"

	"github.com/surdiana/auth-service/internal/model"
	ctxutil "github.com/surdiana/auth-service/pkg/context"
	"github.com/surdiana/auth-service/pkg/logger"
	"gorm.io/gorm"
)

// AccessLogRepository records one audit row per successful login.
type AccessLogRepository struct {
	db *gorm.DB
}

func NewAccessLogRepository(db *gorm.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

func (r *AccessLogRepository) Create(ctx context.Context, entry *model.AccessLog) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "CreateAccessLog")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(entry)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create access log").
			Uint("user_id", entry.UserID).
			String("endpoint", entry.Endpoint).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Access log created").
		Uint("user_id", entry.UserID).
		String("endpoint", entry.Endpoint).
		String("ip", entry.IP).
		Duration(duration).
		Log()

	return nil
}

// ListByUserID returns recent access entries for a user, newest first.
func (r *AccessLogRepository) ListByUserID(ctx context.Context, userID uint, limit int) ([]model.AccessLog, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "ListAccessLogsByUserID")

	if limit <= 0 {
		limit = 50
	}

	start := time.Now()
	var entries []model.AccessLog

	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to list access logs").
			Uint("user_id", userID).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return entries, nil
}
