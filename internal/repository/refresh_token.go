package repository

import (
	"context"
	"time"

	"github.com/surdiana/auth-service/internal/model"
	ctxutil "github.com/surdiana/auth-service/pkg/context"
	"github.com/surdiana/auth-service/pkg/logger"
	"gorm.io/gorm"
)

// RefreshTokenRepository mirrors AccessTokenRepository for the refresh
// ledger. The two ledgers are separate tables so revoking one token kind
// never touches the other.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Save(ctx context.Context, token *model.RefreshToken) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "SaveRefreshToken")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(token)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to save refresh token").
			String("jti", token.JTI).
			Uint("user_id", token.UserID).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Refresh token saved").
		String("jti", token.JTI).
		Uint("user_id", token.UserID).
		Duration(duration).
		Log()

	return nil
}

func (r *RefreshTokenRepository) ExistsByJTI(ctx context.Context, jti string) (bool, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "RefreshTokenExistsByJTI")

	start := time.Now()
	var count int64

	result := r.db.WithContext(ctx).Model(&model.RefreshToken{}).Where("jti = ?", jti).Count(&count)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to check refresh token jti").
			String("jti", jti).
			Duration(duration).
			Err(result.Error).
			Log()
		return false, result.Error
	}

	return count > 0, nil
}

func (r *RefreshTokenRepository) DeleteByJTI(ctx context.Context, jti string) (int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "DeleteRefreshTokenByJTI")

	start := time.Now()
	result := r.db.WithContext(ctx).Unscoped().Where("jti = ?", jti).Delete(&model.RefreshToken{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete refresh token").
			String("jti", jti).
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.DebugWithContext(ctx, "Refresh token deleted").
		String("jti", jti).
		Int64("rows_affected", result.RowsAffected).
		Duration(duration).
		Log()

	return result.RowsAffected, nil
}

func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "DeleteRefreshTokensByUserID")

	start := time.Now()
	result := r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&model.RefreshToken{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete refresh tokens for user").
			Uint("user_id", userID).
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "DeleteExpiredRefreshTokens")

	start := time.Now()
	result := r.db.WithContext(ctx).Unscoped().Where("expires_at < ?", time.Now().UTC()).Delete(&model.RefreshToken{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to purge expired refresh tokens").
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.InfoWithContext(ctx, "Expired refresh tokens purged").
		Int64("purged_count", result.RowsAffected).
		Duration(duration).
		Log()

	return result.RowsAffected, nil
}
