package repository

import (
	"context"
	"time"

	"github.com/surdiana/auth-service/internal/model"
	ctxutil "github.com/surdiana/auth-service/pkg/context"
	"github.com/surdiana/auth-service/pkg/logger"
	"gorm.io/gorm"
)

// AccessTokenRepository is the ledger of live access tokens. A token is
// valid only while its jti row exists; revocation is row deletion.
type AccessTokenRepository struct {
	db *gorm.DB
}

func NewAccessTokenRepository(db *gorm.DB) *AccessTokenRepository {
	return &AccessTokenRepository{db: db}
}

func (r *AccessTokenRepository) Save(ctx context.Context, token *model.AccessToken) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "SaveAccessToken")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(token)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to save access token").
			String("jti", token.JTI).
			Uint("user_id", token.UserID).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Access token saved").
		String("jti", token.JTI).
		Uint("user_id", token.UserID).
		Duration(duration).
		Log()

	return nil
}

func (r *AccessTokenRepository) ExistsByJTI(ctx context.Context, jti string) (bool, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "AccessTokenExistsByJTI")

	start := time.Now()
	var count int64

	result := r.db.WithContext(ctx).Model(&model.AccessToken{}).Where("jti = ?", jti).Count(&count)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to check access token jti").
			String("jti", jti).
			Duration(duration).
			Err(result.Error).
			Log()
		return false, result.Error
	}

	return count > 0, nil
}

// DeleteByJTI removes the ledger row for jti. Returns the number of rows
// deleted so callers can distinguish a revocation from a no-op.
func (r *AccessTokenRepository) DeleteByJTI(ctx context.Context, jti string) (int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "DeleteAccessTokenByJTI")

	start := time.Now()
	result := r.db.WithContext(ctx).Unscoped().Where("jti = ?", jti).Delete(&model.AccessToken{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete access token").
			String("jti", jti).
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.DebugWithContext(ctx, "Access token deleted").
		String("jti", jti).
		Int64("rows_affected", result.RowsAffected).
		Duration(duration).
		Log()

	return result.RowsAffected, nil
}

// DeleteByUserID revokes every live access token for a user.
func (r *AccessTokenRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "DeleteAccessTokensByUserID")

	start := time.Now()
	result := r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&model.AccessToken{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete access tokens for user").
			Uint("user_id", userID).
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// DeleteExpired purges rows whose expiry has passed. Expired rows are dead
// weight only; token verification rejects them by claim before the ledger
// is ever consulted.
func (r *AccessTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "DeleteExpiredAccessTokens")

	start := time.Now()
	result := r.db.WithContext(ctx).Unscoped().Where("expires_at < ?", time.Now().UTC()).Delete(&model.AccessToken{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to purge expired access tokens").
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.InfoWithContext(ctx, "Expired access tokens purged").
		Int64("purged_count", result.RowsAffected).
		Duration(duration).
		Log()

	return result.RowsAffected, nil
}
