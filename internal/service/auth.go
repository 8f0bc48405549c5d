package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/surdiana/auth-service/internal/constants"
	"github.com/surdiana/auth-service/internal/dto"
	domainerrors "github.com/surdiana/auth-service/internal/errors"
	"github.com/surdiana/auth-service/internal/model"
	ctxutil "github.com/surdiana/auth-service/pkg/context"
	"github.com/surdiana/auth-service/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// UserStore is the identity lookup surface the orchestrator needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// AccessTokenLedger and RefreshTokenLedger are the two jti ledgers. Row
// absence means revoked; there is no status column anywhere.
type AccessTokenLedger interface {
	Save(ctx context.Context, token *model.AccessToken) error
	ExistsByJTI(ctx context.Context, jti string) (bool, error)
	DeleteByJTI(ctx context.Context, jti string) (int64, error)
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
}

type RefreshTokenLedger interface {
	Save(ctx context.Context, token *model.RefreshToken) error
	ExistsByJTI(ctx context.Context, jti string) (bool, error)
	DeleteByJTI(ctx context.Context, jti string) (int64, error)
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
}

// AccessLogStore records the audit trail. Login treats a failed write as a
// failed login; an unauditable session is not issued.
type AccessLogStore interface {
	Create(ctx context.Context, entry *model.AccessLog) error
}

// AuthService orchestrates credential checks, dual-token issuance and the
// ledger bookkeeping around them.
type AuthService struct {
	users         UserStore
	accessTokens  AccessTokenLedger
	refreshTokens RefreshTokenLedger
	accessLogs    AccessLogStore
	passwords     *PasswordService
	tokens        *TokenService

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService parses both TTL strings up front so a bad expiry config
// fails construction instead of the first login.
func NewAuthService(
	users UserStore,
	accessTokens AccessTokenLedger,
	refreshTokens RefreshTokenLedger,
	accessLogs AccessLogStore,
	passwords *PasswordService,
	tokens *TokenService,
	accessExpiry, refreshExpiry string,
) (*AuthService, error) {
	accessTTL, err := ParseExpiry(accessExpiry)
	if err != nil {
		return nil, domainerrors.WrapError(domainerrors.ErrInvalidExpiryFormat,
			errors.New("access token expiry: "+accessExpiry))
	}

	refreshTTL, err := ParseExpiry(refreshExpiry)
	if err != nil {
		return nil, domainerrors.WrapError(domainerrors.ErrInvalidExpiryFormat,
			errors.New("refresh token expiry: "+refreshExpiry))
	}

	return &AuthService{
		users:         users,
		accessTokens:  accessTokens,
		refreshTokens: refreshTokens,
		accessLogs:    accessLogs,
		passwords:     passwords,
		tokens:        tokens,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (s *AuthService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *AuthService) RefreshTTL() time.Duration { return s.refreshTTL }

// Signup registers a new user. The email pre-check gives a fast answer; the
// unique index on email settles races the pre-check cannot see.
func (s *AuthService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.UserSummary, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Signup")

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}
	if exists {
		logger.InfoWithContext(ctx, "Signup rejected, email taken").
			String("email", req.Email).
			Log()
		return nil, domainerrors.ErrDuplicateIdentity
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	role := req.Role
	if role == "" {
		role = constants.RoleUser
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Phone:    req.Phone,
		Role:     role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User signed up").
		Uint("user_id", user.ID).
		String("email", user.Email).
		Log()

	summary := toUserSummary(user)
	return &summary, nil
}

// Login verifies credentials, issues an access and a refresh token, records
// both in their ledgers and writes one audit row. Unknown email and wrong
// password return the same error after the same amount of hashing work.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest, info dto.RequestInfo) (*dto.LoginResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Login")

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrIdentityNotFound) {
			s.passwords.VerifyDummy(req.Password)
			logger.InfoWithContext(ctx, "Login failed").
				String("email", req.Email).
				Log()
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	ok, err := s.passwords.Verify(req.Password, user.Password)
	if err != nil || !ok {
		logger.InfoWithContext(ctx, "Login failed").
			String("email", req.Email).
			Log()
		return nil, domainerrors.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.audit(ctx, user.ID, info); err != nil {
		// An unauditable login is not a login. Revoke what was just issued.
		s.revokePair(ctx, pair)
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Login succeeded").
		Uint("user_id", user.ID).
		String("access_jti", pair.accessJTI).
		String("refresh_jti", pair.refreshJTI).
		Log()

	return &dto.LoginResponse{
		AccessToken:  pair.accessToken,
		RefreshToken: pair.refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		User:         toUserSummary(user),
	}, nil
}

// Authenticate resolves a verified access payload to a live user. The jti
// row and the user row are looked up concurrently; either one missing
// rejects the token.
func (s *AuthService) Authenticate(ctx context.Context, payload *TokenPayload) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Authenticate")

	var (
		live bool
		user *model.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		exists, err := s.accessTokens.ExistsByJTI(gctx, payload.JTI)
		if err != nil {
			return domainerrors.WrapError(domainerrors.ErrInternal, err)
		}
		live = exists
		return nil
	})
	g.Go(func() error {
		u, err := s.users.GetByID(gctx, payload.UserID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrIdentityNotFound) {
				return domainerrors.ErrIdentityNotFound
			}
			return domainerrors.WrapError(domainerrors.ErrInternal, err)
		}
		user = u
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !live {
		logger.InfoWithContext(ctx, "Rejected revoked token").
			String("jti", payload.JTI).
			Uint("user_id", payload.UserID).
			Log()
		return nil, domainerrors.ErrTokenRevoked
	}

	return user, nil
}

// Refresh rotates a refresh token: the presented jti is consumed and a new
// access/refresh pair is issued. A replayed refresh token finds its row
// already gone and is rejected as revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, info dto.RequestInfo) (*dto.LoginResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Refresh")

	payload, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	// Consuming the row first makes rotation atomic per jti: of two racing
	// refreshes, only the one that deletes the row proceeds.
	deleted, err := s.refreshTokens.DeleteByJTI(ctx, payload.JTI)
	if err != nil {
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}
	if deleted == 0 {
		logger.WarnWithContext(ctx, "Refresh with revoked or replayed token").
			String("jti", payload.JTI).
			Uint("user_id", payload.UserID).
			Log()
		return nil, domainerrors.ErrTokenRevoked
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrIdentityNotFound) {
			return nil, domainerrors.ErrIdentityNotFound
		}
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.audit(ctx, user.ID, info); err != nil {
		s.revokePair(ctx, pair)
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Token pair rotated").
		Uint("user_id", user.ID).
		String("consumed_jti", payload.JTI).
		String("access_jti", pair.accessJTI).
		String("refresh_jti", pair.refreshJTI).
		Log()

	return &dto.LoginResponse{
		AccessToken:  pair.accessToken,
		RefreshToken: pair.refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		User:         toUserSummary(user),
	}, nil
}

// Logout revokes the presented access token by deleting its ledger row.
func (s *AuthService) Logout(ctx context.Context, payload *TokenPayload) error {
	ctx = ctxutil.WithOperation(ctx, "service", "Logout")

	deleted, err := s.accessTokens.DeleteByJTI(ctx, payload.JTI)
	if err != nil {
		return domainerrors.WrapError(domainerrors.ErrInternal, err)
	}
	if deleted == 0 {
		return domainerrors.ErrTokenRevoked
	}

	logger.InfoWithContext(ctx, "User logged out").
		Uint("user_id", payload.UserID).
		String("jti", payload.JTI).
		Log()

	return nil
}

// LogoutAll revokes every live token for a user, both kinds.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	ctx = ctxutil.WithOperation(ctx, "service", "LogoutAll")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.accessTokens.DeleteByUserID(gctx, userID)
		return err
	})
	g.Go(func() error {
		_, err := s.refreshTokens.DeleteByUserID(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "All sessions revoked").
		Uint("user_id", userID).
		Log()

	return nil
}

// tokenPair holds one login's freshly issued tokens and their jtis.
type tokenPair struct {
	accessToken  string
	refreshToken string
	accessJTI    string
	refreshJTI   string
}

// issuePair mints, signs and persists both tokens of a login. The two
// branches run concurrently; each payload gets its own jti even though both
// share the same issuance instant. The writes are not transactional, so a
// partial failure is compensated by deleting the branch that did land.
func (s *AuthService) issuePair(ctx context.Context, userID uint) (*tokenPair, error) {
	now := time.Now().UTC()

	accessPayload := NewTokenPayload(userID, now)
	refreshPayload := NewTokenPayload(userID, now)

	pair := &tokenPair{
		accessJTI:  accessPayload.JTI,
		refreshJTI: refreshPayload.JTI,
	}

	var accessSaved, refreshSaved bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		signed, err := s.tokens.Sign(accessPayload, s.accessTTL)
		if err != nil {
			return err
		}
		if err := s.accessTokens.Save(gctx, &model.AccessToken{
			JTI:       accessPayload.JTI,
			UserID:    userID,
			Token:     signed,
			ExpiresAt: now.Add(s.accessTTL),
		}); err != nil {
			return err
		}
		pair.accessToken = signed
		accessSaved = true
		return nil
	})
	g.Go(func() error {
		signed, err := s.tokens.Sign(refreshPayload, s.refreshTTL)
		if err != nil {
			return err
		}
		if err := s.refreshTokens.Save(gctx, &model.RefreshToken{
			JTI:       refreshPayload.JTI,
			UserID:    userID,
			Token:     signed,
			ExpiresAt: now.Add(s.refreshTTL),
		}); err != nil {
			return err
		}
		pair.refreshToken = signed
		refreshSaved = true
		return nil
	})

	if err := g.Wait(); err != nil {
		// Best effort: the surviving row would otherwise be an orphan that
		// never reaches a client.
		if accessSaved {
			if _, derr := s.accessTokens.DeleteByJTI(ctx, pair.accessJTI); derr != nil {
				logger.WarnWithContext(ctx, "Failed to compensate orphan access token").
					String("jti", pair.accessJTI).
					Err(derr).
					Log()
			}
		}
		if refreshSaved {
			if _, derr := s.refreshTokens.DeleteByJTI(ctx, pair.refreshJTI); derr != nil {
				logger.WarnWithContext(ctx, "Failed to compensate orphan refresh token").
					String("jti", pair.refreshJTI).
					Err(derr).
					Log()
			}
		}
		return nil, domainerrors.WrapError(domainerrors.ErrInternal, err)
	}

	return pair, nil
}

func (s *AuthService) revokePair(ctx context.Context, pair *tokenPair) {
	if _, err := s.accessTokens.DeleteByJTI(ctx, pair.accessJTI); err != nil {
		logger.WarnWithContext(ctx, "Failed to revoke access token").
			String("jti", pair.accessJTI).
			Err(err).
			Log()
	}
	if _, err := s.refreshTokens.DeleteByJTI(ctx, pair.refreshJTI); err != nil {
		logger.WarnWithContext(ctx, "Failed to revoke refresh token").
			String("jti", pair.refreshJTI).
			Err(err).
			Log()
	}
}

// audit writes the per-login access row synchronously.
func (s *AuthService) audit(ctx context.Context, userID uint, info dto.RequestInfo) error {
	var metadata datatypes.JSON
	if info.RequestID != "" || info.Referer != "" {
		raw, err := json.Marshal(map[string]string{
			"request_id": info.RequestID,
			"referer":    info.Referer,
		})
		if err == nil {
			metadata = datatypes.JSON(raw)
		}
	}

	return s.accessLogs.Create(ctx, &model.AccessLog{
		UserID:    userID,
		UserAgent: info.UserAgent,
		Endpoint:  info.Endpoint,
		IP:        info.IP,
		Metadata:  metadata,
	})
}

func toUserSummary(user *model.User) dto.UserSummary {
	return dto.UserSummary{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	}
}
