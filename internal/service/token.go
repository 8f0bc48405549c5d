package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainerrors "github.com/surdiana/auth-service/internal/errors"
)

// TokenPayload is what the engine puts into a signed token. Both access and
// refresh tokens carry the same shape; only their TTLs and ledgers differ.
type TokenPayload struct {
	UserID   uint
	IssuedAt time.Time
	JTI      string
}

// NewTokenPayload stamps a fresh payload for user at now. Each call mints a
// new jti, so the access and refresh halves of one login get distinct ids
// even when stamped in the same instant.
func NewTokenPayload(userID uint, now time.Time) TokenPayload {
	return TokenPayload{
		UserID:   userID,
		IssuedAt: now.UTC(),
		JTI:      uuid.NewString(),
	}
}

// TokenService signs and verifies HS256 JWTs. It knows nothing about
// ledgers; revocation lives entirely in storage.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret must not be empty")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Sign produces a signed token for payload that expires ttl after issuance.
func (s *TokenService) Sign(payload TokenPayload, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", payload.UserID),
		IssuedAt:  jwt.NewNumericDate(payload.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(payload.IssuedAt.Add(ttl)),
		ID:        payload.JTI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the embedded payload.
// Any failure maps to ErrInvalidToken; callers never see parser internals.
func (s *TokenService) Verify(tokenString string) (*TokenPayload, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domainerrors.WrapError(domainerrors.ErrInvalidToken, err)
	}

	if claims.ID == "" || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, domainerrors.ErrInvalidToken
	}

	var userID uint
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil {
		return nil, domainerrors.WrapError(domainerrors.ErrInvalidToken, err)
	}

	return &TokenPayload{
		UserID:   userID,
		IssuedAt: claims.IssuedAt.Time,
		JTI:      claims.ID,
	}, nil
}
