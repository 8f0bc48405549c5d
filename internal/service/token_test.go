package service

import (
	"errors"
	"testing"
	"time"

	domainerrors "github.com/surdiana/auth-service/internal/errors"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	return svc
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	if _, err := NewTokenService(""); err == nil {
		t.Error("Expected error for empty secret, got nil")
	}
}

func TestTokenService_SignAndVerify(t *testing.T) {
	svc := newTestTokenService(t)

	payload := NewTokenPayload(42, time.Now())
	signed, err := svc.Sign(payload, 15*time.Minute)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	got, err := svc.Verify(signed)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if got.UserID != 42 {
		t.Errorf("Expected user id 42, got %d", got.UserID)
	}
	if got.JTI != payload.JTI {
		t.Errorf("Expected jti %s, got %s", payload.JTI, got.JTI)
	}
	if got.IssuedAt.Unix() != payload.IssuedAt.Unix() {
		t.Errorf("Expected issued at %v, got %v", payload.IssuedAt.Unix(), got.IssuedAt.Unix())
	}
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := newTestTokenService(t)

	payload := NewTokenPayload(7, time.Now().Add(-time.Hour))
	signed, err := svc.Sign(payload, time.Minute)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if _, err := svc.Verify(signed); err == nil {
		t.Error("Expected error for expired token, got nil")
	} else if !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService("another-secret")
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}

	signed, err := svc.Sign(NewTokenPayload(1, time.Now()), time.Minute)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if _, err := other.Verify(signed); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Verify(input); !errors.Is(err, domainerrors.ErrInvalidToken) {
			t.Errorf("Verify(%q) expected ErrInvalidToken, got %v", input, err)
		}
	}
}

func TestNewTokenPayload_DistinctJTIsAtSameInstant(t *testing.T) {
	now := time.Now()

	a := NewTokenPayload(1, now)
	b := NewTokenPayload(1, now)

	if a.JTI == "" || b.JTI == "" {
		t.Fatal("Expected non-empty jtis")
	}
	if a.JTI == b.JTI {
		t.Error("Expected distinct jtis for payloads stamped at the same instant")
	}
	if !a.IssuedAt.Equal(b.IssuedAt) {
		t.Error("Expected identical issuance instants")
	}
}
