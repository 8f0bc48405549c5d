package service

import (
	"context"
	"errors"
	"testing"

	domainerrors "github.com/surdiana/auth-service/internal/errors"
)

func TestUserService_GetByID(t *testing.T) {
	fx := newAuthFixture(t)
	summary := fx.signup(t, "alice@example.com")

	svc := NewUserService(fx.users, nil, nil)

	got, err := svc.GetByID(context.Background(), summary.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Unexpected summary: %+v", got)
	}
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	fx := newAuthFixture(t)
	svc := NewUserService(fx.users, nil, nil)

	_, err := svc.GetByID(context.Background(), 404)
	if !errors.Is(err, domainerrors.ErrIdentityNotFound) {
		t.Errorf("Expected ErrIdentityNotFound, got %v", err)
	}
}
