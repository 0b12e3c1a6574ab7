package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

func TestAuthService_Login_Success(t *testing.T) {
	f := newFixture(t)
	created := f.createUser(t, "Alice", domain.RoleUser)

	user, err := f.auth.Login(context.Background(), "  ALICE ", "secret1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != created.ID || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthService_Login_Rejections(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "alice", domain.RoleUser)

	tests := []struct {
		name, username, password string
	}{
		{"wrong password", "alice", "nope123"},
		{"unknown user", "mallory", "secret1"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Login(context.Background(), tt.username, tt.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_Resolve(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "alice", domain.RoleUser)

	got, err := f.auth.Resolve(context.Background(), u.ID)
	if err != nil || got.Username != "alice" {
		t.Fatalf("Resolve: %+v, %v", got, err)
	}

	if _, err := f.auth.Resolve(context.Background(), "missing"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.auth.Resolve(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for empty id, got %v", err)
	}
}
