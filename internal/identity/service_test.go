package identity

import (
	"context"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	ctx := context.Background()
	user, err := svc.Register(ctx, Credentials{Email: "Tariro@Example.com", Password: "s3cret-pass", FullName: "Tariro M"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "tariro@example.com" {
		t.Fatalf("expected lowercased email, got %s", user.Email)
	}
	if user.IsAdmin {
		t.Fatal("new users must not be admins")
	}

	authed, err := svc.Authenticate(ctx, Credentials{Email: "tariro@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, authed.ID)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "a@b.co", Password: "s3cret-pass"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, Credentials{Email: "a@b.co", Password: "wrong-pass"}); err == nil {
		t.Fatal("expected authentication failure")
	}
	if _, err := svc.Authenticate(ctx, Credentials{Email: "nobody@b.co", Password: "s3cret-pass"}); err == nil {
		t.Fatal("expected authentication failure for unknown email")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "not-an-email", Password: "s3cret-pass"}); err == nil {
		t.Fatal("expected invalid email error")
	}
	if _, err := svc.Register(ctx, Credentials{Email: "a@b.co", Password: "short"}); err == nil {
		t.Fatal("expected short password error")
	}
}
