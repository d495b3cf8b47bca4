package settings

import (
	"context"
	"errors"
	"testing"
)

func TestStatic(t *testing.T) {
	s := Static{KeyPaynowIntegrationID: "12345"}
	ctx := context.Background()

	v, err := s.Get(ctx, KeyPaynowIntegrationID)
	if err != nil || v != "12345" {
		t.Fatalf("expected 12345, got %q err=%v", v, err)
	}
	if _, err := s.Get(ctx, KeyPaynowIntegrationKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChainFallsThrough(t *testing.T) {
	ctx := context.Background()
	chain := Chain{
		Static{},
		Static{KeyPaynowIntegrationKey: "secret"},
	}

	v, err := chain.Get(ctx, KeyPaynowIntegrationKey)
	if err != nil || v != "secret" {
		t.Fatalf("expected secret, got %q err=%v", v, err)
	}
	if _, err := chain.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type failingProvider struct{ err error }

func (f failingProvider) Get(context.Context, string) (string, error) { return "", f.err }

func TestChainStopsOnHardError(t *testing.T) {
	boom := errors.New("boom")
	chain := Chain{failingProvider{err: boom}, Static{"k": "v"}}

	if _, err := chain.Get(context.Background(), "k"); !errors.Is(err, boom) {
		t.Fatalf("expected hard error to propagate, got %v", err)
	}
}
