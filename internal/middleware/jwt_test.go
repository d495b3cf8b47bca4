package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/moosoltadiwa/localpay-connect/internal/auth"
	"github.com/moosoltadiwa/localpay-connect/internal/config"
)

func newAuthedApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/me", JWTAuth(cfg), func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		return c.SendString(uid)
	})
	app.Get("/admin", JWTAuth(cfg), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func signToken(t *testing.T, secret string, isAdmin bool, exp time.Time) string {
	t.Helper()
	token, err := auth.SignHS256(map[string]any{
		"sub": "user-1",
		"adm": isAdmin,
		"iat": time.Now().Unix(),
		"exp": exp.Unix(),
	}, []byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestJWTAuth(t *testing.T) {
	cfg := config.Config{JWTSecret: "unit-secret"}
	app := newAuthedApp(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "unit-secret", false, time.Now().Add(time.Hour)))
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "other-secret", false, time.Now().Add(time.Hour)))
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "unit-secret", false, time.Now().Add(-time.Minute)))
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", resp.StatusCode)
	}
}

func TestRequireAdmin(t *testing.T) {
	cfg := config.Config{JWTSecret: "unit-secret"}
	app := newAuthedApp(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "unit-secret", false, time.Now().Add(time.Hour)))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "unit-secret", true, time.Now().Add(time.Hour)))
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.StatusCode)
	}
}
