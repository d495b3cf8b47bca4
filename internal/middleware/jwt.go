package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/moosoltadiwa/localpay-connect/internal/auth"
	"github.com/moosoltadiwa/localpay-connect/internal/config"
)

// JWTAuth returns a middleware that validates access tokens and exposes the
// caller's identity via Locals("user_id") and Locals("is_admin").
func JWTAuth(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(cfg.JWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		exp, _ := claims["exp"].(float64)
		if exp == 0 || time.Now().Unix() >= int64(exp) {
			return fiber.NewError(http.StatusUnauthorized, "token expired")
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		isAdmin, _ := claims["adm"].(bool)

		c.Locals("user_id", sub)
		c.Locals("is_admin", isAdmin)
		return c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin claim. It
// must run after JWTAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdmin, _ := c.Locals("is_admin").(bool); !isAdmin {
			return fiber.NewError(http.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}
