package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moosoltadiwa/localpay-connect/internal/wallet"
)

// RegisterWalletRoutes wires balance and history reads for the caller.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallet", h.Show)
}
