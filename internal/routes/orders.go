package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moosoltadiwa/localpay-connect/internal/order"
)

// RegisterOrderRoutes wires order placement and listing.
func RegisterOrderRoutes(r fiber.Router, h *order.Handler, idem fiber.Handler) {
	if idem != nil {
		r.Post("/orders", idem, h.Place)
	} else {
		r.Post("/orders", h.Place)
	}
	r.Get("/orders", h.List)
}
