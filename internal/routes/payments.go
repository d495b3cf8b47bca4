package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moosoltadiwa/localpay-connect/internal/deposit"
	"github.com/moosoltadiwa/localpay-connect/internal/proof"
)

// RegisterPaymentRoutes wires deposit initiation, polling and manual proof
// submission for authenticated users. Initiation and submission are guarded
// by the idempotency middleware; polling must re-evaluate every call.
func RegisterPaymentRoutes(r fiber.Router, d *deposit.Handler, p *proof.Handler, idem fiber.Handler) {
	if idem != nil {
		r.Post("/payments/initiate", idem, d.Initiate)
		r.Post("/proofs", idem, p.Submit)
	} else {
		r.Post("/payments/initiate", d.Initiate)
		r.Post("/proofs", p.Submit)
	}
	r.Post("/payments/poll", d.Poll)
}
