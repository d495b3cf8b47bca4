package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moosoltadiwa/localpay-connect/internal/order"
	"github.com/moosoltadiwa/localpay-connect/internal/proof"
	"github.com/moosoltadiwa/localpay-connect/internal/wallet"
)

// RegisterAdminRoutes wires the review queue, manual adjustments and refunds.
// The group is already behind JWTAuth plus RequireAdmin.
func RegisterAdminRoutes(r fiber.Router, p *proof.Handler, w *wallet.Handler, o *order.Handler, idem fiber.Handler) {
	r.Get("/proofs", p.List)
	r.Post("/proofs/:proofId/approve", p.Approve)
	r.Post("/proofs/:proofId/reject", p.Reject)
	r.Post("/orders/:orderId/refund", o.Refund)
	if idem != nil {
		r.Post("/customers/:userId/adjust", idem, w.Adjust)
	} else {
		r.Post("/customers/:userId/adjust", w.Adjust)
	}
}
