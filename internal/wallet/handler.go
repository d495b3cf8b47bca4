package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
)

// Handler exposes wallet reads for the caller and the admin adjustment.
type Handler struct {
	service *Service
}

// NewHandler constructs a wallet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Show returns the caller's balance and recent transactions.
func (h *Handler) Show(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing user")
	}

	balance, err := h.service.Balance(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	history, err := h.service.History(c.UserContext(), uid, c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	txs := make([]fiber.Map, 0, len(history))
	for _, tx := range history {
		txs = append(txs, fiber.Map{
			"id":         tx.ID,
			"kind":       tx.Kind,
			"amount":     tx.Amount,
			"method":     tx.Method,
			"reference":  tx.Reference,
			"status":     tx.Status,
			"created_at": tx.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance":      balance,
		"transactions": txs,
	})
}

type adjustRequest struct {
	Amount int64  `json:"amount_cents"`
	Credit bool   `json:"credit"`
	Reason string `json:"reason"`
}

// Adjust applies an admin manual credit or debit to the target user.
func (h *Handler) Adjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.ManualAdjust(c.UserContext(), AdjustInput{
		UserID: c.Params("userId"),
		Amount: req.Amount,
		Credit: req.Credit,
		Reason: req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ledger.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance":        res.Balance,
		"transaction_id": res.TransactionID,
	})
}
