package deposit

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
	"github.com/moosoltadiwa/localpay-connect/internal/paynow"
)

// Handler exposes the deposit HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a deposit handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type initiateRequest struct {
	Amount        int64  `json:"amount_cents"`
	PaymentMethod string `json:"payment_method"`
	PhoneNumber   string `json:"phone_number"`
	Email         string `json:"email"`
	UserID        string `json:"user_id"`
}

type initiateResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
	PollURL       string `json:"poll_url,omitempty"`
}

// Initiate starts a gateway deposit for the authenticated caller.
func (h *Handler) Initiate(c *fiber.Ctx) error {
	var req initiateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	result, err := h.service.Initiate(c.UserContext(), InitiateInput{
		AuthUserID: uid,
		UserID:     req.UserID,
		Email:      req.Email,
		Method:     req.PaymentMethod,
		Phone:      req.PhoneNumber,
		Amount:     req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUserMismatch):
			return fiber.NewError(http.StatusForbidden, "user mismatch")
		case errors.Is(err, ErrGatewayRejected):
			return fiber.NewError(http.StatusBadGateway, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(initiateResponse{
		Success:       true,
		TransactionID: result.TransactionID,
		Reference:     result.Reference,
		RedirectURL:   result.RedirectURL,
		Instructions:  result.Instructions,
		PollURL:       result.PollURL,
	})
}

type pollRequest struct {
	TransactionID string `json:"transaction_id"`
}

// Poll reports (and, if the gateway confirms, settles) a pending deposit.
func (h *Handler) Poll(c *fiber.Ctx) error {
	var req pollRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.TransactionID == "" {
		return fiber.NewError(http.StatusBadRequest, "transaction_id is required")
	}
	uid, _ := c.Locals("user_id").(string)

	result, err := h.service.Poll(c.UserContext(), uid, req.TransactionID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":   true,
		"status":    result.Status,
		"completed": result.Completed,
	})
}

// Webhook receives the gateway's asynchronous callback. It is authenticated
// by message digest, not by bearer token. Recognized deliveries, including
// duplicates and non-terminal statuses, answer 200 so the gateway stops
// retrying.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	err := h.service.HandleCallback(c.UserContext(), c.Body())
	if err != nil {
		switch {
		case errors.Is(err, paynow.ErrMissingHash):
			return c.Status(http.StatusUnauthorized).SendString("Authentication required - hash missing")
		case errors.Is(err, paynow.ErrInvalidHash):
			return c.Status(http.StatusForbidden).SendString("Invalid hash")
		case errors.Is(err, paynow.ErrMalformed):
			return c.Status(http.StatusBadRequest).SendString("Invalid webhook data")
		case errors.Is(err, ledger.ErrNotFound):
			return c.Status(http.StatusNotFound).SendString("Transaction not found")
		default:
			return c.Status(http.StatusInternalServerError).SendString("Server error")
		}
	}
	return c.Status(http.StatusOK).SendString("OK")
}
