package order

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
)

// Handler exposes order placement for users and refunds for admins.
type Handler struct {
	service *Service
}

// NewHandler constructs an order handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type placeRequest struct {
	ServiceName string `json:"service_name"`
	Link        string `json:"link"`
	Quantity    int    `json:"quantity"`
	Charge      int64  `json:"charge_cents"`
}

// Place creates an order for the authenticated caller.
func (h *Handler) Place(c *fiber.Ctx) error {
	var req placeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	o, err := h.service.Place(c.UserContext(), PlaceInput{
		UserID:      uid,
		ServiceName: req.ServiceName,
		Link:        req.Link,
		Quantity:    req.Quantity,
		Charge:      req.Charge,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return fiber.NewError(http.StatusPaymentRequired, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(orderJSON(o))
}

// List returns the caller's recent orders.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	orders, err := h.service.List(c.UserContext(), uid, c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]fiber.Map, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderJSON(o))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"orders": out})
}

// Refund credits an order back to its owner. Admin only.
func (h *Handler) Refund(c *fiber.Ctx) error {
	o, err := h.service.Refund(c.UserContext(), c.Params("orderId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyRefunded):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(orderJSON(o))
}

func orderJSON(o Order) fiber.Map {
	return fiber.Map{
		"id":           o.ID,
		"user_id":      o.UserID,
		"service_name": o.ServiceName,
		"link":         o.Link,
		"quantity":     o.Quantity,
		"charge":       o.Charge,
		"status":       o.Status,
		"created_at":   o.CreatedAt,
	}
}
