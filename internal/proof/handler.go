package proof

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes proof submission and the admin review endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a proof handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	Amount        int64  `json:"amount_cents"`
	Method        string `json:"method"`
	PhoneNumber   string `json:"phone_number"`
	ScreenshotURL string `json:"screenshot_url"`
}

// Submit files a manual payment claim for the authenticated caller.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	sub, err := h.service.Submit(c.UserContext(), SubmitInput{
		UserID:        uid,
		Amount:        req.Amount,
		Method:        req.Method,
		PhoneNumber:   req.PhoneNumber,
		ScreenshotURL: req.ScreenshotURL,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"proof_id":       sub.Proof.ID,
		"transaction_id": sub.TransactionID,
		"reference":      sub.Reference,
		"status":         sub.Proof.Status,
	})
}

// List returns the review queue, optionally filtered by ?status=.
func (h *Handler) List(c *fiber.Ctx) error {
	proofs, err := h.service.List(c.UserContext(), c.Query("status"), c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]fiber.Map, 0, len(proofs))
	for _, p := range proofs {
		out = append(out, fiber.Map{
			"id":             p.ID,
			"user_id":        p.UserID,
			"transaction_id": p.TransactionID,
			"screenshot_url": p.ScreenshotURL,
			"phone_number":   p.PhoneNumber,
			"status":         p.Status,
			"admin_notes":    p.AdminNotes,
			"created_at":     p.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"proofs": out})
}

type decisionRequest struct {
	Notes string `json:"notes"`
}

// Approve applies an approval decision.
func (h *Handler) Approve(c *fiber.Ctx) error {
	return h.decide(c, true)
}

// Reject applies a rejection decision; notes are required.
func (h *Handler) Reject(c *fiber.Ctx) error {
	return h.decide(c, false)
}

func (h *Handler) decide(c *fiber.Ctx, approve bool) error {
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	var (
		p   Proof
		err error
	)
	if approve {
		p, err = h.service.Approve(c.UserContext(), c.Params("proofId"), req.Notes)
	} else {
		p, err = h.service.Reject(c.UserContext(), c.Params("proofId"), req.Notes)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyDecided):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrNotesRequired):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrOutOfSync):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":          p.ID,
		"status":      p.Status,
		"admin_notes": p.AdminNotes,
	})
}
