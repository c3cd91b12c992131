package handler

import (
	"io"
	"strings"

	"scannimart/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxTrolleyImageBytes = 8 << 20

type GateHandler struct {
	gate service.GateService
}

func NewGateHandler(gate service.GateService) *GateHandler {
	return &GateHandler{gate: gate}
}

type SubmitPassRequest struct {
	Identifier     string `json:"identifier"`
	ConfirmPayment bool   `json:"confirm_payment"`
}

type ScanItemRequest struct {
	Code string `json:"code"`
}

type RecordWeightRequest struct {
	Grams float64 `json:"grams"`
}

// Submit runs the exit decision for a scanned or typed pass
// POST /api/v1/gate/verify
func (h *GateHandler) Submit(c *fiber.Ctx) error {
	var req SubmitPassRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if strings.TrimSpace(req.Identifier) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Identifier is required"})
	}

	result, err := h.gate.Submit(c.UserContext(), req.Identifier, req.ConfirmPayment)
	if err != nil {
		return errorResponse(c, err)
	}
	return outcomeResponse(c, result)
}

// GET /api/v1/gate/sessions/:id
func (h *GateHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.gate.Session(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(session)
}

// ScanItem marks one billed item as physically checked
// POST /api/v1/gate/sessions/:id/scan
func (h *GateHandler) ScanItem(c *fiber.Ctx) error {
	var req ScanItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if strings.TrimSpace(req.Code) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Code is required"})
	}

	outcome, err := h.gate.ScanItem(c.UserContext(), c.Params("id"), req.Code)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(outcome)
}

// POST /api/v1/gate/sessions/:id/quick-verify
func (h *GateHandler) QuickVerify(c *fiber.Ctx) error {
	session, err := h.gate.QuickVerify(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(session)
}

// RecordWeight compares the trolley scale reading with the billed weight
// POST /api/v1/gate/sessions/:id/weight
func (h *GateHandler) RecordWeight(c *fiber.Ctx) error {
	var req RecordWeightRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if req.Grams < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Weight must not be negative"})
	}

	outcome, err := h.gate.RecordWeight(c.UserContext(), c.Params("id"), req.Grams)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(outcome)
}

// ConfirmPayment records cash taken at the gate and grants exit
// POST /api/v1/gate/sessions/:id/confirm-payment
func (h *GateHandler) ConfirmPayment(c *fiber.Ctx) error {
	result, err := h.gate.ConfirmPayment(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return outcomeResponse(c, result)
}

// Reconcile compares a trolley photo against the bill. Expects a multipart
// "image" field.
// POST /api/v1/gate/sessions/:id/reconcile
func (h *GateHandler) Reconcile(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Image is required"})
	}
	if file.Size > maxTrolleyImageBytes {
		return c.Status(413).JSON(fiber.Map{"error": "Image too large"})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Unreadable image"})
	}
	defer f.Close()

	image, err := io.ReadAll(f)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Unreadable image"})
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	outcome, err := h.gate.Reconcile(c.UserContext(), c.Params("id"), image, mimeType)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(outcome)
}

// Complete closes the session and returns the audit report
// POST /api/v1/gate/sessions/:id/complete
func (h *GateHandler) Complete(c *fiber.Ctx) error {
	report, err := h.gate.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(report)
}

// Reset discards the session without a report
// DELETE /api/v1/gate/sessions/:id
func (h *GateHandler) Reset(c *fiber.Ctx) error {
	if err := h.gate.Reset(c.UserContext(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Session reset"})
}
