package handler

import (
	"errors"

	"scannimart/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// getUserID reads the caller set by RequireAuth.
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "system"
	}
	return userID
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// errorResponse maps service errors to a status and body. Expected failures
// keep their message; store failures are reported generically.
func errorResponse(c *fiber.Ctx, err error) error {
	var outOfStock *service.OutOfStockError
	var missing *service.ProductNotFoundError

	switch {
	case errors.As(err, &outOfStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     err.Error(),
			"code":      "out_of_stock",
			"product":   outOfStock.ProductName,
			"remaining": outOfStock.Remaining,
		})
	case errors.As(err, &missing):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   err.Error(),
			"code":    "product_not_found",
			"product": missing.Item,
		})
	case errors.Is(err, service.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"outcome":  "conflict",
			"severity": "warning",
			"message":  err.Error(),
		})
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOfferNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrBarcodeExists),
		errors.Is(err, service.ErrUsernameExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrAIParsingFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error(), "code": "ai_parsing_failed"})
	case errors.Is(err, service.ErrAIRequestFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "AI request failed", "code": "ai_request_failed"})
	case errors.Is(err, service.ErrAIUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrIdentifierExhausted):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrStore):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
}

// outcomeStatus gives every gate outcome its own status code.
func outcomeStatus(kind service.OutcomeKind) int {
	switch kind {
	case service.OutcomeGranted, service.OutcomePaymentRequired:
		return fiber.StatusOK
	case service.OutcomeAlreadyUsed:
		return fiber.StatusConflict
	case service.OutcomePaymentPending:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusNotFound
	}
}

func outcomeResponse(c *fiber.Ctx, result *service.GateResult) error {
	kind := result.Outcome.Kind
	body := fiber.Map{
		"outcome":  kind,
		"severity": kind.Severity(),
		"message":  kind.Message(),
	}
	if result.Outcome.Order != nil {
		body["order"] = result.Outcome.Order
	}
	if result.Outcome.Risk != nil {
		body["risk"] = result.Outcome.Risk
	}
	if result.Session != nil {
		body["session"] = result.Session
	}
	return c.Status(outcomeStatus(kind)).JSON(body)
}
