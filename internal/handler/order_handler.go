package handler

import (
	"strconv"

	"scannimart/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	checkout service.CheckoutService
	orders   service.OrderService
}

func NewOrderHandler(checkout service.CheckoutService, orders service.OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

// Checkout places an order from the shopper's cart and returns its exit pass
// POST /api/v1/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.checkout.Checkout(c.UserContext(), &req)
	if err != nil {
		return errorResponse(c, err)
	}

	pass := service.PassView{OrderSummary: service.NewOrderSummary(order), QRCodeString: order.QRCodeString}
	return c.Status(201).JSON(fiber.Map{"message": "Order placed", "data": pass})
}

// GetPass resolves any of the three order identifiers to the exit pass
// GET /api/v1/orders/:identifier/pass
func (h *OrderHandler) GetPass(c *fiber.Ctx) error {
	pass, err := h.orders.GetPass(c.UserContext(), c.Params("identifier"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(pass)
}

// GetRecent lists the newest orders
// GET /api/v1/orders?limit=50
func (h *OrderHandler) GetRecent(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	orders, err := h.orders.Recent(c.UserContext(), limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(orders)
}
