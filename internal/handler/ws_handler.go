package handler

import (
	"scannimart/internal/service"
	"scannimart/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WSHandler struct {
	hub    *ws.Hub
	orders service.OrderService
}

func NewWSHandler(hub *ws.Hub, orders service.OrderService) *WSHandler {
	return &WSHandler{hub: hub, orders: orders}
}

// Upgrade rejects plain HTTP requests on websocket routes.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// ResolveOrder pins the order a pass feed follows before the upgrade, so an
// unknown code fails with a normal HTTP error.
// GET /ws/orders/:identifier
func (h *WSHandler) ResolveOrder(c *fiber.Ctx) error {
	pass, err := h.orders.GetPass(c.UserContext(), c.Params("identifier"))
	if err != nil {
		return errorResponse(c, err)
	}
	c.Locals("order_id", pass.ID.String())
	return c.Next()
}

// Inventory streams stock changes to admin screens.
func (h *WSHandler) Inventory() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		h.follow(c, ws.TopicInventory)
	})
}

// OrderStatus streams status changes of one order to its exit pass.
func (h *WSHandler) OrderStatus() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		orderID, _ := c.Locals("order_id").(string)
		if orderID == "" {
			_ = c.Close()
			return
		}
		h.follow(c, ws.OrderTopic(orderID))
	})
}

func (h *WSHandler) follow(c *websocket.Conn, topic string) {
	h.hub.Subscribe(topic, c)
	defer h.hub.Unsubscribe(topic, c)

	for {
		// Keep alive loop
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
