package handler

import (
	"strconv"

	"scannimart/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetOverview returns sales totals, top items and the daily series
// Query params: days (default 7)
func (h *DashboardHandler) GetOverview(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}

	overview, err := h.service.GetOverview(c.UserContext(), days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch sales overview"})
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   overview,
	})
}

// GetRecentSales returns the latest sale lines
// Query params: limit (default 100)
func (h *DashboardHandler) GetRecentSales(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	sales, err := h.service.GetRecentSales(c.UserContext(), limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch sales"})
	}
	return c.JSON(sales)
}
