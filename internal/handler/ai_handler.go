package handler

import (
	"strings"

	"scannimart/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AIHandler struct {
	ai service.AIService
}

// NewAIHandler accepts a nil service; every call then answers 503.
func NewAIHandler(ai service.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

type ChatRequest struct {
	Question string `json:"question"`
}

// Chat answers a free-text question about the store
// POST /api/v1/ai/chat
func (h *AIHandler) Chat(c *fiber.Ctx) error {
	if h.ai == nil {
		return errorResponse(c, service.ErrAIUnavailable)
	}

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Question is required"})
	}

	answer, err := h.ai.Chat(c.UserContext(), req.Question)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"answer": answer})
}
