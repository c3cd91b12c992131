package handler

import (
	"scannimart/internal/model"
	"scannimart/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// GetProducts lists the catalog
// GET /api/v1/products
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(products)
}

// ScanBarcode looks up the product a shopper just scanned
// GET /api/v1/products/barcode/:barcode
func (h *InventoryHandler) ScanBarcode(c *fiber.Ctx) error {
	barcode := c.Params("barcode")
	if barcode == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Barcode is required"})
	}

	product, err := h.service.GetProductByBarcode(c.UserContext(), barcode)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(product)
}

// POST /api/v1/products
func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateProduct(c.UserContext(), &product, getUserID(c)); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

// PUT /api/v1/products/:id
func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), productID, &req, getUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

type SetStockRequest struct {
	Stock *int `json:"stock"`
}

// SetStock overwrites the counted stock of one product
// PATCH /api/v1/products/:id/stock
func (h *InventoryHandler) SetStock(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req SetStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if req.Stock == nil {
		return c.Status(400).JSON(fiber.Map{"error": "Stock is required"})
	}

	updated, err := h.service.SetStock(c.UserContext(), productID, *req.Stock, getUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock updated", "data": updated})
}

// GetOffers lists offers that are active and not expired
// GET /api/v1/offers
func (h *InventoryHandler) GetOffers(c *fiber.Ctx) error {
	offers, err := h.service.GetLiveOffers(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(offers)
}

// POST /api/v1/offers
func (h *InventoryHandler) CreateOffer(c *fiber.Ctx) error {
	var offer model.Offer
	if err := c.BodyParser(&offer); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateOffer(c.UserContext(), &offer, getUserID(c)); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Offer created", "data": offer})
}

// DELETE /api/v1/offers/:id
func (h *InventoryHandler) DeleteOffer(c *fiber.Ctx) error {
	offerID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid offer ID"})
	}

	if err := h.service.DeleteOffer(c.UserContext(), offerID); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offer deleted"})
}
