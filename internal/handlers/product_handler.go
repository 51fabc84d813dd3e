package handlers

import (
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the public product routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
}

// HandleListProducts returns one page of the catalogue.
// Query: page (default 1), limit (default 10, max 100), category.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", services.DefaultPageLimit), c.Query("category"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"items":   page.Items,
		"total":   page.Total,
	})
}

// HandleGetProduct returns a single product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, product)
}
