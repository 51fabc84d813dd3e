package handlers

import (
	"log"

	"storefront/internal/apperrors"
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the authenticated user's cart.
type CartHandler struct {
	service *services.CartService
	gate    *middleware.AuthGate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, gate *middleware.AuthGate) *CartHandler {
	return &CartHandler{
		service: service,
		gate:    gate,
	}
}

// RegisterRoutes registers the cart routes. All of them require a bearer token.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.gate.Protect(h.HandleListCart))
	cartRoutes.Post("/", h.gate.Protect(h.HandleAddToCart))
	cartRoutes.Patch("/:id?", h.gate.Protect(h.HandleUpdateCartItem))
	cartRoutes.Delete("/:id?", h.gate.Protect(h.HandleRemoveCartItem))
}

// UpdateCartItemRequest is the body of PATCH /cart.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// HandleListCart returns the user's cart.
func (h *CartHandler) HandleListCart(c *fiber.Ctx, user services.Identity) error {
	cart, err := h.service.List(c.UserContext(), user.UserID)
	if err != nil {
		return err
	}
	return ok(c, cart)
}

// HandleAddToCart adds a product to the user's cart.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx, user services.Identity) error {
	var req services.AddToCartInput
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add-to-cart request body: %v", err)
		return apperrors.ErrValidation.WithMessage("Invalid request body").Wrap(err)
	}

	item, err := h.service.Add(c.UserContext(), user.UserID, req)
	if err != nil {
		return err
	}
	return ok(c, item)
}

// HandleUpdateCartItem changes the quantity of a cart item. The item is named
// by the cartItemId query parameter or, failing that, the path.
func (h *CartHandler) HandleUpdateCartItem(c *fiber.Ctx, user services.Identity) error {
	itemID := cartItemID(c)
	if itemID == "" {
		return cartItemIDRequired()
	}

	var req UpdateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart update request body: %v", err)
		return apperrors.ErrInvalidData.Wrap(err)
	}

	item, err := h.service.Update(c.UserContext(), user.UserID, itemID, req.Quantity)
	if err != nil {
		return err
	}
	return ok(c, item)
}

// HandleRemoveCartItem deletes a cart item.
func (h *CartHandler) HandleRemoveCartItem(c *fiber.Ctx, user services.Identity) error {
	itemID := cartItemID(c)
	if itemID == "" {
		return cartItemIDRequired()
	}

	if err := h.service.Remove(c.UserContext(), user.UserID, itemID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item removed from cart",
	})
}

func cartItemID(c *fiber.Ctx) string {
	if id := c.Query("cartItemId"); id != "" {
		return id
	}
	return c.Params("id")
}

func cartItemIDRequired() error {
	return apperrors.ErrValidation.WithDetails(map[string]string{"cartItemId": "cartItemId is required"})
}
