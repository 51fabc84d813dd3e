package handlers

import (
	"log"

	"storefront/internal/apperrors"
	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service   *services.OrderService
	gate      *middleware.AuthGate
	validator *validation.Validator
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, gate *middleware.AuthGate, v *validation.Validator) *OrderHandler {
	return &OrderHandler{
		service:   service,
		gate:      gate,
		validator: v,
	}
}

// RegisterRoutes registers the order routes. All of them require a bearer
// token and only ever see the caller's own orders.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.gate.Protect(h.HandleListOrders))
	orderRoutes.Get("/:id", h.gate.Protect(h.HandleGetOrder))
	orderRoutes.Post("/", h.gate.Protect(h.HandleCreateOrder))
	orderRoutes.Patch("/:id/status", h.gate.Protect(h.HandleUpdateOrderStatus))
}

// HandleListOrders returns the user's orders, newest first.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx, user services.Identity) error {
	orders, err := h.service.ListOrders(c.UserContext(), user.UserID)
	if err != nil {
		return err
	}
	return ok(c, orders)
}

// HandleGetOrder returns one order with its items.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx, user services.Identity) error {
	order, err := h.service.GetOrder(c.UserContext(), user.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, order)
}

// HandleCreateOrder checks out the user's cart. The body is ignored.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx, user services.Identity) error {
	order, err := h.service.CreateOrder(c.UserContext(), user.UserID)
	if err != nil {
		return err
	}
	return ok(c, order)
}

// HandleUpdateOrderStatus moves a pending order to completed or cancelled.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx, user services.Identity) error {
	var req services.UpdateStatusInput
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return apperrors.ErrValidation.WithMessage("Invalid request body").Wrap(err)
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), user.UserID, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return ok(c, order)
}
