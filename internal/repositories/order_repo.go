package repositories

import (
	"context"

	"storefront/internal/models"
)

// OrderBuilder turns the unlinked cart items read during checkout into the
// order to persist. Returning an error aborts the checkout.
type OrderBuilder func(items []models.CartItem) (*models.Order, error)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// CreateFromCart reads the user's unlinked items, builds the order, stores
	// it and links every item read to it, all as one atomic step.
	CreateFromCart(ctx context.Context, userID string, build OrderBuilder) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// UpdateStatus moves the order to status `to` only if it is still `from`.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error
}
