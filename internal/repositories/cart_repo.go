package repositories

import (
	"context"

	"storefront/internal/models"
)

// CartRepository defines the interface for cart item data access. Every
// mutation only ever touches unlinked items owned by the given user.
type CartRepository interface {
	// ListUnlinked returns the user's unlinked items with their products,
	// newest first. Product is nil for items whose product no longer exists.
	ListUnlinked(ctx context.Context, userID string) ([]models.CartItem, error)
	// AddItem merges item into an existing unlinked row for the same user and
	// product (and variant, when matchVariant is set) or inserts it.
	AddItem(ctx context.Context, item *models.CartItem, matchVariant bool) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.CartItem, error)
	Delete(ctx context.Context, userID, itemID string) error
}
