package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// ListUnlinked returns the user's cart, newest item first.
func (r *GORMCartRepository) ListUnlinked(ctx context.Context, userID string) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0)
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ? AND order_id IS NULL", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items for user %s: %w", userID, err)
	}
	return items, nil
}

// AddItem merges or inserts item inside a transaction.
func (r *GORMCartRepository) AddItem(ctx context.Context, item *models.CartItem, matchVariant bool) (*models.CartItem, error) {
	var result models.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("user_id = ? AND product_id = ? AND order_id IS NULL", item.UserID, item.ProductID)
		if matchVariant {
			q = whereOptional(q, "selected_size", item.SelectedSize)
			q = whereOptional(q, "selected_color", item.SelectedColor)
		}

		var existing models.CartItem
		found := lockForUpdate(q).Order("created_at").Limit(1).Find(&existing)
		if found.Error != nil {
			return fmt.Errorf("failed to look up cart item: %w", found.Error)
		}

		if found.RowsAffected > 0 {
			if item.Quantity > models.MaxCartItemQuantity-existing.Quantity {
				return fmt.Errorf("%w: cart item %s", ErrQuantityLimit, existing.ID)
			}
			if err := tx.Model(&existing).Update("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to merge cart item %s: %w", existing.ID, err)
			}
			return tx.First(&result, "id = ?", existing.ID).Error
		}

		if item.Quantity > models.MaxCartItemQuantity {
			return ErrQuantityLimit
		}
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if err := tx.Omit("Product").Create(item).Error; err != nil {
			return fmt.Errorf("failed to create cart item: %w", err)
		}
		result = *item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateQuantity sets the quantity of an unlinked item owned by userID.
func (r *GORMCartRepository) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.CartItem, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ? AND order_id IS NULL", itemID, userID).
		Update("quantity", quantity)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("cart item %s: %w", itemID, ErrRecordNotFound)
	}

	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload cart item %s: %w", itemID, err)
	}
	return &item, nil
}

// Delete removes an unlinked item owned by userID.
func (r *GORMCartRepository) Delete(ctx context.Context, userID, itemID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND order_id IS NULL", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s: %w", itemID, ErrRecordNotFound)
	}
	return nil
}
