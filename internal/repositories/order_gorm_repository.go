package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// CreateFromCart runs the whole checkout in one transaction. Cart rows are
// locked on PostgreSQL and each link is conditional on the row still being
// unlinked, so a concurrent change rolls the checkout back with ErrConflict.
func (r *GORMOrderRepository) CreateFromCart(ctx context.Context, userID string, build OrderBuilder) (*models.Order, error) {
	var created *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := make([]models.CartItem, 0)
		err := lockForUpdate(tx.Where("user_id = ? AND order_id IS NULL", userID)).
			Order("created_at DESC").
			Find(&items).Error
		if err != nil {
			return fmt.Errorf("failed to read cart for user %s: %w", userID, err)
		}
		if err := attachProducts(tx, items); err != nil {
			return err
		}

		order, err := build(items)
		if err != nil {
			return err
		}
		if order.ID == "" {
			order.ID = uuid.New().String()
		}
		order.UserID = userID
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range items {
			updates := map[string]interface{}{"order_id": order.ID}
			if items[i].Product != nil {
				updates["unit_price"] = items[i].Product.Price
			}
			res := tx.Model(&models.CartItem{}).
				Where("id = ? AND order_id IS NULL", items[i].ID).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("failed to link cart item %s: %w", items[i].ID, res.Error)
			}
			if res.RowsAffected != 1 {
				return fmt.Errorf("cart item %s: %w", items[i].ID, ErrConflict)
			}
			items[i].OrderID = &order.ID
			if items[i].Product != nil {
				items[i].UnitPrice.Decimal = items[i].Product.Price
				items[i].UnitPrice.Valid = true
			}
		}
		order.Items = items
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// attachProducts resolves the products of items in one query. Items whose
// product is gone keep a nil Product.
func attachProducts(tx *gorm.DB, items []models.CartItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var products []models.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return fmt.Errorf("failed to resolve cart products: %w", err)
	}
	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range items {
		items[i].Product = byID[items[i].ProductID]
	}
	return nil
}

// ListByUser returns the user's orders, newest first, without items.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByID returns an order with its linked items and their products.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Items.Product").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// UpdateStatus updates the status of an order still in status from.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s is no longer %s: %w", id, from, ErrConflict)
	}
	return nil
}
