package repositories

import (
	"context"

	"storefront/internal/models"
)

// ProductQuery selects one page of the catalogue. An empty Category matches
// every product.
type ProductQuery struct {
	Offset   int
	Limit    int
	Category string
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
