package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/validation"
)

// Paging limits for product listings.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ProductPage is one page of the catalogue.
type ProductPage struct {
	Items []models.Product `json:"items"`
	Total int64            `json:"total"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	validator *validation.Validator
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, v *validation.Validator) *ProductService {
	return &ProductService{
		repo:      repo,
		validator: v,
	}
}

// List returns one page of products. page starts at 1, limit is clamped to
// [1, MaxPageLimit] and a category of "All" or "" disables filtering.
func (s *ProductService) List(ctx context.Context, page, limit int, category string) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit == 0:
		limit = DefaultPageLimit
	case limit < 1:
		limit = 1
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, "all") {
		category = ""
	}

	// Pages beyond math.MaxInt rows saturate instead of wrapping negative.
	offset := math.MaxInt
	if page-1 <= math.MaxInt/limit {
		offset = (page - 1) * limit
	}
	items, total, err := s.repo.List(ctx, repositories.ProductQuery{
		Offset:   offset,
		Limit:    limit,
		Category: category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &ProductPage{Items: items, Total: total}, nil
}

// Get retrieves a single product by its ID.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return product, nil
}

// Create validates and stores a new product.
func (s *ProductService) Create(ctx context.Context, product *models.Product) error {
	if err := s.validator.Struct(product); err != nil {
		return err
	}
	if !product.Price.IsPositive() {
		return apperrors.ErrValidation.WithDetails(map[string]string{"price": "price should be positive"})
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}
