package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/validation"
)

// AddToCartInput is the add-to-cart payload. Quantity defaults to 1.
type AddToCartInput struct {
	ProductID     string  `json:"productId" validate:"required"`
	Quantity      *int    `json:"quantity" validate:"omitempty,min=1,max=10000"`
	SelectedSize  *string `json:"selectedSize" validate:"omitempty,max=50"`
	SelectedColor *string `json:"selectedColor" validate:"omitempty,max=50"`
}

// CartList is the user's cart.
type CartList struct {
	Items []models.CartItem `json:"items"`
	Total int               `json:"total"`
}

// CartService handles the user's cart. Every operation is scoped to the
// calling user and only touches items not yet linked to an order.
type CartService struct {
	cartRepo       repositories.CartRepository
	productRepo    repositories.ProductRepository
	validator      *validation.Validator
	mergeByVariant bool
}

// NewCartService creates a new CartService. With mergeByVariant set, adding a
// product only merges into a row with the same size and colour.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository, v *validation.Validator, mergeByVariant bool) *CartService {
	return &CartService{
		cartRepo:       cartRepo,
		productRepo:    productRepo,
		validator:      v,
		mergeByVariant: mergeByVariant,
	}
}

// List returns the user's unlinked cart items, newest first.
func (s *CartService) List(ctx context.Context, userID string) (*CartList, error) {
	items, err := s.cartRepo.ListUnlinked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart for user %s: %w", userID, err)
	}
	return &CartList{Items: items, Total: len(items)}, nil
}

// Add puts a product in the user's cart, merging into an existing row.
func (s *CartService) Add(ctx context.Context, userID string, in AddToCartInput) (*models.CartItem, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product %s: %w", in.ProductID, err)
	}

	details := map[string]string{}
	if in.SelectedSize != nil && !product.HasSize(*in.SelectedSize) {
		details["selectedSize"] = fmt.Sprintf("size %q is not available for this product", *in.SelectedSize)
	}
	if in.SelectedColor != nil && !product.HasColor(*in.SelectedColor) {
		details["selectedColor"] = fmt.Sprintf("color %q is not available for this product", *in.SelectedColor)
	}
	if len(details) > 0 {
		return nil, apperrors.ErrValidation.WithDetails(details)
	}

	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	item, err := s.cartRepo.AddItem(ctx, &models.CartItem{
		UserID:        userID,
		ProductID:     product.ID,
		Quantity:      quantity,
		SelectedSize:  in.SelectedSize,
		SelectedColor: in.SelectedColor,
	}, s.mergeByVariant)
	if err != nil {
		if errors.Is(err, repositories.ErrQuantityLimit) {
			return nil, quantityLimitError()
		}
		return nil, fmt.Errorf("failed to add product %s to cart: %w", product.ID, err)
	}
	item.Product = product
	return item, nil
}

// Update changes the quantity of one of the user's unlinked items.
func (s *CartService) Update(ctx context.Context, userID, itemID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperrors.ErrInvalidData.WithMessage("Quantity should be at least 1")
	}
	if quantity > models.MaxCartItemQuantity {
		return nil, apperrors.ErrInvalidData.WithMessage(fmt.Sprintf("Quantity should not exceed %d", models.MaxCartItemQuantity))
	}
	item, err := s.cartRepo.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to update cart item %s: %w", itemID, err)
	}
	return item, nil
}

// Remove deletes one of the user's unlinked items.
func (s *CartService) Remove(ctx context.Context, userID, itemID string) error {
	if err := s.cartRepo.Delete(ctx, userID, itemID); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return apperrors.ErrCartItemNotFound
		}
		return fmt.Errorf("failed to remove cart item %s: %w", itemID, err)
	}
	return nil
}

func quantityLimitError() error {
	return apperrors.ErrValidation.WithDetails(map[string]string{
		"quantity": fmt.Sprintf("quantity in cart should not exceed %d", models.MaxCartItemQuantity),
	})
}
