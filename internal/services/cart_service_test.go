package services_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	products *repositories.MemoryProductRepository
	carts    *repositories.MemoryCartRepository
	orders   *repositories.MemoryOrderRepository
}

func newMemoryStore() *memoryStore {
	products := repositories.NewMemoryProductRepository()
	carts := repositories.NewMemoryCartRepository(products)
	return &memoryStore{
		products: products,
		carts:    carts,
		orders:   repositories.NewMemoryOrderRepository(carts),
	}
}

func (s *memoryStore) addProduct(t *testing.T, title string, price int64, sizes ...string) *models.Product {
	t.Helper()
	p := &models.Product{Title: title, Price: decimal.NewFromInt(price), Stock: 10, Sizes: sizes}
	require.NoError(t, s.products.Create(context.Background(), p))
	return p
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// tick separates creation timestamps so newest-first ordering is observable.
func tick() { time.Sleep(2 * time.Millisecond) }

func cartService(s *memoryStore, byVariant bool) *services.CartService {
	return services.NewCartService(s.carts, s.products, validation.New(), byVariant)
}

func TestCartService_AddMergesByProduct(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10, "S", "M")
	carts := cartService(store, false)

	first, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(2), SelectedSize: strPtr("S")})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Quantity)
	assert.Equal(t, shirt.ID, first.Product.ID)

	// A different size still merges into the same row.
	merged, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(3), SelectedSize: strPtr("M")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 5, merged.Quantity)

	list, err := carts.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 5, list.Items[0].Quantity)
}

func TestCartService_AddMergesByVariant(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10, "S", "M")
	carts := cartService(store, true)

	small, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, SelectedSize: strPtr("S")})
	require.NoError(t, err)
	assert.Equal(t, 1, small.Quantity)

	tick()
	medium, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, SelectedSize: strPtr("M")})
	require.NoError(t, err)
	assert.NotEqual(t, small.ID, medium.ID)

	again, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(4), SelectedSize: strPtr("S")})
	require.NoError(t, err)
	assert.Equal(t, small.ID, again.ID)
	assert.Equal(t, 5, again.Quantity)

	list, err := carts.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, medium.ID, list.Items[0].ID, "newest first")
}

func TestCartService_AddRejects(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10, "S")
	carts := cartService(store, false)

	_, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: "missing"})
	assert.True(t, errors.Is(err, apperrors.ErrProductNotFound))

	_, err = carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(0)})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, SelectedSize: strPtr("XXL")})
	appErr, ok := apperrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", appErr.Code)
	assert.Contains(t, appErr.Details, "selectedSize")

	list, err := carts.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestCartService_Update(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)
	carts := cartService(store, false)

	item, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(2)})
	require.NoError(t, err)

	updated, err := carts.Update(ctx, "u1", item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)

	// Out-of-range quantities leave the row untouched.
	for _, quantity := range []int{0, -1, models.MaxCartItemQuantity + 1} {
		_, err = carts.Update(ctx, "u1", item.ID, quantity)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidData), "quantity %d", quantity)
	}
	list, err := carts.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, list.Items[0].Quantity)

	// Another user's item is invisible and unchanged.
	_, err = carts.Update(ctx, "u2", item.ID, 3)
	assert.True(t, errors.Is(err, apperrors.ErrCartItemNotFound))
	assert.True(t, errors.Is(carts.Remove(ctx, "u2", item.ID), apperrors.ErrCartItemNotFound))
	list, err = carts.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, item.ID, list.Items[0].ID)
	assert.Equal(t, 7, list.Items[0].Quantity)

	_, err = carts.Update(ctx, "u1", "missing", 3)
	assert.True(t, errors.Is(err, apperrors.ErrCartItemNotFound))
}

func TestCartService_Remove(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)
	carts := cartService(store, false)

	item, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID})
	require.NoError(t, err)

	assert.True(t, errors.Is(carts.Remove(ctx, "u2", item.ID), apperrors.ErrCartItemNotFound))
	require.NoError(t, carts.Remove(ctx, "u1", item.ID))
	assert.True(t, errors.Is(carts.Remove(ctx, "u1", item.ID), apperrors.ErrCartItemNotFound))
}

func TestCartService_LinkedItemsAreFrozen(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)
	carts := cartService(store, false)
	orders := services.NewOrderService(store.orders, nil)

	item, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID})
	require.NoError(t, err)
	_, err = orders.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	_, err = carts.Update(ctx, "u1", item.ID, 4)
	assert.True(t, errors.Is(err, apperrors.ErrCartItemNotFound))
	assert.True(t, errors.Is(carts.Remove(ctx, "u1", item.ID), apperrors.ErrCartItemNotFound))

	// Adding the same product again starts a fresh row.
	fresh, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID})
	require.NoError(t, err)
	assert.NotEqual(t, item.ID, fresh.ID)
	assert.Equal(t, 1, fresh.Quantity)
}

func TestCartService_AddQuantityLimit(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)
	carts := cartService(store, false)

	_, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(models.MaxCartItemQuantity + 1)})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(6000)})
	require.NoError(t, err)

	// The merged sum is bounded as well.
	_, err = carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(5000)})
	appErr, ok := apperrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", appErr.Code)
	assert.Contains(t, appErr.Details, "quantity")

	merged, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(4000)})
	require.NoError(t, err)
	assert.Equal(t, models.MaxCartItemQuantity, merged.Quantity)

	order, err := services.NewOrderService(store.orders, nil).CreateOrder(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100000).Equal(order.Total), "got %s", order.Total)
}

func TestMemoryCartRepository_AddItemRejectsOverflow(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)

	item, err := store.carts.AddItem(ctx, &models.CartItem{UserID: "u1", ProductID: shirt.ID, Quantity: 2}, false)
	require.NoError(t, err)

	_, err = store.carts.AddItem(ctx, &models.CartItem{UserID: "u1", ProductID: shirt.ID, Quantity: math.MaxInt}, false)
	assert.True(t, errors.Is(err, repositories.ErrQuantityLimit))

	_, err = store.carts.AddItem(ctx, &models.CartItem{UserID: "u2", ProductID: shirt.ID, Quantity: math.MaxInt}, false)
	assert.True(t, errors.Is(err, repositories.ErrQuantityLimit))

	items, err := store.carts.ListUnlinked(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
}
