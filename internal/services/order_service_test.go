package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of services.OrderEventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	args := m.Called(ctx, order, previous)
	return args.Error(0)
}

// conflictingOrderRepository reports a lost race on every checkout.
type conflictingOrderRepository struct {
	repositories.OrderRepository
}

func (conflictingOrderRepository) CreateFromCart(context.Context, string, repositories.OrderBuilder) (*models.Order, error) {
	return nil, fmt.Errorf("cart item x: %w", repositories.ErrConflict)
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)
	hat := store.addProduct(t, "Hat", 5)
	carts := cartService(store, false)

	publisher := new(MockPublisher)
	orders := services.NewOrderService(store.orders, publisher)

	_, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(2)})
	require.NoError(t, err)
	_, err = carts.Add(ctx, "u1", services.AddToCartInput{ProductID: hat.ID})
	require.NoError(t, err)
	_, err = carts.Add(ctx, "u2", services.AddToCartInput{ProductID: hat.ID, Quantity: intPtr(9)})
	require.NoError(t, err)

	publisher.On("PublishOrderCreated", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil).Once()

	order, err := orders.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, decimal.NewFromInt(25).Equal(order.Total), "got %s", order.Total)
	require.Len(t, order.Items, 2)
	for _, it := range order.Items {
		require.NotNil(t, it.OrderID)
		assert.Equal(t, order.ID, *it.OrderID)
		assert.True(t, it.UnitPrice.Valid)
	}
	publisher.AssertExpectations(t)

	// The consumed items left the cart; the other user's cart is untouched.
	list, err := carts.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	list, err = carts.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	// A second checkout has nothing to consume.
	_, err = orders.CreateOrder(ctx, "u1")
	assert.True(t, errors.Is(err, apperrors.ErrCartEmpty))
	publisher.AssertNumberOfCalls(t, "PublishOrderCreated", 1)
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	store := newMemoryStore()
	orders := services.NewOrderService(store.orders, nil)

	_, err := orders.CreateOrder(context.Background(), "u1")
	assert.True(t, errors.Is(err, apperrors.ErrCartEmpty))

	list, err := orders.ListOrders(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestOrderService_CreateOrder_MissingProduct(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)
	gone := store.addProduct(t, "Discontinued", 99)
	carts := cartService(store, false)
	orders := services.NewOrderService(store.orders, nil)

	_, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(3)})
	require.NoError(t, err)
	goneItem, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: gone.ID})
	require.NoError(t, err)
	require.NoError(t, store.products.Delete(ctx, gone.ID))

	order, err := orders.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(order.Total), "got %s", order.Total)
	require.Len(t, order.Items, 2)

	for _, it := range order.Items {
		require.NotNil(t, it.OrderID, "every item read is linked")
		if it.ID == goneItem.ID {
			assert.False(t, it.UnitPrice.Valid)
		}
	}
}

func TestOrderService_CreateOrder_PublishFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)
	carts := cartService(store, false)

	publisher := new(MockPublisher)
	publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(fmt.Errorf("broker down")).Once()
	orders := services.NewOrderService(store.orders, publisher)

	_, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID})
	require.NoError(t, err)

	order, err := orders.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	publisher.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Conflict(t *testing.T) {
	orders := services.NewOrderService(conflictingOrderRepository{}, nil)

	_, err := orders.CreateOrder(context.Background(), "u1")
	assert.True(t, errors.Is(err, apperrors.ErrCartChanged))
}

func TestOrderService_GetAndList(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)
	carts := cartService(store, false)
	orders := services.NewOrderService(store.orders, nil)

	_, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID})
	require.NoError(t, err)
	first, err := orders.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	tick()
	_, err = carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID, Quantity: intPtr(2)})
	require.NoError(t, err)
	second, err := orders.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	list, err := orders.ListOrders(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, second.ID, list.Items[0].ID)
	assert.Equal(t, first.ID, list.Items[1].ID)

	got, err := orders.GetOrder(ctx, "u1", first.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, shirt.ID, got.Items[0].Product.ID)

	_, err = orders.GetOrder(ctx, "u2", first.ID)
	assert.True(t, errors.Is(err, apperrors.ErrOrderNotFound))
	_, err = orders.GetOrder(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, apperrors.ErrOrderNotFound))
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	shirt := store.addProduct(t, "Shirt", 10)
	carts := cartService(store, false)

	publisher := new(MockPublisher)
	publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil)
	orders := services.NewOrderService(store.orders, publisher)

	_, err := carts.Add(ctx, "u1", services.AddToCartInput{ProductID: shirt.ID})
	require.NoError(t, err)
	order, err := orders.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	_, err = orders.UpdateOrderStatus(ctx, "u1", order.ID, "shipped")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = orders.UpdateOrderStatus(ctx, "u2", order.ID, "completed")
	assert.True(t, errors.Is(err, apperrors.ErrOrderNotFound))

	_, err = orders.UpdateOrderStatus(ctx, "u1", order.ID, "pending")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStatusTransition))

	publisher.On("PublishOrderStatusChanged", mock.Anything, mock.AnythingOfType("*models.Order"), models.OrderStatusPending).
		Return(nil).Once()
	updated, err := orders.UpdateOrderStatus(ctx, "u1", order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	// Terminal statuses do not move.
	_, err = orders.UpdateOrderStatus(ctx, "u1", order.ID, "completed")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStatusTransition))
	publisher.AssertExpectations(t)
}
