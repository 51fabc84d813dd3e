package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

// publishTimeout bounds how long a committed request waits on the broker.
const publishTimeout = 5 * time.Second

// OrderEventPublisher announces order changes to other systems. Publishing is
// best effort and happens after the change is committed.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error
}

// UpdateStatusInput is the order status payload.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// OrderList is the user's order history.
type OrderList struct {
	Items []models.Order `json:"items"`
	Total int            `json:"total"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	publisher OrderEventPublisher
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case no events are sent.
func NewOrderService(orderRepo repositories.OrderRepository, publisher OrderEventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
	}
}

// CreateOrder turns the user's cart into a pending order. Every unlinked item
// is linked to the order; items whose product no longer exists are linked but
// left out of the total.
func (s *OrderService) CreateOrder(ctx context.Context, userID string) (*models.Order, error) {
	order, err := s.orderRepo.CreateFromCart(ctx, userID, buildOrder)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, apperrors.ErrCartChanged.Wrap(err)
		}
		if _, ok := apperrors.From(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create order for user %s: %w", userID, err)
	}
	log.Printf("Created order %s for user %s with %d items, total %s", order.ID, userID, len(order.Items), order.Total.StringFixed(2))

	s.publish(ctx, order.ID, func(ctx context.Context) error {
		return s.publisher.PublishOrderCreated(ctx, order)
	})
	return order, nil
}

// buildOrder computes the total over the items whose product resolved.
func buildOrder(items []models.CartItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperrors.ErrCartEmpty
	}
	total := decimal.Zero
	for _, it := range items {
		if it.Product == nil {
			log.Printf("Cart item %s references missing product %s, excluded from total", it.ID, it.ProductID)
			continue
		}
		total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return &models.Order{
		Total:  total,
		Status: models.OrderStatusPending,
	}, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) (*OrderList, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return &OrderList{Items: orders, Total: len(orders)}, nil
}

// GetOrder returns one of the user's orders with its items. Orders of other
// users are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	if order.UserID != userID {
		return nil, apperrors.ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus moves a pending order to completed or cancelled.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, userID, orderID, status string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, apperrors.ErrValidation.WithDetails(map[string]string{
			"status": "status should be one of pending, completed, cancelled",
		})
	}

	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	previous := order.Status
	if !previous.CanTransitionTo(next) {
		return nil, apperrors.ErrInvalidStatusTransition.WithMessage(
			fmt.Sprintf("order status cannot change from %s to %s", previous, next))
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, previous, next); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, apperrors.ErrInvalidStatusTransition.Wrap(err)
		}
		return nil, fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}
	order.Status = next
	order.UpdatedAt = time.Now()
	log.Printf("Order %s moved from %s to %s", orderID, previous, next)

	s.publish(ctx, orderID, func(ctx context.Context) error {
		return s.publisher.PublishOrderStatusChanged(ctx, order, previous)
	})
	return order, nil
}

// publish runs fn with a bounded context detached from the request's
// cancellation. Failures are logged only.
func (s *OrderService) publish(ctx context.Context, orderID string, fn func(context.Context) error) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("Warning: failed to publish event for order %s: %v", orderID, err)
	}
}
