// Package events defines the order events published after checkout and status
// changes, and adapts a JSON message client to services.OrderEventPublisher.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	amqp "github.com/streadway/amqp"
)

// Event types, carried in the AMQP Type property.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderItem is one line of an OrderCreated event.
type OrderItem struct {
	CartItemID string              `json:"cartItemId"`
	ProductID  string              `json:"productId"`
	Quantity   int                 `json:"quantity"`
	UnitPrice  decimal.NullDecimal `json:"unitPrice"`
}

// OrderCreated is published once an order has been committed.
type OrderCreated struct {
	OrderID    string             `json:"orderId"`
	UserID     string             `json:"userId"`
	Total      decimal.Decimal    `json:"total"`
	Status     models.OrderStatus `json:"status"`
	Items      []OrderItem        `json:"items"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// OrderStatusChanged is published when an order leaves pending.
type OrderStatusChanged struct {
	OrderID    string             `json:"orderId"`
	UserID     string             `json:"userId"`
	From       models.OrderStatus `json:"from"`
	To         models.OrderStatus `json:"to"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// NewOrderCreated builds the event for order.
func NewOrderCreated(order *models.Order) OrderCreated {
	items := make([]OrderItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderItem{
			CartItemID: it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}
	return OrderCreated{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Total:      order.Total,
		Status:     order.Status,
		Items:      items,
		OccurredAt: time.Now().UTC(),
	}
}

// JSONPublisher sends a typed JSON message. *rabbitmq.Client implements it.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, eventType string, payload interface{}) error
}

// Publisher turns order changes into events.
type Publisher struct {
	client JSONPublisher
}

// NewPublisher creates a Publisher sending through client.
func NewPublisher(client JSONPublisher) *Publisher {
	return &Publisher{client: client}
}

// PublishOrderCreated sends an order.created event.
func (p *Publisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.client.PublishJSON(ctx, TypeOrderCreated, NewOrderCreated(order))
}

// PublishOrderStatusChanged sends an order.status_changed event.
func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	return p.client.PublishJSON(ctx, TypeOrderStatusChanged, OrderStatusChanged{
		OrderID:    order.ID,
		UserID:     order.UserID,
		From:       previous,
		To:         order.Status,
		OccurredAt: time.Now().UTC(),
	})
}

// Decode parses body according to eventType.
func Decode(eventType string, body []byte) (interface{}, error) {
	switch eventType {
	case TypeOrderCreated:
		var e OrderCreated
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", eventType, err)
		}
		return e, nil
	case TypeOrderStatusChanged:
		var e OrderStatusChanged
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", eventType, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

// LogDelivery is a consumer handler that decodes and logs order events.
func LogDelivery(msg amqp.Delivery) error {
	event, err := Decode(msg.Type, msg.Body)
	if err != nil {
		return err
	}
	switch e := event.(type) {
	case OrderCreated:
		log.Printf("Order event: %s order=%s user=%s items=%d total=%s", msg.Type, e.OrderID, e.UserID, len(e.Items), e.Total.StringFixed(2))
	case OrderStatusChanged:
		log.Printf("Order event: %s order=%s %s -> %s", msg.Type, e.OrderID, e.From, e.To)
	}
	return nil
}
