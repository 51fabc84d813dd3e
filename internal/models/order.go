package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus validates a client supplied status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// CanTransitionTo reports whether an order in status s may move to next.
// Only pending orders move, and only to a terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusPending && (next == OrderStatusCompleted || next == OrderStatusCancelled)
}

// Order represents a customer order assembled from cart items.
type Order struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string          `json:"userId" gorm:"type:varchar(36);not null;index"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Status    OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Items     []CartItem      `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
