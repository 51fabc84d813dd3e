package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxCartItemQuantity bounds the quantity of a single cart row, including
// the sum produced by merging repeated adds.
const MaxCartItemQuantity = 10000

// CartItem is a product a user intends to buy. While OrderID is nil the item
// belongs to the user's cart; once linked it belongs to the order and is frozen.
type CartItem struct {
	ID            string              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string              `json:"userId" gorm:"type:varchar(36);not null;index"`
	ProductID     string              `json:"productId" gorm:"type:varchar(36);not null;index"`
	Product       *Product            `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity      int                 `json:"quantity" gorm:"not null"`
	SelectedSize  *string             `json:"selectedSize" gorm:"type:varchar(50)"`
	SelectedColor *string             `json:"selectedColor" gorm:"type:varchar(50)"`
	OrderID       *string             `json:"orderId" gorm:"type:varchar(36);index"`
	UnitPrice     decimal.NullDecimal `json:"unitPrice" gorm:"type:decimal(12,2)"` // price captured at order linkage
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Linked reports whether the item has been consumed by an order.
func (i *CartItem) Linked() bool {
	return i.OrderID != nil
}

// SameVariant reports whether the item carries the given size and colour.
func (i *CartItem) SameVariant(size, color *string) bool {
	return equalOptional(i.SelectedSize, size) && equalOptional(i.SelectedColor, color)
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
