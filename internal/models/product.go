package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue entry. Cart and order logic only read it.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title       string          `json:"title" gorm:"type:varchar(100);not null" validate:"required,min=2,max=100"`
	Description string          `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0" validate:"gte=0"`
	Category    string          `json:"category" gorm:"type:varchar(100);index"`
	Sizes       []string        `json:"sizes" gorm:"type:text;serializer:json"`
	Colors      []string        `json:"colors" gorm:"type:text;serializer:json"`
	Images      []string        `json:"images" gorm:"type:text;serializer:json"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// HasSize reports whether size is one of the product's size options. A product
// without size options accepts any value.
func (p *Product) HasSize(size string) bool {
	return len(p.Sizes) == 0 || contains(p.Sizes, size)
}

// HasColor reports whether color is one of the product's colour options. A
// product without colour options accepts any value.
func (p *Product) HasColor(color string) bool {
	return len(p.Colors) == 0 || contains(p.Colors, color)
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
