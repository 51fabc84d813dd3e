package models

import "time"

// User represents a registered customer of the store.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(100);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialised
	FirstName string    `json:"firstName" gorm:"type:varchar(100);not null"`
	LastName  string    `json:"lastName" gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
