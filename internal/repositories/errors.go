package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrRecordNotFound is wrapped by every lookup or conditional write that
	// matched no row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write lost a race with a
	// concurrent change.
	ErrConflict = errors.New("concurrent modification")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrQuantityLimit is returned when a cart row would exceed
	// models.MaxCartItemQuantity.
	ErrQuantityLimit = errors.New("cart item quantity limit exceeded")
)

// lockForUpdate adds SELECT ... FOR UPDATE on dialects that support row locks.
// SQLite serialises writers on its own.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func whereOptional(db *gorm.DB, column string, v *string) *gorm.DB {
	if v == nil {
		return db.Where(column + " IS NULL")
	}
	return db.Where(column+" = ?", *v)
}
