package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// All returns every model the store migrates, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&CheckoutSession{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
