package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                              json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_line;not null"      json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_line;not null"      json:"product_id"`
	Size      int64     `gorm:"uniqueIndex:idx_cart_line;not null"                json:"size"`
	Quantity  int64     `gorm:"not null;default:1;check:quantity > 0"             json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID"                              json:"product,omitempty"`
	CreatedAt time.Time `gorm:"<-:create"                                         json:"created_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}
