package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutStatus string

const (
	CheckoutOpen      CheckoutStatus = "open"
	CheckoutCompleted CheckoutStatus = "completed"
)

// CheckoutLine is the cart line as it was priced when the payment session
// was opened.
type CheckoutLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Size      int64           `json:"size"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CheckoutSession struct {
	ID        string         `gorm:"primaryKey;type:varchar(255)"          json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index"              json:"user_id"`
	Lines     []CheckoutLine `gorm:"type:jsonb;serializer:json;not null"   json:"lines"`
	Amount    int64          `gorm:"not null"                              json:"amount"`
	Currency  string         `gorm:"type:varchar(8);not null"              json:"currency"`
	Status    CheckoutStatus `gorm:"type:varchar(16);not null;default:'open'" json:"status"`
	OrderID   *uuid.UUID     `gorm:"type:uuid"                             json:"order_id,omitempty"`
	CreatedAt time.Time      `gorm:"<-:create"                             json:"created_at"`
	UpdatedAt time.Time      `                                             json:"updated_at"`
}
