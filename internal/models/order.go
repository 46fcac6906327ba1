package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderFlow = map[OrderStatus]int{
	OrderPending:    0,
	OrderProcessing: 1,
	OrderShipped:    2,
	OrderCompleted:  3,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderFlow[s]
	return ok || s == OrderCancelled
}

// CanTransition allows forward moves along pending, processing, shipped,
// completed, and cancellation of anything not yet completed or cancelled.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s == OrderCompleted || s == OrderCancelled || !to.Valid() {
		return false
	}
	if to == OrderCancelled {
		return true
	}
	return orderFlow[to] > orderFlow[s]
}

type ShippingDetails struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"                              json:"id"`
	UserID           uuid.UUID       `gorm:"<-:create;type:uuid;not null;index"                json:"user_id"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"    json:"products"`
	Amount           int64           `gorm:"<-:create;not null"                                json:"amount"`
	Currency         string          `gorm:"<-:create;type:varchar(8);not null"                json:"currency"`
	PaymentSessionID string          `gorm:"<-:create;uniqueIndex;not null"                    json:"payment_session_id"`
	PaymentIntentID  string          `gorm:"<-:create"                                         json:"payment_intent_id"`
	Status           OrderStatus     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Shipping         ShippingDetails `gorm:"embedded;embeddedPrefix:shipping_"                 json:"shipping_details"`
	CreatedAt        time.Time       `gorm:"<-:create;index"                                   json:"created_at"`
	UpdatedAt        time.Time       `                                                         json:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"          json:"-"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"      json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"            json:"product_id"`
	Name      string          `gorm:"not null"                      json:"name"`
	Image     string          `                                     json:"image"`
	Quantity  int64           `gorm:"not null"                      json:"quantity"`
	Size      int64           `gorm:"not null"                      json:"size"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null"   json:"price"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
