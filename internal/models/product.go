package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryMen        Category = "Men's Shoes"
	CategoryWomen      Category = "Women's Shoes"
	CategoryBasketball Category = "Basketball Shoes"
	CategoryRunning    Category = "Running Shoes"
)

var Categories = []Category{CategoryMen, CategoryWomen, CategoryBasketball, CategoryRunning}

func (c Category) Valid() bool { return slices.Contains(Categories, c) }

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"                     json:"id"`
	Name        string          `gorm:"not null"                                 json:"name"`
	Description string          `gorm:"not null"                                 json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"              json:"price"`
	Category    Category        `gorm:"type:varchar(32);not null;index"          json:"category"`
	Sizes       pq.Int64Array   `gorm:"type:integer[]"                           json:"sizes"`
	Images      pq.StringArray  `gorm:"type:text[]"                              json:"images"`
	OnSale      bool            `gorm:"not null;default:false"                   json:"on_sale"`
	SellerID    uuid.UUID       `gorm:"<-:create;type:uuid;not null;index"       json:"seller_id"`
	MediaFolder string          `                                                json:"-"`
	CreatedAt   time.Time       `gorm:"<-:create;index"                          json:"created_at"`
	UpdatedAt   time.Time       `                                                json:"updated_at"`
}

var ProductHiddenColumns = []string{"media_folder"}

// ProductSearchColumns are matched by the free-text search parameter.
var ProductSearchColumns = []string{"name", "category", "description"}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.Images == nil {
		p.Images = pq.StringArray{}
	}
	if p.Sizes == nil {
		p.Sizes = pq.Int64Array{}
	}
	return nil
}

func (p *Product) HasSize(size int64) bool {
	return slices.Contains(p.Sizes, size)
}

// UnitAmount is the price in the currency's minor unit.
func (p *Product) UnitAmount() int64 {
	return ToCents(p.Price)
}

func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
