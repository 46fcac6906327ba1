package httpserver

import (
	"github.com/shopspring/decimal"
)

type SignupRequest struct {
	Name            string `json:"name"            validate:"required"                  msg:"Please tell us your name"`
	Email           string `json:"email"           validate:"required,email"            msg:"Please enter a valid email"`
	Password        string `json:"password"        validate:"required,min=8"            msg:"Password must be at least 8 characters long"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password" msg:"Passwords do not match"`
	Role            string `json:"role"            validate:"omitempty,oneof=user seller" msg:"Role is either: user, seller"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required" msg:"Please provide email and password"`
	Password string `json:"password" validate:"required" msg:"Please provide email and password"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"                  msg:"Please provide your current password"`
	Password        string `json:"password"        validate:"required,min=8"            msg:"Password must be at least 8 characters long"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password" msg:"Passwords do not match"`
}

type UpdateMeRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"    validate:"omitnil,email" msg:"Please enter a valid email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type ProductRequest struct {
	Name        string           `json:"name"        validate:"required"             msg:"A product must have a name"`
	Description string           `json:"description" validate:"required"             msg:"A product must have a description"`
	Price       *decimal.Decimal `json:"price"       validate:"required"             msg:"A product must have a price"`
	Category    string           `json:"category"    validate:"required"             msg:"Category is either: Men's Shoes, Women's Shoes, Basketball Shoes, Running Shoes"`
	Sizes       []int64          `json:"sizes"       validate:"required,min=1,dive,gt=0" msg:"A product must have at least one size."`
	OnSale      bool             `json:"on_sale"`
}

type ProductPatchRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Sizes       []int64          `json:"sizes"   validate:"omitempty,dive,gt=0" msg:"A product must have at least one size."`
	OnSale      *bool            `json:"on_sale"`
}

type AddToCartRequest struct {
	Size     *int64 `json:"size"`
	Quantity int64  `json:"quantity" validate:"gte=0" msg:"Quantity must be at least 1"`
}

type SetOrderStatusRequest struct {
	Status string `json:"status" validate:"required" msg:"Status is either: pending, processing, shipped, completed, cancelled"`
}
