package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/repo"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const (
	MsgSizeRequired   = "Shoe size is required"
	MsgBadQuantity    = "Quantity must be at least 1"
	MsgNotInCart      = "Product not found in your cart"
	MsgSizeNotOffered = "This product is not available in size %d"
)

type CartService struct {
	Repo *repo.GormRepo
}

type AddToCartInput struct {
	ProductID uuid.UUID
	Size      *int64
	Quantity  int64
}

func (s *CartService) Get(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.Repo.GetCart(ctx, userID)
}

// Add puts a product in the cart, merging with an existing line of the same
// size. It returns the whole cart.
func (s *CartService) Add(ctx context.Context, userID uuid.UUID, in AddToCartInput) ([]models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add")

	if in.Size == nil {
		return nil, apperr.Validation(MsgSizeRequired)
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return nil, apperr.Validation(MsgBadQuantity)
	}

	p, err := s.Repo.FindProduct(ctx, in.ProductID)
	if err != nil {
		l.Warn("add_to_cart_error", "status", 404, "product_id", in.ProductID.String())
		return nil, notFound(err, MsgProductNotFound)
	}
	if !p.HasSize(*in.Size) {
		return nil, apperr.Validationf(MsgSizeNotOffered, *in.Size)
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: p.ID,
		Size:      *in.Size,
		Quantity:  in.Quantity,
	}
	if err := s.Repo.AddToCart(ctx, item); err != nil {
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Remove drops a product from the cart. A zero size removes every size.
func (s *CartService) Remove(ctx context.Context, userID, productID uuid.UUID, size int64) ([]models.CartItem, error) {
	n, err := s.Repo.RemoveFromCart(ctx, userID, productID, size)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.NotFound(MsgNotInCart)
	}
	return s.Get(ctx, userID)
}

// Decrement lowers the line's quantity by one and removes it at zero.
func (s *CartService) Decrement(ctx context.Context, userID, productID uuid.UUID, size int64) ([]models.CartItem, error) {
	if size <= 0 {
		return nil, apperr.Validation(MsgSizeRequired)
	}
	if _, _, err := s.Repo.DecrementCartLine(ctx, userID, productID, size); err != nil {
		return nil, notFound(err, MsgNotInCart)
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.Repo.ClearCart(ctx, userID)
}
