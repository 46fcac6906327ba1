package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/query"
)

func (r *GormRepo) SaveCheckoutSession(ctx context.Context, s *models.CheckoutSession) error {
	return translate(r.DB.WithContext(ctx).Create(s).Error)
}

func (r *GormRepo) FindCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	var s models.CheckoutSession
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// OrderBuilder turns the stored checkout snapshot into the order to create.
type OrderBuilder func(s *models.CheckoutSession) *models.Order

// CompleteCheckout creates the order for a paid session, marks the session
// completed and empties the buyer's cart in one transaction. A session that
// was already completed yields its existing order and created=false.
func (r *GormRepo) CompleteCheckout(ctx context.Context, sessionID string, build OrderBuilder) (*models.Order, bool, error) {
	var (
		order   *models.Order
		created bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s models.CheckoutSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", sessionID).First(&s).Error; err != nil {
			return err
		}

		var existing models.Order
		err := tx.Preload("Items").Where("payment_session_id = ?", sessionID).First(&existing).Error
		switch {
		case err == nil:
			order = &existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		order = build(&s)
		order.PaymentSessionID = sessionID
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if err := tx.Model(&s).Updates(map[string]any{
			"status":   models.CheckoutCompleted,
			"order_id": order.ID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", s.UserID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return order, created, nil
}

func (r *GormRepo) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormRepo) FindOrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("payment_session_id = ?", sessionID).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// SetOrderStatus applies check to the current status under a row lock.
func (r *GormRepo) SetOrderStatus(ctx context.Context, id uuid.UUID, check func(from models.OrderStatus) error, to models.OrderStatus) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&o).Error; err != nil {
			return err
		}
		if err := check(o.Status); err != nil {
			return err
		}
		if err := tx.Model(&o).Update("status", to).Error; err != nil {
			return err
		}
		return tx.Preload("Items").Where("id = ?", id).First(&o).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, b *query.Builder, opts ...query.RunOption) (*query.Result[models.Order], error) {
	return query.Run[models.Order](ctx, r.DB, b, append(opts, query.Preload("Items"))...)
}
