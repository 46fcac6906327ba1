package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shoe_store/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0)
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart merges quantities when the same product and size is already in
// the cart. The merge is a single upsert on the cart line key, so concurrent
// first adds of one line cannot collide.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	return translate(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "size"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
			}),
		}).Create(item).Error
		if err != nil {
			return err
		}
		var line models.CartItem
		if err := tx.Where("user_id = ? AND product_id = ? AND size = ?", item.UserID, item.ProductID, item.Size).
			First(&line).Error; err != nil {
			return err
		}
		*item = line
		return nil
	}))
}

// RemoveFromCart drops one product line. A zero size drops every size.
func (r *GormRepo) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID, size int64) (int64, error) {
	tx := r.DB.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID)
	if size != 0 {
		tx = tx.Where("size = ?", size)
	}
	res := tx.Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DecrementCartLine lowers a line by one and deletes it at zero.
func (r *GormRepo) DecrementCartLine(ctx context.Context, userID, productID uuid.UUID, size int64) (bool, *models.CartItem, error) {
	var item models.CartItem
	deleted := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ? AND size = ?", userID, productID, size).
			First(&item).Error; err != nil {
			return err
		}
		if item.Quantity > 1 {
			item.Quantity--
			return tx.Model(&item).Update("quantity", item.Quantity).Error
		}
		deleted = true
		return tx.Delete(&item).Error
	})
	if err != nil {
		return false, nil, translate(err)
	}
	return deleted, &item, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
