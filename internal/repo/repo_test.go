package repo

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/query"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))
	return New(db)
}

func mkUser(t *testing.T, r *GormRepo, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: "N", Email: email, PasswordHash: "h", Role: role, Active: true}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func mkProduct(t *testing.T, r *GormRepo, seller uuid.UUID, price string, sizes ...int64) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        "Runner",
		Description: "light",
		Price:       decimal.RequireFromString(price),
		Category:    models.CategoryRunning,
		Sizes:       pq.Int64Array(sizes),
		SellerID:    seller,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func TestUsers(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := mkUser(t, r, "a@x.com", models.RoleUser)

	err := r.CreateUser(ctx, &models.User{Name: "B", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := r.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = r.FindUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	upd, err := r.UpdateUser(ctx, u.ID, map[string]any{"name": "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", upd.Name)

	changed := time.Now().UTC()
	require.NoError(t, r.UpdatePassword(ctx, u.ID, "h2", changed))
	got, err = r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)
	require.NotNil(t, got.PasswordChangedAt)

	require.NoError(t, r.DeactivateUser(ctx, u.ID))
	assert.ErrorIs(t, r.DeactivateUser(ctx, u.ID), ErrNotFound)
	got, err = r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = r.UpdateUser(ctx, u.ID, map[string]any{"name": "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUsers_SkipsInactive(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	mkUser(t, r, "a@x.com", models.RoleUser)
	b := mkUser(t, r, "b@x.com", models.RoleSeller)
	require.NoError(t, r.DeactivateUser(ctx, b.ID))

	s := query.MustSchema(&models.User{}, query.SchemaConfig{Hidden: models.UserHiddenColumns})
	res, err := r.ListUsers(ctx, query.New(s, url.Values{}, query.Options{}).Build())
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	assert.Equal(t, "a@x.com", res.Items[0].Email)
}

func TestCart(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := mkUser(t, r, "c@x.com", models.RoleUser)
	p := mkProduct(t, r, uuid.New(), "50", 41, 42)

	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Size: 42, Quantity: 1}))
	merged := &models.CartItem{UserID: u.ID, ProductID: p.ID, Size: 42, Quantity: 2}
	require.NoError(t, r.AddToCart(ctx, merged))
	assert.EqualValues(t, 3, merged.Quantity)
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Size: 41, Quantity: 1}))

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, p.Name, items[0].Product.Name)

	deleted, item, err := r.DecrementCartLine(ctx, u.ID, p.ID, 42)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.EqualValues(t, 2, item.Quantity)

	_, _, err = r.DecrementCartLine(ctx, u.ID, p.ID, 39)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := r.RemoveFromCart(ctx, u.ID, p.ID, 41)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, r.ClearCart(ctx, u.ID))
	items, err = r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddToCart_ConcurrentFirstAdds(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := mkUser(t, r, "race@x.com", models.RoleUser)
	p := mkProduct(t, r, uuid.New(), "50", 42)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Size: 42, Quantity: 1})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, n, items[0].Quantity)
}

func TestDeleteProduct_RemovesCartLines(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := mkUser(t, r, "d@x.com", models.RoleUser)
	p := mkProduct(t, r, uuid.New(), "10", 40)
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Size: 40, Quantity: 1}))

	require.NoError(t, r.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, r.DeleteProduct(ctx, p.ID), ErrNotFound)

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateProduct(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	p := mkProduct(t, r, uuid.New(), "10", 40)
	got, err := r.UpdateProduct(ctx, p.ID, map[string]any{"price": decimal.RequireFromString("12.5"), "on_sale": true})
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, got.OnSale)

	_, err = r.UpdateProduct(ctx, uuid.New(), map[string]any{"on_sale": true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteCheckout_Idempotent(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := mkUser(t, r, "e@x.com", models.RoleUser)
	p := mkProduct(t, r, uuid.New(), "25", 42)
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Size: 42, Quantity: 2}))

	s := &models.CheckoutSession{
		ID:       "cs_test_1",
		UserID:   u.ID,
		Lines:    []models.CheckoutLine{{ProductID: p.ID, Name: p.Name, Size: 42, Quantity: 2, Price: p.Price}},
		Amount:   6000,
		Currency: "usd",
		Status:   models.CheckoutOpen,
	}
	require.NoError(t, r.SaveCheckoutSession(ctx, s))

	build := func(s *models.CheckoutSession) *models.Order {
		o := &models.Order{UserID: s.UserID, Amount: s.Amount, Currency: s.Currency, Status: models.OrderProcessing}
		for _, l := range s.Lines {
			o.Items = append(o.Items, models.OrderItem{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, Size: l.Size, Price: l.Price})
		}
		return o
	}

	first, created, err := r.CompleteCheckout(ctx, s.ID, build)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, first.Items, 1)

	second, created, err := r.CompleteCheckout(ctx, s.ID, build)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var n int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	stored, err := r.FindCheckoutSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutCompleted, stored.Status)
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, first.ID, *stored.OrderID)

	_, _, err = r.CompleteCheckout(ctx, "cs_unknown", build)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetOrderStatus(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	o := &models.Order{UserID: uuid.New(), Amount: 100, Currency: "usd", PaymentSessionID: "cs_1", Status: models.OrderPending}
	require.NoError(t, r.DB.Create(o).Error)

	check := func(from models.OrderStatus) error {
		if !from.CanTransition(models.OrderShipped) {
			return apperr.Validation("bad transition")
		}
		return nil
	}
	got, err := r.SetOrderStatus(ctx, o.ID, check, models.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, got.Status)

	_, err = r.SetOrderStatus(ctx, o.ID, check, models.OrderShipped)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = r.SetOrderStatus(ctx, uuid.New(), check, models.OrderShipped)
	assert.True(t, errors.Is(err, ErrNotFound))
}
