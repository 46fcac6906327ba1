package models

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderShipped, true},
		{OrderProcessing, OrderShipped, true},
		{OrderShipped, OrderCompleted, true},
		{OrderShipped, OrderProcessing, false},
		{OrderProcessing, OrderProcessing, false},
		{OrderProcessing, OrderCancelled, true},
		{OrderCompleted, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
		{OrderPending, OrderStatus("lost"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestUser_ChangedPasswordAfter(t *testing.T) {
	t.Parallel()

	u := User{}
	assert.False(t, u.ChangedPasswordAfter(time.Now()))

	changed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	u.PasswordChangedAt = &changed

	assert.True(t, u.ChangedPasswordAfter(changed.Add(-time.Hour)))
	assert.False(t, u.ChangedPasswordAfter(changed))
	assert.False(t, u.ChangedPasswordAfter(changed.Add(time.Minute)))

	// whole seconds: a token from earlier in the same second still passes
	stored := changed.Add(-time.Second).Add(300 * time.Millisecond)
	u.PasswordChangedAt = &stored
	assert.False(t, u.ChangedPasswordAfter(changed.Add(-time.Second)))
	assert.True(t, u.ChangedPasswordAfter(changed.Add(-1500*time.Millisecond)))
}

func TestToCents(t *testing.T) {
	t.Parallel()

	assert.EqualValues(t, 12999, ToCents(decimal.RequireFromString("129.99")))
	assert.EqualValues(t, 100, ToCents(decimal.NewFromInt(1)))
	assert.EqualValues(t, 1, ToCents(decimal.RequireFromString("0.005")))
}

func TestEnums(t *testing.T) {
	t.Parallel()

	assert.True(t, CategoryRunning.Valid())
	assert.False(t, Category("Sandals").Valid())
	assert.True(t, RoleSeller.Valid())
	assert.False(t, Role("root").Valid())
}

func TestMigrateAndArrayColumns(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	seller := User{Name: "S", Email: "s@x.com", PasswordHash: "h", Role: RoleSeller}
	require.NoError(t, db.Create(&seller).Error)
	require.NotZero(t, seller.ID)

	p := Product{
		Name:        "Runner",
		Description: "fast",
		Price:       decimal.RequireFromString("99.50"),
		Category:    CategoryRunning,
		Sizes:       pq.Int64Array{40, 41, 42},
		SellerID:    seller.ID,
	}
	require.NoError(t, db.Create(&p).Error)

	var got Product
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, pq.Int64Array{40, 41, 42}, got.Sizes)
	assert.Empty(t, got.Images)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("99.5")))
	assert.True(t, got.HasSize(41))
	assert.False(t, got.HasSize(39))

	var u User
	require.NoError(t, db.First(&u, "id = ?", seller.ID).Error)
	assert.True(t, u.Active)
}
