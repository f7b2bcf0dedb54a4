package coupons

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	"github.com/havenandoak/storefront-backend/pkg/types"
)

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	coupons := `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  discount_type TEXT NOT NULL,
  percent_off NUMERIC NOT NULL DEFAULT 0,
  amount_off_cents INTEGER NOT NULL DEFAULT 0,
  min_order_cents INTEGER NOT NULL DEFAULT 0,
  max_discount_cents INTEGER NOT NULL DEFAULT 0,
  max_usage_count INTEGER NOT NULL DEFAULT 0,
  max_usage_per_user INTEGER NOT NULL DEFAULT 0,
  usage_count INTEGER NOT NULL DEFAULT 0,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  user_id TEXT,
  currency TEXT NOT NULL DEFAULT 'USD',
  payment_method TEXT NOT NULL DEFAULT 'cod',
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  coupon_id TEXT,
  coupon_code TEXT,
  checkout_session_id TEXT,
  gateway_payment_id TEXT,
  delivery_address TEXT NOT NULL,
  estimated_delivery DATETIME NOT NULL,
  tracking_number TEXT,
  carrier TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(coupons).Error)
	require.NoError(t, db.Exec(orders).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM orders")
		db.Exec("DELETE FROM coupons")
	})
	return db
}

func seedCoupon(t *testing.T, db *gorm.DB, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	require.NoError(t, db.Create(coupon).Error)
	return coupon
}

func TestRepoFindByCodeNormalizesInput(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)

	seedCoupon(t, db, &models.Coupon{
		Code:         "SAVE10",
		Title:        "Summer sale",
		DiscountType: enums.DiscountTypePercentage,
		PercentOff:   decimal.NewFromInt(10),
		ValidFrom:    time.Now().Add(-time.Hour),
		ValidUntil:   time.Now().Add(time.Hour),
		Active:       true,
	})

	found, err := repo.FindByCode(context.Background(), "  save10 ")
	require.NoError(t, err)
	require.Equal(t, "SAVE10", found.Code)

	_, err = repo.FindByCode(context.Background(), "MISSING")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepoIncrementUsageIfUnderCap(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)

	capped := seedCoupon(t, db, &models.Coupon{
		Code:          "CAP2",
		Title:         "Two uses only",
		DiscountType:  enums.DiscountTypeFixed,
		AmountOffCents: 500,
		MaxUsageCount: 2,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		Active:        true,
	})

	ok, err := repo.IncrementUsageIfUnderCap(db, capped.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.IncrementUsageIfUnderCap(db, capped.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// Cap reached, the conditional update matches no rows.
	ok, err = repo.IncrementUsageIfUnderCap(db, capped.ID)
	require.NoError(t, err)
	require.False(t, ok)

	reloaded, err := repo.FindByID(context.Background(), capped.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.UsageCount)
}

func TestRepoIncrementUsageCapUnderConcurrency(t *testing.T) {
	db := setupCouponsTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite allows one writer; serialize at the pool so concurrent
	// attempts queue instead of failing with a busy error.
	sqlDB.SetMaxOpenConns(1)
	repo := NewRepository(db)

	const (
		attempts = 8
		capLimit = 3
	)
	capped := seedCoupon(t, db, &models.Coupon{
		Code:           "CAP3",
		Title:          "Three uses only",
		DiscountType:   enums.DiscountTypeFixed,
		AmountOffCents: 500,
		MaxUsageCount:  capLimit,
		ValidFrom:      time.Now().Add(-time.Hour),
		ValidUntil:     time.Now().Add(time.Hour),
		Active:         true,
	})

	var wg sync.WaitGroup
	results := make([]bool, attempts)
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot], errs[slot] = repo.IncrementUsageIfUnderCap(db, capped.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		if results[i] {
			successes++
		}
	}
	require.Equal(t, capLimit, successes)

	reloaded, err := repo.FindByID(context.Background(), capped.ID)
	require.NoError(t, err)
	require.Equal(t, capLimit, reloaded.UsageCount)
}

func TestRepoIncrementUnlimitedCoupon(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)

	unlimited := seedCoupon(t, db, &models.Coupon{
		Code:          "FOREVER",
		Title:         "No cap",
		DiscountType:  enums.DiscountTypePercentage,
		PercentOff:    decimal.NewFromInt(5),
		MaxUsageCount: 0,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		Active:        true,
	})

	for i := 0; i < 3; i++ {
		ok, err := repo.IncrementUsageIfUnderCap(db, unlimited.ID)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestRepoCountOrdersByCouponUser(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)

	coupon := seedCoupon(t, db, &models.Coupon{
		Code:         "ONCE",
		Title:        "Single use",
		DiscountType: enums.DiscountTypePercentage,
		PercentOff:   decimal.NewFromInt(10),
		ValidFrom:    time.Now().Add(-time.Hour),
		ValidUntil:   time.Now().Add(time.Hour),
		Active:       true,
	})

	userID := uuid.New()
	otherUser := uuid.New()
	for i, uid := range []uuid.UUID{userID, userID, otherUser} {
		uid := uid
		order := &models.Order{
			ID:            uuid.New(),
			OrderNumber:   "ORD-TEST-" + uuid.NewString()[:8],
			UserID:        &uid,
			CustomerName:  "Test Shopper",
			CustomerEmail: "shopper@example.com",
			Currency:      enums.CurrencyUSD,
			PaymentMethod: enums.PaymentMethodCOD,
			Status:        enums.OrderStatusPending,
			SubtotalCents: 10000 + i,
			TotalCents:    10000 + i,
			CouponID:      &coupon.ID,
			CouponCode:    &coupon.Code,
			DeliveryAddress: types.Address{
				FullName: "Test Shopper",
				Phone:    "555-0100",
				Street:   "1 Main St",
				City:     "Austin",
				State:    "TX",
				Country:  "US",
			},
			EstimatedDelivery: time.Now().Add(72 * time.Hour),
		}
		require.NoError(t, db.Create(order).Error)
	}

	count, err := repo.CountOrdersByCouponUser(context.Background(), coupon.ID, userID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	count, err = repo.CountOrdersByCouponUser(context.Background(), coupon.ID, uuid.New())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRepoUpdateMissingCoupon(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)

	err := repo.Update(context.Background(), uuid.New(), map[string]any{"active": false})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
