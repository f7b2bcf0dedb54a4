package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	"github.com/havenandoak/storefront-backend/pkg/pagination"
	"github.com/havenandoak/storefront-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

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
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  name TEXT NOT NULL,
  variant_label TEXT,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	statusUpdates := `
CREATE TABLE IF NOT EXISTS order_status_updates (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  message TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`

	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	require.NoError(t, db.Exec(statusUpdates).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM order_status_updates")
		db.Exec("DELETE FROM order_line_items")
		db.Exec("DELETE FROM orders")
	})
	return db
}

func buildOrder(status enums.OrderStatus, createdAt time.Time) *models.Order {
	orderID := uuid.New()
	return &models.Order{
		ID:            orderID,
		OrderNumber:   "ORD-" + uuid.NewString()[:13],
		CustomerName:  "Jordan Miller",
		CustomerEmail: "jordan@example.com",
		Currency:      enums.CurrencyUSD,
		PaymentMethod: enums.PaymentMethodCOD,
		Status:        status,
		SubtotalCents: 50000,
		TotalCents:    50000,
		DeliveryAddress: types.Address{
			FullName: "Jordan Miller",
			Phone:    "555-0100",
			Street:   "1 Main St",
			City:     "New York",
			State:    "NY",
			Country:  "US",
		},
		EstimatedDelivery: createdAt.AddDate(0, 0, 2),
		Items: []models.OrderLineItem{{
			ID:             uuid.New(),
			OrderID:        orderID,
			ProductID:      uuid.New(),
			Name:           "Haven Hybrid Mattress",
			Quantity:       1,
			UnitPriceCents: 50000,
			TotalCents:     50000,
		}},
		StatusUpdates: []models.OrderStatusUpdate{{
			ID:      uuid.New(),
			OrderID: orderID,
			Status:  status,
			Message: "Order placed",
		}},
		CreatedAt: createdAt,
	}
}

func TestRepoCreateAndFindWithAssociations(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := buildOrder(enums.OrderStatusPending, time.Now())
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	found, err := repo.FindByOrderNumber(ctx, " "+order.OrderNumber+" ")
	require.NoError(t, err)
	require.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)
	require.Len(t, found.StatusUpdates, 1)
	require.Equal(t, "New York", found.DeliveryAddress.City)

	byID, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.OrderNumber, byID.OrderNumber)
}

func TestRepoUpdateStatusIfConditional(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := buildOrder(enums.OrderStatusPending, time.Now())
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	matched, err := repo.UpdateStatusIf(ctx, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed},
		map[string]any{"status": enums.OrderStatusShipped, "tracking_number": "1Z999"})
	require.NoError(t, err)
	require.True(t, matched)

	// Second caller loses the race: pre-state no longer matches.
	matched, err = repo.UpdateStatusIf(ctx, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed},
		map[string]any{"status": enums.OrderStatusShipped})
	require.NoError(t, err)
	require.False(t, matched)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, reloaded.Status)
	require.Equal(t, "1Z999", *reloaded.TrackingNumber)
}

func TestRepoDeleteIfNotInStatuses(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	inFlight := buildOrder(enums.OrderStatusShipped, time.Now())
	_, err := repo.CreateOrder(ctx, inFlight)
	require.NoError(t, err)

	deleted, err := repo.DeleteIfNotInStatuses(ctx, inFlight.ID, inFlightStates)
	require.NoError(t, err)
	require.False(t, deleted)

	pending := buildOrder(enums.OrderStatusPending, time.Now())
	_, err = repo.CreateOrder(ctx, pending)
	require.NoError(t, err)

	deleted, err = repo.DeleteIfNotInStatuses(ctx, pending.ID, inFlightStates)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = repo.FindByID(ctx, pending.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepoListCursorPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		order := buildOrder(enums.OrderStatusPending, base.Add(time.Duration(i)*time.Hour))
		_, err := repo.CreateOrder(ctx, order)
		require.NoError(t, err)
	}

	first, err := repo.List(ctx, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotNil(t, first.NextCursor)
	// Newest first.
	require.True(t, first.Orders[0].CreatedAt.After(first.Orders[1].CreatedAt))

	second, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: *first.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 2)
	require.True(t, first.Orders[1].CreatedAt.After(second.Orders[0].CreatedAt))

	third, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: *second.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, third.Orders, 1)
	require.Nil(t, third.NextCursor)
}

func TestRepoListStatusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.CreateOrder(ctx, buildOrder(enums.OrderStatusPending, time.Now()))
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, buildOrder(enums.OrderStatusShipped, time.Now()))
	require.NoError(t, err)

	shipped := enums.OrderStatusShipped
	list, err := repo.List(ctx, pagination.Params{}, ListFilters{Status: &shipped})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.Equal(t, enums.OrderStatusShipped, list.Orders[0].Status)
}
