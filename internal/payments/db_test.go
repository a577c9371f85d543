package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/internal/orders"
	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  total_spent_cents INTEGER NOT NULL DEFAULT 0,
  total_orders INTEGER NOT NULL DEFAULT 0,
  is_admin INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payment_methods (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  requires_card INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cards (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  brand TEXT NOT NULL,
  masked_number TEXT NOT NULL,
  expiry_month INTEGER NOT NULL,
  expiry_year INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  currency TEXT NOT NULL DEFAULT 'USD',
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  total_items INTEGER NOT NULL,
  shipping_address_id TEXT NOT NULL,
  billing_address_id TEXT NOT NULL,
  notes TEXT,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  payment_method_id TEXT NOT NULL,
  card_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  amount_cents INTEGER NOT NULL,
  transaction_ref TEXT,
  gateway_id TEXT,
  failure_reason TEXT,
  processed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_order_completed
  ON payments (order_id) WHERE status = 'completed';`, `
CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  invoice_number TEXT NOT NULL UNIQUE,
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL,
  shipping_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  issued_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`}

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func mustCreateUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		DisplayName:  "Payment Tester",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func mustCreatePaymentMethod(t *testing.T, db *gorm.DB, requiresCard, active bool) *models.PaymentMethod {
	t.Helper()
	method := &models.PaymentMethod{
		ID:           uuid.New(),
		Code:         "pm_" + uuid.NewString()[:8],
		Name:         "Test Method",
		RequiresCard: requiresCard,
		IsActive:     active,
	}
	require.NoError(t, db.Create(method).Error)
	return method
}

func mustCreateCard(t *testing.T, db *gorm.DB, userID uuid.UUID, active bool) *models.Card {
	t.Helper()
	card := &models.Card{
		ID:           uuid.New(),
		UserID:       userID,
		Brand:        "visa",
		MaskedNumber: "**** **** **** 4242",
		ExpiryMonth:  12,
		ExpiryYear:   2030,
		IsActive:     active,
	}
	require.NoError(t, db.Create(card).Error)
	return card
}

func mustCreateOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.OrderStatus, totalCents int) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       orders.NewOrderNumber(time.Now()),
		UserID:            userID,
		Status:            status,
		Currency:          enums.CurrencyUSD,
		SubtotalCents:     totalCents - 2500,
		TaxCents:          0,
		ShippingCents:     2500,
		DiscountCents:     0,
		TotalCents:        totalCents,
		TotalItems:        1,
		ShippingAddressID: uuid.New(),
		BillingAddressID:  uuid.New(),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func mustCreatePendingPayment(t *testing.T, db *gorm.DB, orderID, methodID uuid.UUID, amountCents int) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		ID:              uuid.New(),
		OrderID:         orderID,
		PaymentMethodID: methodID,
		Status:          enums.PaymentStatusPending,
		AmountCents:     amountCents,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}
