package promotions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:promotions_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE IF NOT EXISTS articles (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  artist TEXT NOT NULL,
  media_type TEXT NOT NULL,
  genre TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  min_stock_level INTEGER NOT NULL DEFAULT 0,
  max_stock_level INTEGER NOT NULL DEFAULT 0,
  is_available INTEGER NOT NULL DEFAULT 1,
  is_preorder INTEGER NOT NULL DEFAULT 0,
  total_sold INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  total_items INTEGER NOT NULL DEFAULT 0,
  subtotal_cents INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  article_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  promotion_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS promotions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  discount_percent NUMERIC NOT NULL,
  max_items INTEGER NOT NULL,
  genre TEXT,
  is_time_limited INTEGER NOT NULL DEFAULT 0,
  starts_at DATETIME,
  ends_at DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  usage_count INTEGER NOT NULL DEFAULT 0,
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

func mustCreateCD(t *testing.T, db *gorm.DB, genre string, priceCents int) *models.Article {
	t.Helper()
	article := &models.Article{
		ID:            uuid.New(),
		Title:         "Test CD",
		Artist:        "Test Artist",
		MediaType:     enums.MediaTypeCD,
		Genre:         genre,
		PriceCents:    priceCents,
		Currency:      enums.CurrencyUSD,
		StockQuantity: 50,
		IsAvailable:   true,
	}
	require.NoError(t, db.Create(article).Error)
	return article
}

func mustCreateCartWithLine(t *testing.T, db *gorm.DB, userID uuid.UUID, article *models.Article, qty int) (*models.Cart, *models.CartLine) {
	t.Helper()
	cart := &models.Cart{ID: uuid.New(), UserID: userID}
	require.NoError(t, db.Create(cart).Error)

	line := &models.CartLine{
		ID:             uuid.New(),
		CartID:         cart.ID,
		ArticleID:      article.ID,
		Quantity:       qty,
		UnitPriceCents: article.PriceCents,
	}
	require.NoError(t, db.Create(line).Error)

	require.NoError(t, db.Model(cart).Updates(map[string]any{
		"total_items":    qty,
		"subtotal_cents": article.PriceCents * qty,
	}).Error)
	return cart, line
}
