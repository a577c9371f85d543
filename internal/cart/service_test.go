package cart

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db), gormTxRunner{db: db}, logg)
	require.NoError(t, err)
	return svc, db
}

func TestGetCreatesCartLazily(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	cart, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, cart.UserID)
	assert.Zero(t, cart.TotalItems)
	assert.Zero(t, cart.SubtotalCents)

	again, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddItemCreatesLineAndAggregates(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	article := mustCreateArticle(t, db, 2500, 10)

	cart, err := svc.AddItem(ctx, userID, article.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, 2500, cart.Lines[0].UnitPriceCents)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, 5000, cart.SubtotalCents)
}

func TestAddItemMergesDuplicateLines(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	article := mustCreateArticle(t, db, 1000, 5)

	_, err := svc.AddItem(ctx, userID, article.ID, 2)
	require.NoError(t, err)

	cart, err := svc.AddItem(ctx, userID, article.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems)
	assert.Equal(t, 5000, cart.SubtotalCents)

	// Combined quantity above the remaining stock is rejected.
	_, err = svc.AddItem(ctx, userID, article.ID, 1)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestAddItemRejectsUnknownAndUnavailable(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.AddItem(ctx, userID, uuid.New(), 1)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	article := mustCreateArticle(t, db, 1000, 5)
	require.NoError(t, db.Model(&models.Article{}).
		Where("id = ?", article.ID).
		Update("is_available", false).Error)

	_, err = svc.AddItem(ctx, userID, article.ID, 1)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateQuantityForeignLineForbidden(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()
	article := mustCreateArticle(t, db, 1000, 10)

	cart, err := svc.AddItem(ctx, owner, article.ID, 1)
	require.NoError(t, err)
	lineID := cart.Lines[0].ID

	_, err = svc.UpdateQuantity(ctx, intruder, lineID, 2)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestUpdateQuantityRevalidatesStockAndResetsDiscount(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	article := mustCreateArticle(t, db, 1000, 4)

	cart, err := svc.AddItem(ctx, userID, article.ID, 1)
	require.NoError(t, err)
	lineID := cart.Lines[0].ID

	promoID := uuid.New()
	require.NoError(t, db.Model(&models.CartLine{}).
		Where("id = ?", lineID).
		Updates(map[string]any{"discount_cents": 100, "promotion_id": promoID}).Error)

	_, err = svc.UpdateQuantity(ctx, userID, lineID, 5)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	updated, err := svc.UpdateQuantity(ctx, userID, lineID, 3)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, 3, updated.Lines[0].Quantity)
	assert.Zero(t, updated.Lines[0].DiscountCents)
	assert.Nil(t, updated.Lines[0].PromotionID)
	assert.Equal(t, 3000, updated.SubtotalCents)
}

func TestRemoveItemRecomputesAggregates(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	vinyl := mustCreateArticle(t, db, 2000, 10)
	cd := mustCreateArticle(t, db, 900, 10)

	_, err := svc.AddItem(ctx, userID, vinyl.ID, 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, userID, cd.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 3800, cart.SubtotalCents)

	var vinylLine models.CartLine
	require.NoError(t, db.First(&vinylLine, "cart_id = ? AND article_id = ?", cart.ID, vinyl.ID).Error)

	after, err := svc.RemoveItem(ctx, userID, vinylLine.ID)
	require.NoError(t, err)
	require.Len(t, after.Lines, 1)
	assert.Equal(t, 2, after.TotalItems)
	assert.Equal(t, 1800, after.SubtotalCents)
}

func TestClearEmptiesCart(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	article := mustCreateArticle(t, db, 1500, 10)

	_, err := svc.AddItem(ctx, userID, article.ID, 3)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, userID))

	cart, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Zero(t, cart.TotalItems)
	assert.Zero(t, cart.SubtotalCents)

	var count int64
	require.NoError(t, db.Model(&models.CartLine{}).Count(&count).Error)
	assert.Zero(t, count)
}
