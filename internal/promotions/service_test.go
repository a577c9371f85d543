package promotions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/internal/cart"
	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "promotions-test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), cart.NewRepository(db), catalog.NewRepository(db), gormTxRunner{db: db}, logg)
	require.NoError(t, err)
	return svc, db
}

func seedPromotion(t *testing.T, db *gorm.DB, promoType enums.PromotionType, percent string, maxItems int, genre *string) *models.Promotion {
	t.Helper()
	promotion := &models.Promotion{
		ID:              uuid.New(),
		Name:            "Test Promo",
		Type:            promoType,
		DiscountPercent: decimal.RequireFromString(percent),
		MaxItems:        maxItems,
		Genre:           genre,
		IsActive:        true,
	}
	require.NoError(t, db.Create(promotion).Error)
	return promotion
}

func TestApplyDiscountsLineAndRecomputesAggregates(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	cd := mustCreateCD(t, db, "jazz", 1000)
	_, line := mustCreateCartWithLine(t, db, userID, cd, 2)
	promo := seedPromotion(t, db, enums.PromotionTypeRandom, "25", 5, nil)

	updated, err := svc.Apply(ctx, ApplyInput{
		UserID:      userID,
		PromotionID: promo.ID,
		ArticleIDs:  []uuid.UUID{cd.ID},
	})
	require.NoError(t, err)

	require.Len(t, updated.Lines, 1)
	// 2000 * 25% = 500
	assert.Equal(t, 500, updated.Lines[0].DiscountCents)
	require.NotNil(t, updated.Lines[0].PromotionID)
	assert.Equal(t, promo.ID, *updated.Lines[0].PromotionID)
	assert.Equal(t, 1500, updated.SubtotalCents)
	assert.Equal(t, 2, updated.TotalItems)

	var stored models.CartLine
	require.NoError(t, db.First(&stored, "id = ?", line.ID).Error)
	assert.Equal(t, 500, stored.DiscountCents)
}

func TestApplyRoundsDiscountHalfUp(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	// 333 * 12.5% = 41.625 -> 42
	cd := mustCreateCD(t, db, "rock", 333)
	mustCreateCartWithLine(t, db, userID, cd, 1)
	promo := seedPromotion(t, db, enums.PromotionTypeRandom, "12.5", 3, nil)

	updated, err := svc.Apply(ctx, ApplyInput{
		UserID:      userID,
		PromotionID: promo.ID,
		ArticleIDs:  []uuid.UUID{cd.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, updated.Lines[0].DiscountCents)
	assert.Equal(t, 291, updated.SubtotalCents)
}

func TestApplyGenreMismatchLeavesCartUntouched(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	jazz := mustCreateCD(t, db, "jazz", 1000)
	rock := mustCreateCD(t, db, "rock", 800)
	cartRow, _ := mustCreateCartWithLine(t, db, userID, jazz, 1)
	rockLine := &models.CartLine{
		ID:             uuid.New(),
		CartID:         cartRow.ID,
		ArticleID:      rock.ID,
		Quantity:       1,
		UnitPriceCents: rock.PriceCents,
	}
	require.NoError(t, db.Create(rockLine).Error)

	genre := "jazz"
	promo := seedPromotion(t, db, enums.PromotionTypeGenre, "10", 5, &genre)

	_, err := svc.Apply(ctx, ApplyInput{
		UserID:      userID,
		PromotionID: promo.ID,
		ArticleIDs:  []uuid.UUID{jazz.ID, rock.ID},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// Nothing was applied, including to the matching jazz line.
	var lines []models.CartLine
	require.NoError(t, db.Find(&lines, "cart_id = ?", cartRow.ID).Error)
	for _, line := range lines {
		assert.Zero(t, line.DiscountCents)
		assert.Nil(t, line.PromotionID)
	}
}

func TestApplyRejectsNonCD(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	vinyl := &models.Article{
		ID:            uuid.New(),
		Title:         "Vinyl Record",
		Artist:        "Someone",
		MediaType:     enums.MediaTypeVinyl,
		Genre:         "rock",
		PriceCents:    2000,
		Currency:      enums.CurrencyUSD,
		StockQuantity: 5,
		IsAvailable:   true,
	}
	require.NoError(t, db.Create(vinyl).Error)
	mustCreateCartWithLine(t, db, userID, vinyl, 1)
	promo := seedPromotion(t, db, enums.PromotionTypeRandom, "10", 5, nil)

	_, err := svc.Apply(ctx, ApplyInput{
		UserID:      userID,
		PromotionID: promo.ID,
		ArticleIDs:  []uuid.UUID{vinyl.ID},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestApplyEligibilityGuards(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	cd := mustCreateCD(t, db, "jazz", 1000)
	mustCreateCartWithLine(t, db, userID, cd, 1)

	t.Run("inactive promotion", func(t *testing.T) {
		promo := seedPromotion(t, db, enums.PromotionTypeRandom, "10", 5, nil)
		require.NoError(t, db.Model(promo).Update("is_active", false).Error)

		_, err := svc.Apply(ctx, ApplyInput{UserID: userID, PromotionID: promo.ID, ArticleIDs: []uuid.UUID{cd.ID}})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	})

	t.Run("expired window", func(t *testing.T) {
		promo := seedPromotion(t, db, enums.PromotionTypeRandom, "10", 5, nil)
		past := time.Now().Add(-time.Hour)
		require.NoError(t, db.Model(promo).Updates(map[string]any{
			"is_time_limited": true,
			"ends_at":         past,
		}).Error)

		_, err := svc.Apply(ctx, ApplyInput{UserID: userID, PromotionID: promo.ID, ArticleIDs: []uuid.UUID{cd.ID}})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	})

	t.Run("max items exceeded", func(t *testing.T) {
		promo := seedPromotion(t, db, enums.PromotionTypeRandom, "10", 1, nil)

		_, err := svc.Apply(ctx, ApplyInput{
			UserID:      userID,
			PromotionID: promo.ID,
			ArticleIDs:  []uuid.UUID{cd.ID, uuid.New()},
		})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("article not in cart", func(t *testing.T) {
		promo := seedPromotion(t, db, enums.PromotionTypeRandom, "10", 5, nil)

		_, err := svc.Apply(ctx, ApplyInput{
			UserID:      userID,
			PromotionID: promo.ID,
			ArticleIDs:  []uuid.UUID{uuid.New()},
		})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	})
}

func TestCreateValidatesRule(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	genre := "jazz"

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"zero discount", CreateInput{Name: "x", Type: enums.PromotionTypeRandom, DiscountPercent: decimal.Zero, MaxItems: 3}},
		{"over 100", CreateInput{Name: "x", Type: enums.PromotionTypeRandom, DiscountPercent: decimal.NewFromInt(101), MaxItems: 3}},
		{"genre without genre", CreateInput{Name: "x", Type: enums.PromotionTypeGenre, DiscountPercent: decimal.NewFromInt(10), MaxItems: 3}},
		{"random with genre", CreateInput{Name: "x", Type: enums.PromotionTypeRandom, DiscountPercent: decimal.NewFromInt(10), MaxItems: 3, Genre: &genre}},
		{"zero max items", CreateInput{Name: "x", Type: enums.PromotionTypeRandom, DiscountPercent: decimal.NewFromInt(10), MaxItems: 0}},
		{"time limited without end", CreateInput{Name: "x", Type: enums.PromotionTypeRandom, DiscountPercent: decimal.NewFromInt(10), MaxItems: 3, IsTimeLimited: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestCreateAndUpdatePromotion(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	genre := "jazz"

	created, err := svc.Create(ctx, CreateInput{
		Name:            "Jazz CDs 15% off",
		Type:            enums.PromotionTypeGenre,
		DiscountPercent: decimal.NewFromInt(15),
		MaxItems:        4,
		Genre:           &genre,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Zero(t, created.UsageCount)

	inactive := false
	maxItems := 2
	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		MaxItems: &maxItems,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MaxItems)
	assert.False(t, updated.IsActive)
}
