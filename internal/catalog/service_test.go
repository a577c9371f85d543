package catalog

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
	"github.com/spinshelf/spinshelf-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, Repository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	repo := NewRepository(db)
	logg := logger.New(logger.Options{ServiceName: "catalog-test", Output: io.Discard})
	svc, err := NewService(repo, gormTxRunner{db: db}, logg)
	require.NoError(t, err)
	return svc, repo, db
}

func seedArticle(t *testing.T, db *gorm.DB, stock int) *models.Article {
	t.Helper()
	article := &models.Article{
		ID:            uuid.New(),
		Title:         "Blue Train",
		Artist:        "John Coltrane",
		MediaType:     enums.MediaTypeVinyl,
		Genre:         "jazz",
		PriceCents:    3499,
		Currency:      enums.CurrencyUSD,
		StockQuantity: stock,
		IsAvailable:   true,
	}
	require.NoError(t, db.Create(article).Error)
	return article
}

func TestDeductHappyPath(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()
	article := seedArticle(t, db, 5)
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Deduct(ctx, tx, article.ID, 3, enums.StockMovementReferenceOrder, orderID)
	})
	require.NoError(t, err)

	var reloaded models.Article
	require.NoError(t, db.First(&reloaded, "id = ?", article.ID).Error)
	assert.Equal(t, 2, reloaded.StockQuantity)

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "article_id = ?", article.ID).Error)
	assert.Equal(t, enums.StockMovementExit, movement.Direction)
	assert.Equal(t, 3, movement.Quantity)
	assert.Equal(t, 5, movement.PreviousStock)
	assert.Equal(t, 2, movement.NewStock)
	assert.Equal(t, enums.StockMovementReferenceOrder, movement.ReferenceType)
	require.NotNil(t, movement.ReferenceID)
	assert.Equal(t, orderID, *movement.ReferenceID)
}

func TestDeductInsufficientStock(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()
	article := seedArticle(t, db, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Deduct(ctx, tx, article.ID, 3, enums.StockMovementReferenceOrder, uuid.New())
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// Stock untouched and no movement recorded.
	var reloaded models.Article
	require.NoError(t, db.First(&reloaded, "id = ?", article.ID).Error)
	assert.Equal(t, 2, reloaded.StockQuantity)

	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeductUnknownArticle(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Deduct(ctx, tx, uuid.New(), 1, enums.StockMovementReferenceOrder, uuid.New())
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRestoreRecordsEntryMovement(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()
	article := seedArticle(t, db, 1)
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Restore(ctx, tx, article.ID, 4, enums.StockMovementReferenceCancellation, orderID)
	})
	require.NoError(t, err)

	var reloaded models.Article
	require.NoError(t, db.First(&reloaded, "id = ?", article.ID).Error)
	assert.Equal(t, 5, reloaded.StockQuantity)

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "article_id = ?", article.ID).Error)
	assert.Equal(t, enums.StockMovementEntry, movement.Direction)
	assert.Equal(t, 1, movement.PreviousStock)
	assert.Equal(t, 5, movement.NewStock)
	assert.Equal(t, enums.StockMovementReferenceCancellation, movement.ReferenceType)
}

func TestAdjustStockManualEntry(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()
	article := seedArticle(t, db, 10)

	updated, err := svc.AdjustStock(ctx, AdjustStockInput{
		ArticleID: article.ID,
		Direction: enums.StockMovementEntry,
		Quantity:  5,
		Reason:    "received shipment",
	})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.StockQuantity)

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "article_id = ?", article.ID).Error)
	assert.Equal(t, "received shipment", movement.Reason)
	assert.Equal(t, enums.StockMovementReferenceManual, movement.ReferenceType)
	assert.Nil(t, movement.ReferenceID)
}

func TestAdjustStockValidation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []AdjustStockInput{
		{ArticleID: uuid.Nil, Direction: enums.StockMovementEntry, Quantity: 1, Reason: "x"},
		{ArticleID: uuid.New(), Direction: enums.StockMovementEntry, Quantity: 0, Reason: "x"},
		{ArticleID: uuid.New(), Direction: "sideways", Quantity: 1, Reason: "x"},
		{ArticleID: uuid.New(), Direction: enums.StockMovementEntry, Quantity: 1, Reason: ""},
	}
	for _, input := range cases {
		_, err := svc.AdjustStock(ctx, input)
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestCreateArticleRecordsInitialStock(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	article, err := svc.CreateArticle(ctx, CreateArticleInput{
		Title:         "Kind of Blue",
		Artist:        "Miles Davis",
		MediaType:     enums.MediaTypeCD,
		Genre:         "jazz",
		PriceCents:    1299,
		StockQuantity: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CurrencyUSD, article.Currency)
	assert.True(t, article.IsAvailable)

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "article_id = ?", article.ID).Error)
	assert.Equal(t, enums.StockMovementEntry, movement.Direction)
	assert.Equal(t, 8, movement.NewStock)
	assert.Equal(t, "initial stock", movement.Reason)
}

func TestListArticlesFilters(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	seedArticle(t, db, 3)
	cd := &models.Article{
		ID:          uuid.New(),
		Title:       "OK Computer",
		Artist:      "Radiohead",
		MediaType:   enums.MediaTypeCD,
		Genre:       "rock",
		PriceCents:  999,
		Currency:    enums.CurrencyUSD,
		IsAvailable: true,
	}
	require.NoError(t, db.Create(cd).Error)

	mt := enums.MediaTypeCD
	page, err := svc.ListArticles(ctx, ArticleFilters{MediaType: &mt}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "OK Computer", page.Items[0].Title)
	assert.Empty(t, page.NextCursor)
}

func TestListArticlesPaginates(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		article := &models.Article{
			ID:          uuid.New(),
			Title:       fmt.Sprintf("Record %d", i),
			Artist:      "Various",
			MediaType:   enums.MediaTypeVinyl,
			Genre:       "rock",
			PriceCents:  1000,
			Currency:    enums.CurrencyUSD,
			IsAvailable: true,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(article).Error)
	}

	first, err := svc.ListArticles(ctx, ArticleFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListArticles(ctx, ArticleFilters{}, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)
	assert.NotEqual(t, first.Items[0].ID, second.Items[0].ID)
}
