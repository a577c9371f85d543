package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
	"github.com/spinshelf/spinshelf-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers catalog reads, admin article management and the stock
// mutations shared with checkout and cancellation.
type Service interface {
	CreateArticle(ctx context.Context, input CreateArticleInput) (*models.Article, error)
	UpdateArticle(ctx context.Context, id uuid.UUID, input UpdateArticleInput) (*models.Article, error)
	GetArticle(ctx context.Context, id uuid.UUID) (*models.Article, error)
	ListArticles(ctx context.Context, filters ArticleFilters, params pagination.Params) (*ArticlePage, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*models.Article, error)
	ListStockMovements(ctx context.Context, articleID uuid.UUID, limit int) ([]models.StockMovement, error)

	Deduct(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, qty int, reference enums.StockMovementReference, referenceID uuid.UUID) error
	Restore(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, qty int, reference enums.StockMovementReference, referenceID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// CreateArticleInput captures the fields an admin supplies for a new article.
type CreateArticleInput struct {
	Title         string
	Artist        string
	MediaType     enums.MediaType
	Genre         string
	PriceCents    int
	Currency      enums.Currency
	StockQuantity int
	MinStockLevel int
	MaxStockLevel int
	IsPreorder    bool
}

// UpdateArticleInput carries optional admin edits. Stock is excluded on
// purpose; it only moves through AdjustStock and the checkout paths.
type UpdateArticleInput struct {
	Title         *string
	Artist        *string
	Genre         *string
	PriceCents    *int
	MinStockLevel *int
	MaxStockLevel *int
	IsAvailable   *bool
	IsPreorder    *bool
}

// AdjustStockInput is a manual inventory correction.
type AdjustStockInput struct {
	ArticleID uuid.UUID
	Direction enums.StockMovementDirection
	Quantity  int
	Reason    string
}

func (s *service) CreateArticle(ctx context.Context, input CreateArticleInput) (*models.Article, error) {
	if input.Title == "" || input.Artist == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and artist are required")
	}
	if !input.MediaType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media type")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}

	article := &models.Article{
		Title:         input.Title,
		Artist:        input.Artist,
		MediaType:     input.MediaType,
		Genre:         input.Genre,
		PriceCents:    input.PriceCents,
		Currency:      currency,
		StockQuantity: input.StockQuantity,
		MinStockLevel: input.MinStockLevel,
		MaxStockLevel: input.MaxStockLevel,
		IsAvailable:   true,
		IsPreorder:    input.IsPreorder,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateArticle(ctx, article); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create article")
		}
		if article.StockQuantity > 0 {
			movement := &models.StockMovement{
				ArticleID:     article.ID,
				Direction:     enums.StockMovementEntry,
				Quantity:      article.StockQuantity,
				PreviousStock: 0,
				NewStock:      article.StockQuantity,
				Reason:        "initial stock",
				ReferenceType: enums.StockMovementReferenceManual,
			}
			if err := repo.CreateStockMovement(ctx, movement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record initial stock")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (s *service) UpdateArticle(ctx context.Context, id uuid.UUID, input UpdateArticleInput) (*models.Article, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Artist != nil {
		updates["artist"] = *input.Artist
	}
	if input.Genre != nil {
		updates["genre"] = *input.Genre
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.MinStockLevel != nil {
		updates["min_stock_level"] = *input.MinStockLevel
	}
	if input.MaxStockLevel != nil {
		updates["max_stock_level"] = *input.MaxStockLevel
	}
	if input.IsAvailable != nil {
		updates["is_available"] = *input.IsAvailable
	}
	if input.IsPreorder != nil {
		updates["is_preorder"] = *input.IsPreorder
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates supplied")
	}

	if _, err := s.repo.FindArticle(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load article")
	}
	if err := s.repo.UpdateArticle(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update article")
	}

	article, err := s.repo.FindArticle(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload article")
	}
	return article, nil
}

func (s *service) GetArticle(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}
	article, err := s.repo.FindArticle(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load article")
	}
	return article, nil
}

func (s *service) ListArticles(ctx context.Context, filters ArticleFilters, params pagination.Params) (*ArticlePage, error) {
	page, err := s.repo.ListArticles(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list articles")
	}
	return page, nil
}

func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*models.Article, error) {
	if input.ArticleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.Direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid direction")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	var article *models.Article
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		switch input.Direction {
		case enums.StockMovementEntry:
			err = s.restore(ctx, tx, input.ArticleID, input.Quantity, input.Reason, enums.StockMovementReferenceManual, uuid.Nil)
		default:
			err = s.deduct(ctx, tx, input.ArticleID, input.Quantity, input.Reason, enums.StockMovementReferenceManual, uuid.Nil)
		}
		if err != nil {
			return err
		}
		article, err = s.repo.WithTx(tx).FindArticle(ctx, input.ArticleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload article")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (s *service) ListStockMovements(ctx context.Context, articleID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if articleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}
	movements, err := s.repo.ListStockMovements(ctx, articleID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return movements, nil
}

// Deduct removes qty from stock inside the caller's transaction and records
// the exit movement. It fails with a conflict when stock is insufficient.
func (s *service) Deduct(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, qty int, reference enums.StockMovementReference, referenceID uuid.UUID) error {
	return s.deduct(ctx, tx, articleID, qty, "", reference, referenceID)
}

// Restore returns qty to stock inside the caller's transaction and records
// the entry movement.
func (s *service) Restore(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, qty int, reference enums.StockMovementReference, referenceID uuid.UUID) error {
	return s.restore(ctx, tx, articleID, qty, "", reference, referenceID)
}

func (s *service) deduct(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, qty int, reason string, reference enums.StockMovementReference, referenceID uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := s.repo.WithTx(tx)

	ok, err := repo.DecrementStock(ctx, articleID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if !ok {
		article, ferr := repo.FindArticle(ctx, articleID)
		if ferr != nil {
			if ferr == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, ferr, "load article")
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{
				"article_id": articleID,
				"requested":  qty,
				"available":  article.StockQuantity,
			})
	}

	// The row is locked by the UPDATE above, so the reload reflects the
	// post-decrement quantity for the movement record.
	article, err := repo.FindArticle(ctx, articleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload article")
	}

	if reason == "" {
		reason = "stock deducted"
	}
	movement := &models.StockMovement{
		ArticleID:     articleID,
		Direction:     enums.StockMovementExit,
		Quantity:      qty,
		PreviousStock: article.StockQuantity + qty,
		NewStock:      article.StockQuantity,
		Reason:        reason,
		ReferenceType: reference,
	}
	if referenceID != uuid.Nil {
		movement.ReferenceID = &referenceID
	}
	if err := repo.CreateStockMovement(ctx, movement); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return nil
}

func (s *service) restore(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, qty int, reason string, reference enums.StockMovementReference, referenceID uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := s.repo.WithTx(tx)

	if _, err := repo.FindArticle(ctx, articleID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load article")
	}
	if err := repo.IncrementStock(ctx, articleID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
	}

	article, err := repo.FindArticle(ctx, articleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload article")
	}

	if reason == "" {
		reason = "stock restored"
	}
	movement := &models.StockMovement{
		ArticleID:     articleID,
		Direction:     enums.StockMovementEntry,
		Quantity:      qty,
		PreviousStock: article.StockQuantity - qty,
		NewStock:      article.StockQuantity,
		Reason:        reason,
		ReferenceType: reference,
	}
	if referenceID != uuid.Nil {
		movement.ReferenceID = &referenceID
	}
	if err := repo.CreateStockMovement(ctx, movement); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return nil
}
