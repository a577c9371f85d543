package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's cart. Every mutation recomputes the cached
// cart aggregates inside the same transaction as the line change.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, articleID uuid.UUID, qty int) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	articles catalog.Repository
	tx       txRunner
	logg     *logger.Logger
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, articles catalog.Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if articles == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, articles: articles, tx: tx, logg: logg}, nil
}

// Get returns the user's cart, creating an empty one on first access.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	cart, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		// A concurrent first access may have created the row already.
		if existing, ferr := s.repo.FindByUserID(ctx, userID); ferr == nil {
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) AddItem(ctx context.Context, userID, articleID uuid.UUID, qty int) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if articleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		articles := s.articles.WithTx(tx)

		article, err := articles.FindArticle(ctx, articleID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load article")
		}
		if !article.IsAvailable {
			return pkgerrors.New(pkgerrors.CodeValidation, "article is not available for sale")
		}

		requested := qty
		existing, err := repo.FindLineByArticle(ctx, cart.ID, articleID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if existing != nil {
			requested += existing.Quantity
		}
		if article.StockQuantity < requested {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{
					"article_id": articleID,
					"requested":  requested,
					"available":  article.StockQuantity,
				})
		}

		if existing != nil {
			// Merging invalidates any previously applied promotion on the line.
			updates := map[string]any{
				"quantity":       requested,
				"discount_cents": 0,
				"promotion_id":   nil,
			}
			if err := repo.UpdateLine(ctx, existing.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
			}
		} else {
			line := &models.CartLine{
				CartID:         cart.ID,
				ArticleID:      articleID,
				Quantity:       qty,
				UnitPriceCents: article.PriceCents,
			}
			if _, err := repo.CreateLine(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
			}
		}

		return s.recompute(ctx, repo, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, qty int) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		line, err := repo.FindLine(ctx, lineID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if line.CartID != cart.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cart line does not belong to user")
		}

		article, err := s.articles.WithTx(tx).FindArticle(ctx, line.ArticleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load article")
		}
		if article.StockQuantity < qty {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{
					"article_id": line.ArticleID,
					"requested":  qty,
					"available":  article.StockQuantity,
				})
		}

		updates := map[string]any{
			"quantity":       qty,
			"discount_cents": 0,
			"promotion_id":   nil,
		}
		if err := repo.UpdateLine(ctx, lineID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
		return s.recompute(ctx, repo, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		line, err := repo.FindLine(ctx, lineID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if line.CartID != cart.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cart line does not belong to user")
		}

		if err := repo.DeleteLine(ctx, lineID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
		}
		return s.recompute(ctx, repo, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteLines(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart lines")
		}
		if err := repo.UpdateAggregates(ctx, cart.ID, 0, 0); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset cart aggregates")
		}
		return nil
	})
}

// recompute rebuilds the cached aggregates from the surviving lines.
func (s *service) recompute(ctx context.Context, repo Repository, cartID uuid.UUID) error {
	lines, err := repo.FindLines(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart lines")
	}

	totalItems := 0
	subtotal := 0
	for _, line := range lines {
		totalItems += line.Quantity
		subtotal += line.LineTotalCents()
	}

	if err := repo.UpdateAggregates(ctx, cartID, totalItems, subtotal); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart aggregates")
	}
	return nil
}
