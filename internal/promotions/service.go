package promotions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/internal/cart"
	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
	"github.com/spinshelf/spinshelf-backend/pkg/pricing"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies CD promotions to carts and manages promotion rules.
// Eligibility failures roll the transaction back, leaving the cart as it was.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*models.Cart, error)
	Create(ctx context.Context, input CreateInput) (*models.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Promotion, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context, onlyActive bool) ([]models.Promotion, error)
}

type service struct {
	repo     Repository
	carts    cart.Repository
	articles catalog.Repository
	tx       txRunner
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a promotions service with the required dependencies.
func NewService(repo Repository, carts cart.Repository, articles catalog.Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	if carts == nil {
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
	return &service{
		repo:     repo,
		carts:    carts,
		articles: articles,
		tx:       tx,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// ApplyInput targets a set of cart articles with one promotion.
type ApplyInput struct {
	UserID      uuid.UUID
	PromotionID uuid.UUID
	ArticleIDs  []uuid.UUID
}

// CreateInput captures admin-supplied promotion fields.
type CreateInput struct {
	Name            string
	Type            enums.PromotionType
	DiscountPercent decimal.Decimal
	MaxItems        int
	Genre           *string
	IsTimeLimited   bool
	StartsAt        *time.Time
	EndsAt          *time.Time
}

// UpdateInput carries optional admin edits.
type UpdateInput struct {
	Name            *string
	DiscountPercent *decimal.Decimal
	MaxItems        *int
	Genre           *string
	IsActive        *bool
	StartsAt        *time.Time
	EndsAt          *time.Time
}

func (s *service) Apply(ctx context.Context, input ApplyInput) (*models.Cart, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PromotionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}
	if len(input.ArticleIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one article id required")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.carts.WithTx(tx)
		articles := s.articles.WithTx(tx)

		promotion, err := repo.FindByID(ctx, input.PromotionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
		}
		if !promotion.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "promotion is not active")
		}
		if !promotion.WithinWindow(s.now()) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "promotion is outside its time window")
		}
		if len(input.ArticleIDs) > promotion.MaxItems {
			return pkgerrors.New(pkgerrors.CodeValidation, "promotion item limit exceeded").
				WithDetails(map[string]any{
					"max_items": promotion.MaxItems,
					"requested": len(input.ArticleIDs),
				})
		}

		userCart, err := carts.FindByUserID(ctx, input.UserID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		linesByArticle := make(map[uuid.UUID]*models.CartLine, len(userCart.Lines))
		for i := range userCart.Lines {
			line := &userCart.Lines[i]
			linesByArticle[line.ArticleID] = line
		}

		targets := make([]*models.CartLine, 0, len(input.ArticleIDs))
		for _, articleID := range input.ArticleIDs {
			line, ok := linesByArticle[articleID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "article is not in the cart").
					WithDetails(map[string]any{"article_id": articleID})
			}
			targets = append(targets, line)
		}

		loaded, err := articles.FindArticles(ctx, input.ArticleIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load articles")
		}
		articleByID := make(map[uuid.UUID]models.Article, len(loaded))
		for _, article := range loaded {
			articleByID[article.ID] = article
		}

		for _, line := range targets {
			article, ok := articleByID[line.ArticleID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "article not found").
					WithDetails(map[string]any{"article_id": line.ArticleID})
			}
			if article.MediaType != enums.MediaTypeCD {
				return pkgerrors.New(pkgerrors.CodeValidation, "promotions apply to CDs only").
					WithDetails(map[string]any{
						"article_id": article.ID,
						"media_type": article.MediaType,
					})
			}
			if promotion.Type == enums.PromotionTypeGenre && promotion.Genre != nil && article.Genre != *promotion.Genre {
				return pkgerrors.New(pkgerrors.CodeValidation, "article genre does not match the promotion").
					WithDetails(map[string]any{
						"article_id":      article.ID,
						"article_genre":   article.Genre,
						"promotion_genre": *promotion.Genre,
					})
			}
		}

		for _, line := range targets {
			lineSubtotal := line.UnitPriceCents * line.Quantity
			discount := pricing.PercentDiscount(lineSubtotal, promotion.DiscountPercent)
			updates := map[string]any{
				"discount_cents": discount,
				"promotion_id":   promotion.ID,
			}
			if err := carts.UpdateLine(ctx, line.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply line discount")
			}
		}

		lines, err := carts.FindLines(ctx, userCart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart lines")
		}
		totalItems := 0
		subtotal := 0
		for _, line := range lines {
			totalItems += line.Quantity
			subtotal += line.LineTotalCents()
		}
		if err := carts.UpdateAggregates(ctx, userCart.ID, totalItems, subtotal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart aggregates")
		}

		result, err = carts.FindByUserID(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Promotion, error) {
	if err := validateRule(input.Type, input.DiscountPercent, input.MaxItems, input.Genre, input.IsTimeLimited, input.StartsAt, input.EndsAt); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	promotion := &models.Promotion{
		Name:            input.Name,
		Type:            input.Type,
		DiscountPercent: input.DiscountPercent,
		MaxItems:        input.MaxItems,
		Genre:           input.Genre,
		IsTimeLimited:   input.IsTimeLimited,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		IsActive:        true,
	}
	created, err := s.repo.Create(ctx, promotion)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Promotion, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}

	discount := existing.DiscountPercent
	if input.DiscountPercent != nil {
		discount = *input.DiscountPercent
	}
	maxItems := existing.MaxItems
	if input.MaxItems != nil {
		maxItems = *input.MaxItems
	}
	genre := existing.Genre
	if input.Genre != nil {
		genre = input.Genre
	}
	startsAt := existing.StartsAt
	if input.StartsAt != nil {
		startsAt = input.StartsAt
	}
	endsAt := existing.EndsAt
	if input.EndsAt != nil {
		endsAt = input.EndsAt
	}
	if err := validateRule(existing.Type, discount, maxItems, genre, existing.IsTimeLimited, startsAt, endsAt); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"discount_percent": discount,
		"max_items":        maxItems,
		"genre":            genre,
		"starts_at":        startsAt,
		"ends_at":          endsAt,
	}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promotion")
	}

	reloaded, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload promotion")
	}
	return reloaded, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}
	promotion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	return promotion, nil
}

func (s *service) List(ctx context.Context, onlyActive bool) ([]models.Promotion, error) {
	promotions, err := s.repo.List(ctx, onlyActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	return promotions, nil
}

func validateRule(promoType enums.PromotionType, discount decimal.Decimal, maxItems int, genre *string, timeLimited bool, startsAt, endsAt *time.Time) error {
	if !promoType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion type")
	}
	if discount.LessThanOrEqual(decimal.Zero) || discount.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be in (0, 100]")
	}
	if maxItems <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max items must be positive")
	}
	if promoType == enums.PromotionTypeGenre && (genre == nil || *genre == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "genre promotions require a genre")
	}
	if promoType == enums.PromotionTypeRandom && genre != nil && *genre != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "random promotions must not carry a genre")
	}
	if timeLimited {
		if endsAt == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "time-limited promotions require an end date")
		}
		if startsAt != nil && !startsAt.Before(*endsAt) {
			return pkgerrors.New(pkgerrors.CodeValidation, "start date must precede end date")
		}
	}
	return nil
}
