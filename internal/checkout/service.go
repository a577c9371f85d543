package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/internal/cart"
	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	"github.com/spinshelf/spinshelf-backend/internal/orders"
	"github.com/spinshelf/spinshelf-backend/internal/promotions"
	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
	"github.com/spinshelf/spinshelf-backend/pkg/pricing"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockDeductor removes stock inside the checkout transaction.
type StockDeductor interface {
	Deduct(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, qty int, reference enums.StockMovementReference, referenceID uuid.UUID) error
}

// Notifier is told about completed checkouts after the transaction commits.
// Failures are logged, never surfaced to the caller.
type Notifier interface {
	OrderCreated(ctx context.Context, userID uuid.UUID, order *models.Order)
}

// Service turns a cart into an order inside one transaction.
type Service interface {
	Execute(ctx context.Context, input ExecuteInput) (*Result, error)
}

// ExecuteInput carries everything checkout needs beyond the cart itself.
type ExecuteInput struct {
	UserID            uuid.UUID
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	PaymentMethodID   uuid.UUID
	CardID            *uuid.UUID
}

// Result is the caller-facing order summary.
type Result struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	TotalCents  int               `json:"total_cents"`
	Currency    enums.Currency    `json:"currency"`
	TotalItems  int               `json:"total_items"`
	CreatedAt   time.Time         `json:"created_at"`
}

type service struct {
	repo     Repository
	carts    cart.Repository
	articles catalog.Repository
	stock    StockDeductor
	promos   promotions.Repository
	calc     pricing.Calculator
	tx       txRunner
	notifier Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a checkout service with the required dependencies.
// The notifier may be nil when no notification surface is wired.
func NewService(
	repo Repository,
	carts cart.Repository,
	articles catalog.Repository,
	stock StockDeductor,
	promos promotions.Repository,
	calc pricing.Calculator,
	tx txRunner,
	notifier Notifier,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if articles == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock deductor required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promotions repository required")
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
		stock:    stock,
		promos:   promos,
		calc:     calc,
		tx:       tx,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Execute(ctx context.Context, input ExecuteInput) (*Result, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ShippingAddressID == uuid.Nil || input.BillingAddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping and billing address ids required")
	}
	if input.PaymentMethodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method id required")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.carts.WithTx(tx)
		articles := s.articles.WithTx(tx)
		promos := s.promos.WithTx(tx)

		if err := s.checkAddress(ctx, repo, input.ShippingAddressID, input.UserID); err != nil {
			return err
		}
		if err := s.checkAddress(ctx, repo, input.BillingAddressID, input.UserID); err != nil {
			return err
		}

		method, err := repo.FindPaymentMethod(ctx, input.PaymentMethodID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
		}
		if !method.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment method is not active")
		}
		if method.RequiresCard {
			if input.CardID == nil || *input.CardID == uuid.Nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "payment method requires a card")
			}
			if err := s.checkCard(ctx, repo, *input.CardID, input.UserID); err != nil {
				return err
			}
		}

		userCart, err := carts.FindByUserID(ctx, input.UserID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(userCart.Lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		articleIDs := make([]uuid.UUID, 0, len(userCart.Lines))
		for _, line := range userCart.Lines {
			articleIDs = append(articleIDs, line.ArticleID)
		}
		loaded, err := articles.FindArticles(ctx, articleIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load articles")
		}
		articleByID := make(map[uuid.UUID]models.Article, len(loaded))
		for _, article := range loaded {
			articleByID[article.ID] = article
		}

		now := s.now()
		order := &models.Order{
			ID:                uuid.New(),
			OrderNumber:       orders.NewOrderNumber(now),
			UserID:            input.UserID,
			Status:            enums.OrderStatusPending,
			Currency:          enums.CurrencyUSD,
			ShippingAddressID: input.ShippingAddressID,
			BillingAddressID:  input.BillingAddressID,
		}

		items := make([]models.OrderItem, 0, len(userCart.Lines))
		quoteLines := make([]pricing.Line, 0, len(userCart.Lines))
		usedPromotions := map[uuid.UUID]struct{}{}

		for _, line := range userCart.Lines {
			article, ok := articleByID[line.ArticleID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "article no longer exists").
					WithDetails(map[string]any{"article_id": line.ArticleID})
			}

			// Last authoritative stock check. The conditional decrement
			// fails the whole transaction when another checkout won the
			// remaining stock.
			if err := s.stock.Deduct(ctx, tx, line.ArticleID, line.Quantity, enums.StockMovementReferenceOrder, order.ID); err != nil {
				return err
			}
			if err := articles.IncrementTotalSold(ctx, line.ArticleID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment total sold")
			}

			items = append(items, models.OrderItem{
				OrderID:        order.ID,
				ArticleID:      line.ArticleID,
				Title:          article.Title,
				Artist:         article.Artist,
				MediaType:      article.MediaType,
				Quantity:       line.Quantity,
				UnitPriceCents: line.UnitPriceCents,
				DiscountCents:  line.DiscountCents,
				TotalCents:     line.LineTotalCents(),
				PromotionID:    line.PromotionID,
			})
			quoteLines = append(quoteLines, pricing.Line{
				UnitPriceCents: line.UnitPriceCents,
				Quantity:       line.Quantity,
				DiscountCents:  line.DiscountCents,
			})
			if line.PromotionID != nil {
				usedPromotions[*line.PromotionID] = struct{}{}
			}
		}

		totals := s.calc.Quote(quoteLines)
		order.SubtotalCents = totals.SubtotalCents
		order.TaxCents = totals.TaxCents
		order.ShippingCents = totals.ShippingCents
		order.DiscountCents = totals.DiscountCents
		order.TotalCents = totals.TotalCents
		order.TotalItems = totals.TotalItems

		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		payment := &models.Payment{
			OrderID:         order.ID,
			PaymentMethodID: input.PaymentMethodID,
			CardID:          input.CardID,
			Status:          enums.PaymentStatusPending,
			AmountCents:     order.TotalCents,
		}
		if _, err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		if _, err := repo.CreateInvoice(ctx, orders.InvoiceForOrder(order, now)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}

		if err := carts.DeleteLines(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart lines")
		}
		if err := carts.UpdateAggregates(ctx, userCart.ID, 0, 0); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset cart aggregates")
		}

		if err := repo.IncrementUserAggregates(ctx, input.UserID, order.TotalCents); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user aggregates")
		}

		// Usage is counted at order-confirm time, atomically with the
		// order items referencing the promotion.
		for promotionID := range usedPromotions {
			if err := promos.IncrementUsage(ctx, promotionID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment promotion usage")
			}
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.OrderCreated(ctx, input.UserID, created)
	}

	return &Result{
		OrderID:     created.ID,
		OrderNumber: created.OrderNumber,
		Status:      created.Status,
		TotalCents:  created.TotalCents,
		Currency:    created.Currency,
		TotalItems:  created.TotalItems,
		CreatedAt:   created.CreatedAt,
	}, nil
}

func (s *service) checkAddress(ctx context.Context, repo Repository, addressID, userID uuid.UUID) error {
	address, err := repo.FindAddress(ctx, addressID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found").
				WithDetails(map[string]any{"address_id": addressID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to user")
	}
	return nil
}

func (s *service) checkCard(ctx context.Context, repo Repository, cardID, userID uuid.UUID) error {
	card, err := repo.FindCard(ctx, cardID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load card")
	}
	if card.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "card does not belong to user")
	}
	if !card.IsActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "card is not active")
	}
	return nil
}
