package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
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

// StockRestorer puts cancelled quantities back inside the cancel transaction.
type StockRestorer interface {
	Restore(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, qty int, reference enums.StockMovementReference, referenceID uuid.UUID) error
}

// UserAggregateReverser unwinds the checkout-time user aggregates.
type UserAggregateReverser interface {
	DecrementUserAggregates(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int) error
}

// Notifier is told about state changes after the transaction commits.
type Notifier interface {
	OrderCancelled(ctx context.Context, userID uuid.UUID, order *models.Order)
	OrderShipped(ctx context.Context, userID uuid.UUID, order *models.Order)
}

// Service covers order reads, cancellation and the invoice surface.
type Service interface {
	Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID, reason string) (*models.Order, error)
	GetInvoice(ctx context.Context, orderID, userID uuid.UUID) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo     Repository
	stock    StockRestorer
	users    UserAggregateReverser
	tx       txRunner
	notifier Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds an orders service with the required dependencies.
// The notifier and user aggregate reverser may be nil.
func NewService(repo Repository, stock StockRestorer, users UserAggregateReverser, tx txRunner, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock restorer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		stock:    stock,
		users:    users,
		tx:       tx,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOwned(ctx, s.repo, orderID, userID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

func (s *service) Cancel(ctx context.Context, orderID, userID uuid.UUID, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOwned(ctx, repo, orderID, userID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already final").
				WithDetails(map[string]any{"status": order.Status})
		}

		items, err := repo.FindItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}
		for _, item := range items {
			if err := s.stock.Restore(ctx, tx, item.ArticleID, item.Quantity, enums.StockMovementReferenceCancellation, order.ID); err != nil {
				return err
			}
		}

		now := s.now()
		notes := append(pq.StringArray{}, order.Notes...)
		notes = append(notes, fmt.Sprintf("cancelled: %s", reason))
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
			"notes":        notes,
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		if s.users != nil {
			if err := s.users.DecrementUserAggregates(ctx, tx, order.UserID, order.TotalCents); err != nil {
				return err
			}
		}

		cancelled, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.OrderCancelled(ctx, cancelled.UserID, cancelled)
	}
	return cancelled, nil
}

// GetInvoice returns the order's invoice, creating it from the order's
// totals on first access. The unique index on order_id makes concurrent
// first calls collapse to a single row.
func (s *service) GetInvoice(ctx context.Context, orderID, userID uuid.UUID) (*models.Invoice, error) {
	order, err := s.loadOwned(ctx, s.repo, orderID, userID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.repo.FindInvoiceByOrder(ctx, order.ID)
	if err == nil {
		return invoice, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}

	created, err := s.repo.CreateInvoice(ctx, InvoiceForOrder(order, s.now()))
	if err != nil {
		// Lost the race to another request; the existing row wins.
		if existing, ferr := s.repo.FindInvoiceByOrder(ctx, order.ID); ferr == nil {
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
	}
	return created, nil
}

// UpdateStatus moves an order along the fulfillment legs of the state
// machine. Cancellation goes through Cancel so stock is restored.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if target == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation must go through the cancel operation")
	}

	var (
		updated *models.Order
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == target {
			updated = order
			return nil
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{
					"from": order.Status,
					"to":   target,
				})
		}

		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": target}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed && target == enums.OrderStatusShipped && s.notifier != nil {
		s.notifier.OrderShipped(ctx, updated.UserID, updated)
	}
	return updated, nil
}

func (s *service) loadOwned(ctx context.Context, repo Repository, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}
