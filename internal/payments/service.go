package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/internal/orders"
	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier is told about completed payments after the transaction commits.
type Notifier interface {
	PaymentCompleted(ctx context.Context, userID uuid.UUID, order *models.Order, payment *models.Payment)
}

// ProcessInput identifies the order being paid and how.
type ProcessInput struct {
	OrderID         uuid.UUID
	UserID          uuid.UUID
	PaymentMethodID uuid.UUID
	CardID          *uuid.UUID
	AmountCents     int
}

// Result summarizes a processed payment.
type Result struct {
	PaymentID      uuid.UUID           `json:"payment_id"`
	OrderID        uuid.UUID           `json:"order_id"`
	OrderStatus    enums.OrderStatus   `json:"order_status"`
	Status         enums.PaymentStatus `json:"status"`
	AmountCents    int                 `json:"amount_cents"`
	TransactionRef string              `json:"transaction_ref"`
	ProcessedAt    time.Time           `json:"processed_at"`
}

// Service confirms payment for pending orders.
type Service interface {
	Process(ctx context.Context, input ProcessInput) (*Result, error)
}

type service struct {
	repo     Repository
	gateway  Gateway
	tx       txRunner
	notifier Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a payments service. The notifier may be nil.
func NewService(repo Repository, gateway Gateway, tx txRunner, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		gateway:  gateway,
		tx:       tx,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Process confirms payment for a pending order: the amount must match the
// order total exactly, at most one completed payment may exist per order,
// and a successful charge moves the order to processing. A declined charge
// marks the pending payment failed and the decline is reported to the
// caller.
func (s *service) Process(ctx context.Context, input ProcessInput) (*Result, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PaymentMethodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method id required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var (
		order      *models.Order
		payment    *models.Payment
		chargeErr  error
		processedA time.Time
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		order, err = repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already processed").
				WithDetails(map[string]any{"status": order.Status})
		}
		if input.AmountCents != order.TotalCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "amount does not match order total").
				WithDetails(map[string]any{
					"expected_cents": order.TotalCents,
					"received_cents": input.AmountCents,
				})
		}

		if _, err := repo.FindCompletedPayment(ctx, order.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already has a completed payment")
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check completed payment")
		}

		if err := s.checkInstrument(ctx, repo, input); err != nil {
			return err
		}

		payment, err = repo.FindPendingPayment(ctx, order.ID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending payment")
		}
		if err == gorm.ErrRecordNotFound {
			payment, err = repo.CreatePayment(ctx, &models.Payment{
				OrderID:         order.ID,
				PaymentMethodID: input.PaymentMethodID,
				CardID:          input.CardID,
				Status:          enums.PaymentStatusPending,
				AmountCents:     input.AmountCents,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
			}
		}

		result, err := s.gateway.Charge(ctx, ChargeInput{
			OrderID:     order.ID,
			UserID:      input.UserID,
			AmountCents: input.AmountCents,
			Currency:    string(order.Currency),
		})
		if err != nil {
			// Commit the failed attempt so the decline is visible; the
			// order stays pending for a retry.
			reason := err.Error()
			if uerr := repo.UpdatePayment(ctx, payment.ID, map[string]any{
				"status":         enums.PaymentStatusFailed,
				"failure_reason": reason,
			}); uerr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, uerr, "record failed payment")
			}
			chargeErr = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway declined charge")
			return nil
		}

		processedA = s.now()
		updates := map[string]any{
			"status":            enums.PaymentStatusCompleted,
			"payment_method_id": input.PaymentMethodID,
			"transaction_ref":   result.TransactionRef,
			"gateway_id":        result.GatewayID,
			"processed_at":      processedA,
		}
		if input.CardID != nil {
			updates["card_id"] = *input.CardID
		}
		if err := repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
		}

		if _, err := repo.FindInvoiceByOrder(ctx, order.ID); err == gorm.ErrRecordNotFound {
			if _, err := repo.CreateInvoice(ctx, orders.InvoiceForOrder(order, processedA)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
			}
		} else if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
		}

		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": enums.OrderStatusProcessing}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance order status")
		}

		payment, err = repo.FindPayment(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		order, err = repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if chargeErr != nil {
		return nil, chargeErr
	}

	if s.notifier != nil {
		s.notifier.PaymentCompleted(ctx, order.UserID, order, payment)
	}

	out := &Result{
		PaymentID:   payment.ID,
		OrderID:     order.ID,
		OrderStatus: order.Status,
		Status:      payment.Status,
		AmountCents: payment.AmountCents,
		ProcessedAt: processedA,
	}
	if payment.TransactionRef != nil {
		out.TransactionRef = *payment.TransactionRef
	}
	return out, nil
}

func (s *service) checkInstrument(ctx context.Context, repo Repository, input ProcessInput) error {
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
	if !method.RequiresCard {
		return nil
	}
	if input.CardID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method requires a card")
	}

	card, err := repo.FindCard(ctx, *input.CardID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load card")
	}
	if card.UserID != input.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "card does not belong to user")
	}
	if !card.IsActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "card is not active")
	}
	return nil
}
