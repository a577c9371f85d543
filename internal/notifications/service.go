package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
	"github.com/spinshelf/spinshelf-backend/pkg/pagination"
)

// Service persists customer notifications and exposes the inbox surface.
// The Order*/Payment* hooks are fire-and-forget: write failures are logged
// and never propagate to the calling workflow.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)

	OrderCreated(ctx context.Context, userID uuid.UUID, order *models.Order)
	OrderCancelled(ctx context.Context, userID uuid.UUID, order *models.Order)
	OrderShipped(ctx context.Context, userID uuid.UUID, order *models.Order)
	PaymentCompleted(ctx context.Context, userID uuid.UUID, order *models.Order, payment *models.Payment)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds a notifications service with the required dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return page, nil
}

func (s *service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*models.Notification, error) {
	if notificationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	notification, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	if notification.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "notification does not belong to user")
	}
	if notification.IsRead() {
		return notification, nil
	}

	if err := s.repo.MarkRead(ctx, notification.ID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return s.repo.FindByID(ctx, notification.ID)
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) OrderCreated(ctx context.Context, userID uuid.UUID, order *models.Order) {
	s.record(ctx, userID, enums.NotificationOrderCreated,
		"Order confirmed",
		fmt.Sprintf("Your order %s has been placed.", order.OrderNumber))
}

func (s *service) OrderCancelled(ctx context.Context, userID uuid.UUID, order *models.Order) {
	s.record(ctx, userID, enums.NotificationOrderCancelled,
		"Order cancelled",
		fmt.Sprintf("Your order %s has been cancelled and stock released.", order.OrderNumber))
}

func (s *service) OrderShipped(ctx context.Context, userID uuid.UUID, order *models.Order) {
	s.record(ctx, userID, enums.NotificationOrderShipped,
		"Order shipped",
		fmt.Sprintf("Your order %s is on its way.", order.OrderNumber))
}

func (s *service) PaymentCompleted(ctx context.Context, userID uuid.UUID, order *models.Order, payment *models.Payment) {
	s.record(ctx, userID, enums.NotificationPaymentReceipt,
		"Payment received",
		fmt.Sprintf("We received your payment of %d cents for order %s.", payment.AmountCents, order.OrderNumber))
}

func (s *service) record(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, body string) {
	if userID == uuid.Nil {
		return
	}
	_, err := s.repo.Create(ctx, &models.Notification{
		UserID: userID,
		Type:   kind,
		Title:  title,
		Body:   body,
	})
	if err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"type":    kind.String(),
		})
		s.logg.Error(ctx, "notification write failed", err)
	}
}
