package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/spinshelf/spinshelf-backend/pkg/enums"
)

// Payment tracks one payment attempt against an order. AmountCents must
// equal the order total; at most one completed payment may exist per order.
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	PaymentMethodID uuid.UUID           `gorm:"column:payment_method_id;type:uuid;not null"`
	CardID          *uuid.UUID          `gorm:"column:card_id;type:uuid"`
	Status          enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	AmountCents     int                 `gorm:"column:amount_cents;not null"`
	TransactionRef  *string             `gorm:"column:transaction_ref"`
	GatewayID       *string             `gorm:"column:gateway_id"`
	FailureReason   *string             `gorm:"column:failure_reason"`
	ProcessedAt     *time.Time          `gorm:"column:processed_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
