package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is the billing document derived from an order's totals. The
// unique index on OrderID enforces at-most-one invoice per order.
type Invoice struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	InvoiceNumber string    `gorm:"column:invoice_number;not null;uniqueIndex"`
	SubtotalCents int       `gorm:"column:subtotal_cents;not null"`
	TaxCents      int       `gorm:"column:tax_cents;not null"`
	ShippingCents int       `gorm:"column:shipping_cents;not null"`
	DiscountCents int       `gorm:"column:discount_cents;not null"`
	TotalCents    int       `gorm:"column:total_cents;not null"`
	IssuedAt      time.Time `gorm:"column:issued_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
