package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/spinshelf/spinshelf-backend/pkg/enums"
)

// Order is the immutable priced snapshot produced by checkout.
// TotalCents = SubtotalCents + TaxCents + ShippingCents - DiscountCents.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string            `gorm:"column:order_number;not null;uniqueIndex"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status            enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Currency          enums.Currency    `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents     int               `gorm:"column:subtotal_cents;not null"`
	TaxCents          int               `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents     int               `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents     int               `gorm:"column:discount_cents;not null;default:0"`
	TotalCents        int               `gorm:"column:total_cents;not null"`
	TotalItems        int               `gorm:"column:total_items;not null"`
	ShippingAddressID uuid.UUID         `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID  uuid.UUID         `gorm:"column:billing_address_id;type:uuid;not null"`
	Notes             pq.StringArray    `gorm:"column:notes;type:text[]"`
	CancelledAt       *time.Time        `gorm:"column:cancelled_at"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments          []Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Invoice           *Invoice          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
