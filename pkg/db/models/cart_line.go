package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one article entry in a cart. UnitPriceCents snapshots the
// article price at add time; DiscountCents is set by promotion application.
type CartLine struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;index"`
	ArticleID      uuid.UUID  `gorm:"column:article_id;type:uuid;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	DiscountCents  int        `gorm:"column:discount_cents;not null;default:0"`
	PromotionID    *uuid.UUID `gorm:"column:promotion_id;type:uuid"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// LineTotalCents returns unit price x quantity minus the applied discount.
func (l CartLine) LineTotalCents() int {
	return l.UnitPriceCents*l.Quantity - l.DiscountCents
}
