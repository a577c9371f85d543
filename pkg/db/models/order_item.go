package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/spinshelf/spinshelf-backend/pkg/enums"
)

// OrderItem snapshots one cart line at checkout time. It is decoupled from
// the live article so historical orders stay immutable when prices change.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ArticleID      uuid.UUID       `gorm:"column:article_id;type:uuid;not null"`
	Title          string          `gorm:"column:title;not null"`
	Artist         string          `gorm:"column:artist;not null"`
	MediaType      enums.MediaType `gorm:"column:media_type;type:media_type;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPriceCents int             `gorm:"column:unit_price_cents;not null"`
	DiscountCents  int             `gorm:"column:discount_cents;not null;default:0"`
	TotalCents     int             `gorm:"column:total_cents;not null"`
	PromotionID    *uuid.UUID      `gorm:"column:promotion_id;type:uuid"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
