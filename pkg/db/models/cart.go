package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the single mutable cart a user owns. TotalItems and SubtotalCents
// are cached aggregates recomputed inside the same transaction as every
// line mutation, so readers never observe stale values.
type Cart struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	TotalItems    int        `gorm:"column:total_items;not null;default:0"`
	SubtotalCents int        `gorm:"column:subtotal_cents;not null;default:0"`
	Lines         []CartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
