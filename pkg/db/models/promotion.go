package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spinshelf/spinshelf-backend/pkg/enums"
)

// Promotion is a CD-only discount rule. Genre promotions carry a genre and
// apply only to CDs of that genre; random promotions must not carry one.
type Promotion struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string              `gorm:"column:name;not null"`
	Type            enums.PromotionType `gorm:"column:type;type:promotion_type;not null"`
	DiscountPercent decimal.Decimal     `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	MaxItems        int                 `gorm:"column:max_items;not null"`
	Genre           *string             `gorm:"column:genre"`
	IsTimeLimited   bool                `gorm:"column:is_time_limited;not null;default:false"`
	StartsAt        *time.Time          `gorm:"column:starts_at"`
	EndsAt          *time.Time          `gorm:"column:ends_at"`
	IsActive        bool                `gorm:"column:is_active;not null"`
	UsageCount      int                 `gorm:"column:usage_count;not null;default:0"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// WithinWindow reports whether the promotion is usable at the given instant.
// Promotions without a time limit are always within window.
func (p Promotion) WithinWindow(now time.Time) bool {
	if !p.IsTimeLimited {
		return true
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}
