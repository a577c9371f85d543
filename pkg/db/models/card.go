package models

import (
	"time"

	"github.com/google/uuid"
)

// Card is a stored payment card. Only the masked number is persisted; card
// management itself is handled by the billing collaborator.
type Card struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Brand        string    `gorm:"column:brand;not null"`
	MaskedNumber string    `gorm:"column:masked_number;not null"`
	ExpiryMonth  int       `gorm:"column:expiry_month;not null"`
	ExpiryYear   int       `gorm:"column:expiry_year;not null"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
