package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is reference data describing how an order can be paid.
type PaymentMethod struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code         string    `gorm:"column:code;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;not null"`
	RequiresCard bool      `gorm:"column:requires_card;not null;default:false"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
