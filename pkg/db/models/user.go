package models

import (
	"time"

	"github.com/google/uuid"
)

// User carries the denormalized purchase aggregates maintained by
// checkout and cancellation. TotalSpentCents and TotalOrders only move
// inside the same transaction that creates or cancels an order.
type User struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string    `gorm:"column:email;not null;uniqueIndex"`
	DisplayName     string    `gorm:"column:display_name;not null"`
	PasswordHash    string    `gorm:"column:password_hash;not null"`
	TotalSpentCents int64     `gorm:"column:total_spent_cents;not null;default:0"`
	TotalOrders     int       `gorm:"column:total_orders;not null;default:0"`
	IsAdmin         bool      `gorm:"column:is_admin;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Addresses []Address `gorm:"foreignKey:UserID"`
	Cards     []Card    `gorm:"foreignKey:UserID"`
}
