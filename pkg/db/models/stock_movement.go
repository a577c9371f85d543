package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/spinshelf/spinshelf-backend/pkg/enums"
)

// StockMovement is the append-only audit record for every stock change.
// Rows are never updated or deleted.
type StockMovement struct {
	ID            uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArticleID     uuid.UUID                    `gorm:"column:article_id;type:uuid;not null;index"`
	Direction     enums.StockMovementDirection `gorm:"column:direction;type:stock_movement_direction;not null"`
	Quantity      int                          `gorm:"column:quantity;not null"`
	PreviousStock int                          `gorm:"column:previous_stock;not null"`
	NewStock      int                          `gorm:"column:new_stock;not null"`
	Reason        string                       `gorm:"column:reason;not null"`
	ReferenceType enums.StockMovementReference `gorm:"column:reference_type;type:stock_movement_reference;not null"`
	ReferenceID   *uuid.UUID                   `gorm:"column:reference_id;type:uuid"`
	CreatedAt     time.Time                    `gorm:"column:created_at;autoCreateTime"`
}
