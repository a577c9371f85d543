package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/spinshelf/spinshelf-backend/pkg/enums"
)

// Article is a sellable physical media item. StockQuantity is mutated only
// through stock-movement operations (checkout, cancellation, manual
// adjustment), never written directly by handlers.
type Article struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string          `gorm:"column:title;not null"`
	Artist        string          `gorm:"column:artist;not null"`
	MediaType     enums.MediaType `gorm:"column:media_type;type:media_type;not null"`
	Genre         string          `gorm:"column:genre;not null"`
	PriceCents    int             `gorm:"column:price_cents;not null"`
	Currency      enums.Currency  `gorm:"column:currency;not null;default:'USD'"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	MinStockLevel int             `gorm:"column:min_stock_level;not null;default:0"`
	MaxStockLevel int             `gorm:"column:max_stock_level;not null;default:0"`
	IsAvailable   bool            `gorm:"column:is_available;not null"`
	IsPreorder    bool            `gorm:"column:is_preorder;not null;default:false"`
	TotalSold     int             `gorm:"column:total_sold;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
