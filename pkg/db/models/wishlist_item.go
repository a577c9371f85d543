package models

import (
	"time"

	"github.com/google/uuid"
)

type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_wishlist_user_article"`
	ArticleID uuid.UUID `gorm:"column:article_id;type:uuid;not null;uniqueIndex:idx_wishlist_user_article"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Article *Article `gorm:"foreignKey:ArticleID"`
}
