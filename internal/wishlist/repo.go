package wishlist

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	"github.com/spinshelf/spinshelf-backend/pkg/pagination"
)

// Entry is one wishlist row joined with the article it points at.
type Entry struct {
	ID          uuid.UUID       `gorm:"column:wishlist_id" json:"id"`
	ArticleID   uuid.UUID       `gorm:"column:article_id" json:"article_id"`
	Title       string          `gorm:"column:title" json:"title"`
	Artist      string          `gorm:"column:artist" json:"artist"`
	MediaType   enums.MediaType `gorm:"column:media_type" json:"media_type"`
	PriceCents  int             `gorm:"column:price_cents" json:"price_cents"`
	IsAvailable bool            `gorm:"column:is_available" json:"is_available"`
	CreatedAt   time.Time       `gorm:"column:wishlist_created_at" json:"created_at"`
}

// Page is a cursor-paginated wishlist view.
type Page struct {
	Items      []Entry `json:"items"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// Repository encapsulates wishlist persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Add(ctx context.Context, userID, articleID uuid.UUID) error
	Remove(ctx context.Context, userID, articleID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wishlist repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Add inserts a wishlist entry and ignores duplicates.
func (r *repository) Add(ctx context.Context, userID, articleID uuid.UUID) error {
	if userID == uuid.Nil || articleID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (id, user_id, article_id, created_at)
		      VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		      ON CONFLICT (user_id, article_id) DO NOTHING`,
			uuid.New(), userID, articleID).
		Error
}

// Remove deletes the entry if it exists.
func (r *repository) Remove(ctx context.Context, userID, articleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&models.WishlistItem{}).
		Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select(strings.Join([]string{
			"wi.id AS wishlist_id",
			"wi.created_at AS wishlist_created_at",
			"a.id AS article_id",
			"a.title",
			"a.artist",
			"a.media_type",
			"a.price_cents",
			"a.is_available",
		}, ", ")).
		Joins("JOIN articles a ON a.id = wi.article_id").
		Where("wi.user_id = ?", userID)

	if cursor != nil {
		query = query.Where("(wi.created_at < ?) OR (wi.created_at = ? AND wi.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var records []Entry
	err = query.
		Order("wi.created_at DESC").
		Order("wi.id DESC").
		Limit(limitWithBuffer).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	page := &Page{Items: records}
	if len(records) > normalizedLimit {
		page.Items = records[:normalizedLimit]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}
