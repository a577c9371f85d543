package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	"github.com/spinshelf/spinshelf-backend/pkg/pagination"
)

// Repository exposes article reads and the stock primitives every other
// domain goes through to touch inventory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateArticle(ctx context.Context, article *models.Article) (*models.Article, error)
	FindArticle(ctx context.Context, id uuid.UUID) (*models.Article, error)
	FindArticles(ctx context.Context, ids []uuid.UUID) ([]models.Article, error)
	ListArticles(ctx context.Context, filters ArticleFilters, params pagination.Params) (*ArticlePage, error)
	UpdateArticle(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DecrementStock(ctx context.Context, articleID uuid.UUID, qty int) (bool, error)
	IncrementStock(ctx context.Context, articleID uuid.UUID, qty int) error
	IncrementTotalSold(ctx context.Context, articleID uuid.UUID, qty int) error
	CreateStockMovement(ctx context.Context, movement *models.StockMovement) error
	ListStockMovements(ctx context.Context, articleID uuid.UUID, limit int) ([]models.StockMovement, error)
}

// ArticleFilters narrows catalog listings.
type ArticleFilters struct {
	MediaType     *enums.MediaType
	Genre         *string
	Artist        *string
	OnlyAvailable bool
}

// ArticlePage is one cursor-paginated slice of the catalog.
type ArticlePage struct {
	Items      []models.Article `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateArticle(ctx context.Context, article *models.Article) (*models.Article, error) {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		return nil, err
	}
	return article, nil
}

func (r *repository) FindArticle(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *repository) FindArticles(ctx context.Context, ids []uuid.UUID) ([]models.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var articles []models.Article
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *repository) ListArticles(ctx context.Context, filters ArticleFilters, params pagination.Params) (*ArticlePage, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Model(&models.Article{})
	if filters.MediaType != nil {
		q = q.Where("media_type = ?", *filters.MediaType)
	}
	if filters.Genre != nil {
		q = q.Where("genre = ?", *filters.Genre)
	}
	if filters.Artist != nil {
		q = q.Where("artist = ?", *filters.Artist)
	}
	if filters.OnlyAvailable {
		q = q.Where("is_available = ?", true)
	}
	if decodedCursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var articles []models.Article
	err = q.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&articles).Error
	if err != nil {
		return nil, err
	}

	page := &ArticlePage{Items: articles}
	if len(articles) > normalizedLimit {
		page.Items = articles[:normalizedLimit]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (r *repository) UpdateArticle(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DecrementStock atomically subtracts qty when enough stock remains. The
// conditional UPDATE is the serialization point that keeps stock_quantity
// from ever dropping below zero under concurrent checkouts.
func (r *repository) DecrementStock(ctx context.Context, articleID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE articles
		 SET stock_quantity = stock_quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND stock_quantity >= ?`,
		qty, articleID, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) IncrementStock(ctx context.Context, articleID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE articles
		 SET stock_quantity = stock_quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		qty, articleID,
	).Error
}

func (r *repository) IncrementTotalSold(ctx context.Context, articleID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE articles
		 SET total_sold = total_sold + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		qty, articleID,
	).Error
}

func (r *repository) CreateStockMovement(ctx context.Context, movement *models.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListStockMovements(ctx context.Context, articleID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	var movements []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
