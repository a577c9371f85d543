package promotions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
)

// Repository persists promotion rules.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, promotion *models.Promotion) (*models.Promotion, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context, onlyActive bool) ([]models.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a promotions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, promotion *models.Promotion) (*models.Promotion, error) {
	if promotion.ID == uuid.Nil {
		promotion.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(promotion).Error; err != nil {
		return nil, err
	}
	return promotion, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&promotion).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]models.Promotion, error) {
	q := r.db.WithContext(ctx).Model(&models.Promotion{})
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	var promotions []models.Promotion
	if err := q.Order("created_at DESC").Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE promotions
		 SET usage_count = usage_count + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		id,
	).Error
}
