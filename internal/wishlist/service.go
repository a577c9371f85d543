package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
	"github.com/spinshelf/spinshelf-backend/pkg/pagination"
)

// Service exposes business rules for wishlist management.
type Service interface {
	Add(ctx context.Context, userID, articleID uuid.UUID) error
	Remove(ctx context.Context, userID, articleID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
}

type service struct {
	repo     Repository
	articles catalog.Repository
	logg     *logger.Logger
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo Repository, articles catalog.Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if articles == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, articles: articles, logg: logg}, nil
}

// Add ensures the article exists and records the like. Duplicates are a
// no-op.
func (s *service) Add(ctx context.Context, userID, articleID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if articleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}
	if _, err := s.articles.FindArticle(ctx, articleID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load article")
	}
	if err := s.repo.Add(ctx, userID, articleID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist entry")
	}
	return nil
}

// Remove drops the entry regardless of prior state.
func (s *service) Remove(ctx context.Context, userID, articleID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if articleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}
	if err := s.repo.Remove(ctx, userID, articleID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return page, nil
}
