package controllers

import (
	"net/http"
	"strings"

	"github.com/spinshelf/spinshelf-backend/api/responses"
	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

// ArticleList serves the public catalog with optional filters and cursor
// pagination.
func ArticleList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filters := catalog.ArticleFilters{OnlyAvailable: true}
		if raw := strings.TrimSpace(r.URL.Query().Get("media_type")); raw != "" {
			mediaType, err := enums.ParseMediaType(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media type"))
				return
			}
			filters.MediaType = &mediaType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("genre")); raw != "" {
			filters.Genre = &raw
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("artist")); raw != "" {
			filters.Artist = &raw
		}

		page, err := svc.ListArticles(ctx, filters, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ArticleDetail serves one catalog article.
func ArticleDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		articleID, err := uuidURLParam(r, "articleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		article, err := svc.GetArticle(ctx, articleID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}
