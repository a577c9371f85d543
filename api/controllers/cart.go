package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/spinshelf/spinshelf-backend/api/responses"
	"github.com/spinshelf/spinshelf-backend/api/validators"
	"github.com/spinshelf/spinshelf-backend/internal/cart"
	"github.com/spinshelf/spinshelf-backend/internal/promotions"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

type addCartItemPayload struct {
	ArticleID string `json:"article_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type updateCartItemPayload struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type applyPromotionPayload struct {
	PromotionID string   `json:"promotion_id" validate:"required,uuid"`
	ArticleIDs  []string `json:"article_ids" validate:"required,min=1,dive,uuid"`
}

// CartFetch returns the caller's cart, creating an empty one on first use.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userCart, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, userCart)
	}
}

// CartAddItem adds an article to the cart, merging with an existing line.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		articleID, err := uuid.Parse(payload.ArticleID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid article id"))
			return
		}

		userCart, err := svc.AddItem(ctx, userID, articleID, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, userCart)
	}
}

// CartUpdateItem changes a line's quantity.
func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lineID, err := uuidURLParam(r, "lineId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userCart, err := svc.UpdateQuantity(ctx, userID, lineID, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, userCart)
	}
}

// CartRemoveItem deletes a line from the cart.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lineID, err := uuidURLParam(r, "lineId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userCart, err := svc.RemoveItem(ctx, userID, lineID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, userCart)
	}
}

// CartClear removes every line and zeroes the aggregates.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Clear(ctx, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

// CartApplyPromotion runs the promotion engine against the named cart lines.
func CartApplyPromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload applyPromotionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promotionID, err := uuid.Parse(payload.PromotionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion id"))
			return
		}
		articleIDs := make([]uuid.UUID, 0, len(payload.ArticleIDs))
		for _, raw := range payload.ArticleIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid article id"))
				return
			}
			articleIDs = append(articleIDs, id)
		}

		userCart, err := svc.Apply(ctx, promotions.ApplyInput{
			UserID:      userID,
			PromotionID: promotionID,
			ArticleIDs:  articleIDs,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, userCart)
	}
}
