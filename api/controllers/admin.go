package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spinshelf/spinshelf-backend/api/responses"
	"github.com/spinshelf/spinshelf-backend/api/validators"
	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	"github.com/spinshelf/spinshelf-backend/internal/orders"
	"github.com/spinshelf/spinshelf-backend/internal/promotions"
	"github.com/spinshelf/spinshelf-backend/pkg/enums"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

type createArticlePayload struct {
	Title         string `json:"title" validate:"required,min=1,max=255"`
	Artist        string `json:"artist" validate:"required,min=1,max=255"`
	MediaType     string `json:"media_type" validate:"required"`
	Genre         string `json:"genre" validate:"required,min=1,max=100"`
	PriceCents    int    `json:"price_cents" validate:"required,min=1"`
	Currency      string `json:"currency" validate:"required"`
	StockQuantity int    `json:"stock_quantity" validate:"min=0"`
	MinStockLevel int    `json:"min_stock_level" validate:"min=0"`
	MaxStockLevel int    `json:"max_stock_level" validate:"min=0"`
	IsPreorder    bool   `json:"is_preorder"`
}

type updateArticlePayload struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=255"`
	Artist        *string `json:"artist" validate:"omitempty,min=1,max=255"`
	Genre         *string `json:"genre" validate:"omitempty,min=1,max=100"`
	PriceCents    *int    `json:"price_cents" validate:"omitempty,min=1"`
	MinStockLevel *int    `json:"min_stock_level" validate:"omitempty,min=0"`
	MaxStockLevel *int    `json:"max_stock_level" validate:"omitempty,min=0"`
	IsAvailable   *bool   `json:"is_available"`
	IsPreorder    *bool   `json:"is_preorder"`
}

type adjustStockPayload struct {
	Direction string `json:"direction" validate:"required,oneof=entry exit"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Reason    string `json:"reason" validate:"required,min=3,max=500"`
}

type createPromotionPayload struct {
	Name            string     `json:"name" validate:"required,min=1,max=255"`
	Type            string     `json:"type" validate:"required"`
	DiscountPercent string     `json:"discount_percent" validate:"required"`
	MaxItems        int        `json:"max_items" validate:"required,min=1"`
	Genre           *string    `json:"genre" validate:"omitempty,min=1,max=100"`
	IsTimeLimited   bool       `json:"is_time_limited"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
}

type updatePromotionPayload struct {
	Name            *string    `json:"name" validate:"omitempty,min=1,max=255"`
	DiscountPercent *string    `json:"discount_percent"`
	MaxItems        *int       `json:"max_items" validate:"omitempty,min=1"`
	Genre           *string    `json:"genre" validate:"omitempty,min=1,max=100"`
	IsActive        *bool      `json:"is_active"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
}

type updateOrderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// AdminArticleCreate adds a new catalog article.
func AdminArticleCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload createArticlePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		mediaType, err := enums.ParseMediaType(payload.MediaType)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media type"))
			return
		}
		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		article, err := svc.CreateArticle(ctx, catalog.CreateArticleInput{
			Title:         payload.Title,
			Artist:        payload.Artist,
			MediaType:     mediaType,
			Genre:         payload.Genre,
			PriceCents:    payload.PriceCents,
			Currency:      currency,
			StockQuantity: payload.StockQuantity,
			MinStockLevel: payload.MinStockLevel,
			MaxStockLevel: payload.MaxStockLevel,
			IsPreorder:    payload.IsPreorder,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, article)
	}
}

// AdminArticleUpdate edits catalog fields. Stock only moves through
// the stock-adjustment endpoint.
func AdminArticleUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		articleID, err := uuidURLParam(r, "articleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateArticlePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		article, err := svc.UpdateArticle(ctx, articleID, catalog.UpdateArticleInput{
			Title:         payload.Title,
			Artist:        payload.Artist,
			Genre:         payload.Genre,
			PriceCents:    payload.PriceCents,
			MinStockLevel: payload.MinStockLevel,
			MaxStockLevel: payload.MaxStockLevel,
			IsAvailable:   payload.IsAvailable,
			IsPreorder:    payload.IsPreorder,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

// AdminStockAdjust applies a manual inventory correction and records the movement.
func AdminStockAdjust(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		articleID, err := uuidURLParam(r, "articleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload adjustStockPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		direction := enums.StockMovementDirection(payload.Direction)
		if !direction.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "direction must be entry or exit"))
			return
		}

		article, err := svc.AdjustStock(ctx, catalog.AdjustStockInput{
			ArticleID: articleID,
			Direction: direction,
			Quantity:  payload.Quantity,
			Reason:    payload.Reason,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

// AdminStockMovements lists the most recent movements for one article.
func AdminStockMovements(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		articleID, err := uuidURLParam(r, "articleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		movements, err := svc.ListStockMovements(ctx, articleID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, movements)
	}
}

// AdminPromotionCreate registers a new promotion.
func AdminPromotionCreate(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload createPromotionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promoType, err := enums.ParsePromotionType(payload.Type)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion type"))
			return
		}
		discount, err := decimal.NewFromString(payload.DiscountPercent)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount percent"))
			return
		}

		promotion, err := svc.Create(ctx, promotions.CreateInput{
			Name:            payload.Name,
			Type:            promoType,
			DiscountPercent: discount,
			MaxItems:        payload.MaxItems,
			Genre:           payload.Genre,
			IsTimeLimited:   payload.IsTimeLimited,
			StartsAt:        payload.StartsAt,
			EndsAt:          payload.EndsAt,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promotion)
	}
}

// AdminPromotionUpdate edits an existing promotion.
func AdminPromotionUpdate(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		promotionID, err := uuidURLParam(r, "promotionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updatePromotionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var discount *decimal.Decimal
		if payload.DiscountPercent != nil {
			parsed, err := decimal.NewFromString(*payload.DiscountPercent)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount percent"))
				return
			}
			discount = &parsed
		}

		promotion, err := svc.Update(ctx, promotionID, promotions.UpdateInput{
			Name:            payload.Name,
			DiscountPercent: discount,
			MaxItems:        payload.MaxItems,
			Genre:           payload.Genre,
			IsActive:        payload.IsActive,
			StartsAt:        payload.StartsAt,
			EndsAt:          payload.EndsAt,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, promotion)
	}
}

// AdminPromotionDetail returns one promotion.
func AdminPromotionDetail(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		promotionID, err := uuidURLParam(r, "promotionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promotion, err := svc.Get(ctx, promotionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, promotion)
	}
}

// AdminPromotionList lists promotions; ?active=true narrows to live ones.
func AdminPromotionList(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		onlyActive := r.URL.Query().Get("active") == "true"

		list, err := svc.List(ctx, onlyActive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminOrderUpdateStatus advances an order through the fulfilment pipeline.
func AdminOrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := uuidURLParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateOrderStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateStatus(ctx, orderID, target)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
