package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/spinshelf/spinshelf-backend/api/responses"
	"github.com/spinshelf/spinshelf-backend/api/validators"
	"github.com/spinshelf/spinshelf-backend/internal/payments"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

type processPaymentPayload struct {
	OrderID         string  `json:"order_id" validate:"required,uuid"`
	PaymentMethodID string  `json:"payment_method_id" validate:"required,uuid"`
	CardID          *string `json:"card_id" validate:"omitempty,uuid"`
	AmountCents     int     `json:"amount_cents" validate:"required,min=1"`
}

// PaymentProcess charges a pending order and moves it to processing.
func PaymentProcess(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload processPaymentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		paymentMethodID, err := uuid.Parse(payload.PaymentMethodID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method id"))
			return
		}
		var cardID *uuid.UUID
		if payload.CardID != nil {
			id, err := uuid.Parse(*payload.CardID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid card id"))
				return
			}
			cardID = &id
		}

		result, err := svc.Process(ctx, payments.ProcessInput{
			OrderID:         orderID,
			UserID:          userID,
			PaymentMethodID: paymentMethodID,
			CardID:          cardID,
			AmountCents:     payload.AmountCents,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
