package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/spinshelf/spinshelf-backend/api/responses"
	"github.com/spinshelf/spinshelf-backend/api/validators"
	"github.com/spinshelf/spinshelf-backend/internal/checkout"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

type checkoutPayload struct {
	ShippingAddressID string  `json:"shipping_address_id" validate:"required,uuid"`
	BillingAddressID  *string `json:"billing_address_id" validate:"omitempty,uuid"`
	PaymentMethodID   string  `json:"payment_method_id" validate:"required,uuid"`
	CardID            *string `json:"card_id" validate:"omitempty,uuid"`
}

// CheckoutExecute converts the caller's cart into an order in a single transaction.
func CheckoutExecute(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload checkoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		shippingID, err := uuid.Parse(payload.ShippingAddressID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address id"))
			return
		}
		billingID := shippingID
		if payload.BillingAddressID != nil {
			billingID, err = uuid.Parse(*payload.BillingAddressID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing address id"))
				return
			}
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

		result, err := svc.Execute(ctx, checkout.ExecuteInput{
			UserID:            userID,
			ShippingAddressID: shippingID,
			BillingAddressID:  billingID,
			PaymentMethodID:   paymentMethodID,
			CardID:            cardID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
