package controllers

import (
	"net/http"
	"time"

	"github.com/spinshelf/spinshelf-backend/api/responses"
	"github.com/spinshelf/spinshelf-backend/api/validators"
	"github.com/spinshelf/spinshelf-backend/internal/users"
	pkgAuth "github.com/spinshelf/spinshelf-backend/pkg/auth"
	"github.com/spinshelf/spinshelf-backend/pkg/config"
	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
	pkgerrors "github.com/spinshelf/spinshelf-backend/pkg/errors"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
)

type registerPayload struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=120"`
	Password    string `json:"password" validate:"required,min=8"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	DisplayName     string `json:"display_name"`
	TotalSpentCents int64  `json:"total_spent_cents"`
	TotalOrders     int    `json:"total_orders"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:              user.ID.String(),
		Email:           user.Email,
		DisplayName:     user.DisplayName,
		TotalSpentCents: user.TotalSpentCents,
		TotalOrders:     user.TotalOrders,
	}
}

// AuthRegister creates an account and returns a signed session token.
func AuthRegister(svc users.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload registerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Register(ctx, users.RegisterInput{
			Email:       payload.Email,
			DisplayName: payload.DisplayName,
			Password:    payload.Password,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		token, err := pkgAuth.MintAccessToken(jwtCfg, time.Now(), user.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			Token: token,
			User:  toUserResponse(user),
		})
	}
}

// AuthLogin verifies credentials and returns a signed session token.
func AuthLogin(svc users.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload loginPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Authenticate(ctx, payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		token, err := pkgAuth.MintAccessToken(jwtCfg, time.Now(), user.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccess(w, sessionResponse{
			Token: token,
			User:  toUserResponse(user),
		})
	}
}

// UserProfile returns the authenticated account including the lifetime
// spend aggregates.
func UserProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUserResponse(user))
	}
}
