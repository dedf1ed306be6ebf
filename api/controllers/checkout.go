package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/meadowcart/storefront-backend/api/middleware"
	"github.com/meadowcart/storefront-backend/api/responses"
	"github.com/meadowcart/storefront-backend/api/validators"
	checkoutsvc "github.com/meadowcart/storefront-backend/internal/checkout"
	pkgerrors "github.com/meadowcart/storefront-backend/pkg/errors"
	"github.com/meadowcart/storefront-backend/pkg/logger"
)

// Checkout submits the signed-in user's cart as an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkoutsvc.CheckoutItem, 0, len(payload.CartItems))
		for _, line := range payload.CartItems {
			items = append(items, checkoutsvc.CheckoutItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}

		placed, err := svc.Execute(r.Context(), userID, checkoutsvc.Input{
			Items:           items,
			DeliveryAddress: payload.DeliveryAddress,
			Payment: checkoutsvc.PaymentDetails{
				Name:       payload.Payment.Name,
				CardNumber: payload.Payment.CardNumber,
				CVV:        payload.Payment.CVV,
				Expiry:     payload.Payment.Expiry,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, placed)
	}
}

// checkoutRequest carries the cart snapshot the client assembled right
// before submitting, not a cart reference; see the checkout service.
type checkoutRequest struct {
	CartItems       []checkoutItemRequest `json:"cart_items" validate:"required,min=1,dive"`
	DeliveryAddress string                `json:"delivery_address" validate:"required"`
	Payment         paymentRequest        `json:"payment" validate:"required"`
}

type checkoutItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type paymentRequest struct {
	Name       string `json:"name" validate:"required"`
	CardNumber string `json:"card_number" validate:"required"`
	CVV        string `json:"cvv" validate:"required"`
	Expiry     string `json:"expiry" validate:"required"`
}

func callerUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
