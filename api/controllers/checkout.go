package controllers

import (
	"net/http"

	"github.com/angelmondragon/fluxo-pos/api/responses"
	"github.com/angelmondragon/fluxo-pos/api/validators"
	"github.com/angelmondragon/fluxo-pos/internal/checkout"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

type checkoutRequest struct {
	CustomerID      *string `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	OrderType       string  `json:"order_type"`
	PaymentType     string  `json:"payment_type"`
	TableNumber     *string `json:"table_number,omitempty"`
	DeliveryAddress *string `json:"delivery_address,omitempty"`
	DeliveryPhone   *string `json:"delivery_phone,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	CreatedBy       *string `json:"created_by,omitempty"`
}

// CartCheckout turns the session's cart into an order. It answers 201 when
// the remote store accepted the order and 202 when it was queued locally.
func CartCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		sessionID, err := sessionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, sessionID)
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Checkout(ctx, sessionID, toCheckoutRequest(payload))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Queued {
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func toCheckoutRequest(payload checkoutRequest) checkout.Request {
	return checkout.Request{
		CustomerID:      payload.CustomerID,
		OrderType:       enums.OrderType(payload.OrderType),
		PaymentType:     enums.NormalizePaymentType(payload.PaymentType),
		TableNumber:     sanitized(payload.TableNumber, 16),
		DeliveryAddress: sanitized(payload.DeliveryAddress, 255),
		DeliveryPhone:   sanitized(payload.DeliveryPhone, 32),
		Notes:           sanitized(payload.Notes, 500),
		CreatedBy:       sanitized(payload.CreatedBy, 64),
	}
}

func sanitized(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	clean := validators.SanitizeString(*value, maxLen)
	if clean == "" {
		return nil
	}
	return &clean
}
