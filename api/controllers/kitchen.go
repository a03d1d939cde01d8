package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/fluxo-pos/api/responses"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

// Kitchen is the order board surface.
type Kitchen interface {
	Open(ctx context.Context) ([]models.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// KitchenOrders lists the orders still being prepared.
func KitchenOrders(svc Kitchen, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kitchen unavailable"))
			return
		}
		orders, err := svc.Open(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func KitchenComplete(svc Kitchen, logg *logger.Logger) http.HandlerFunc {
	return kitchenTransition(svc, logg, func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return svc.Complete(ctx, id)
	})
}

func KitchenCancel(svc Kitchen, logg *logger.Logger) http.HandlerFunc {
	return kitchenTransition(svc, logg, func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return svc.Cancel(ctx, id)
	})
}

func kitchenTransition(svc Kitchen, logg *logger.Logger, apply func(context.Context, uuid.UUID) (*models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kitchen unavailable"))
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		order, err := apply(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
