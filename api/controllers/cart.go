package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/fluxo-pos/api/responses"
	"github.com/angelmondragon/fluxo-pos/api/validators"
	"github.com/angelmondragon/fluxo-pos/internal/cart"
	"github.com/angelmondragon/fluxo-pos/internal/checkout"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

const maxSessionIDLen = 64

// ProductLookup resolves the products a cashier can add to a cart.
type ProductLookup interface {
	Products(ctx context.Context) ([]models.Product, error)
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

type cartItemsResponse struct {
	Items   []cart.GroupedEntry `json:"items"`
	Count   int                 `json:"count"`
	Removed int                 `json:"removed"`
}

// CartQuote returns the grouped cart with promotions applied.
func CartQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
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

		quote, err := svc.Quote(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CartAddItem adds one unit of an active catalog product.
func CartAddItem(sessions *cart.Sessions, products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil || products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		sessionID, err := sessionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := findProduct(r.Context(), products, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c := sessions.Get(sessionID)
		item := c.Add(r.Context(), cart.Product{
			ID:       product.ID.String(),
			Name:     product.Name,
			Category: product.Category,
			Price:    product.Price,
		})
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"item":  item,
			"count": c.Len(),
		})
	}
}

// CartRemoveItem removes one unit of a product, or every unit with ?all=true.
// Removing a product that is not in the cart is a no-op.
func CartRemoveItem(sessions *cart.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		sessionID, err := sessionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID := normalizeProductID(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}
		all, err := validators.ParseQueryBool(r, "all", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := cartItemsResponse{Items: []cart.GroupedEntry{}}
		if c, ok := sessions.Peek(sessionID); ok {
			if all {
				resp.Removed = c.RemoveAll(productID)
			} else if c.RemoveOne(productID) {
				resp.Removed = 1
			}
			resp.Items = cart.Group(c.Items())
			resp.Count = c.Len()
		}
		responses.WriteSuccess(w, resp)
	}
}

// CartClear empties the session's cart.
func CartClear(sessions *cart.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		sessionID, err := sessionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if c, ok := sessions.Peek(sessionID); ok {
			c.Clear()
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func sessionIDParam(r *http.Request) (string, error) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if len(sessionID) > maxSessionIDLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id too long")
	}
	return sessionID, nil
}

// normalizeProductID gives uuids their canonical lowercase form, the form
// cart lines carry.
func normalizeProductID(raw string) string {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	return raw
}

func findProduct(ctx context.Context, products ProductLookup, productID string) (*models.Product, error) {
	productID = normalizeProductID(productID)
	rows, err := products.Products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ID.String() == productID && rows[i].Active {
			return &rows[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
		WithDetails(map[string]any{"product_id": productID})
}
