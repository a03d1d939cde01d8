package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/fluxo-pos/api/responses"
	"github.com/angelmondragon/fluxo-pos/internal/catalog"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

// Catalog is the read/refresh surface of the catalog service.
type Catalog interface {
	ProductLookup
	Customers(ctx context.Context) ([]models.Customer, error)
	Promotions(ctx context.Context) ([]models.Promotion, error)
	Refresh(ctx context.Context) (catalog.RefreshResult, error)
}

func CatalogProducts(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return catalogList(svc, logg, func(ctx context.Context) (any, error) { return svc.Products(ctx) })
}

func CatalogCustomers(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return catalogList(svc, logg, func(ctx context.Context) (any, error) { return svc.Customers(ctx) })
}

func CatalogPromotions(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return catalogList(svc, logg, func(ctx context.Context) (any, error) { return svc.Promotions(ctx) })
}

// CatalogRefresh pulls the catalog from the remote store into the local
// cache. Collections that refreshed are kept even when another one failed.
func CatalogRefresh(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		result, err := svc.Refresh(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func catalogList(svc Catalog, logg *logger.Logger, load func(context.Context) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		rows, err := load(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
