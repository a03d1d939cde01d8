package offline

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fluxo-pos/internal/repo"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"gorm.io/gorm"
)

// StoreName identifies one of the cached catalog collections.
type StoreName string

const (
	StoreProducts   StoreName = "products"
	StoreCustomers  StoreName = "customers"
	StorePromotions StoreName = "promotions"
)

const replaceBatchSize = 200

// ReplaceAll swaps the whole collection for rows inside one transaction, so
// readers see either the old set or the new one. rows must be the slice type
// matching the store.
func (q *Queue) ReplaceAll(ctx context.Context, store StoreName, rows any) error {
	model, err := modelFor(store, rows)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "replace cache")
	}

	return q.Transaction(ctx, func(tx repo.Base) error {
		db := tx.DB(ctx)
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("clear %s cache", store))
		}
		if isEmpty(rows) {
			return nil
		}
		if err := db.CreateInBatches(rows, replaceBatchSize).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("write %s cache", store))
		}
		return nil
	})
}

func (q *Queue) ReplaceProducts(ctx context.Context, rows []models.Product) error {
	return q.ReplaceAll(ctx, StoreProducts, rows)
}

func (q *Queue) ReplaceCustomers(ctx context.Context, rows []models.Customer) error {
	return q.ReplaceAll(ctx, StoreCustomers, rows)
}

func (q *Queue) ReplacePromotions(ctx context.Context, rows []models.Promotion) error {
	return q.ReplaceAll(ctx, StorePromotions, rows)
}

// Products reads the cached products.
func (q *Queue) Products(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := q.DB(ctx).Order("category ASC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read products cache")
	}
	return rows, nil
}

// Customers reads the cached customers.
func (q *Queue) Customers(ctx context.Context) ([]models.Customer, error) {
	var rows []models.Customer
	if err := q.DB(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read customers cache")
	}
	return rows, nil
}

// Promotions reads the cached promotions in evaluation order.
func (q *Queue) Promotions(ctx context.Context) ([]models.Promotion, error) {
	var rows []models.Promotion
	if err := q.DB(ctx).Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read promotions cache")
	}
	return rows, nil
}

func modelFor(store StoreName, rows any) (any, error) {
	switch store {
	case StoreProducts:
		if _, ok := rows.([]models.Product); !ok {
			return nil, fmt.Errorf("%s expects []models.Product, got %T", store, rows)
		}
		return &models.Product{}, nil
	case StoreCustomers:
		if _, ok := rows.([]models.Customer); !ok {
			return nil, fmt.Errorf("%s expects []models.Customer, got %T", store, rows)
		}
		return &models.Customer{}, nil
	case StorePromotions:
		if _, ok := rows.([]models.Promotion); !ok {
			return nil, fmt.Errorf("%s expects []models.Promotion, got %T", store, rows)
		}
		return &models.Promotion{}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", store)
	}
}

func isEmpty(rows any) bool {
	switch v := rows.(type) {
	case []models.Product:
		return len(v) == 0
	case []models.Customer:
		return len(v) == 0
	case []models.Promotion:
		return len(v) == 0
	default:
		return true
	}
}
