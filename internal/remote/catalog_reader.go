package remote

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fluxo-pos/internal/repo"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
)

// CatalogReader reads a company's catalog from the remote store.
type CatalogReader struct {
	repo.Base
}

func NewCatalogReader(conn *gorm.DB) *CatalogReader {
	return &CatalogReader{Base: repo.NewBase(conn)}
}

func (r *CatalogReader) Products(ctx context.Context, companyID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).
		Where("company_id = ? AND active = ?", companyID, true).
		Order("category ASC").
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	return rows, nil
}

func (r *CatalogReader) Customers(ctx context.Context, companyID uuid.UUID) ([]models.Customer, error) {
	var rows []models.Customer
	err := r.DB(ctx).
		Where("company_id = ?", companyID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customers")
	}
	return rows, nil
}

// ActivePromotions returns active promotions in evaluation order.
func (r *CatalogReader) ActivePromotions(ctx context.Context, companyID uuid.UUID) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.DB(ctx).
		Where("company_id = ? AND active = ?", companyID, true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotions")
	}
	return rows, nil
}
