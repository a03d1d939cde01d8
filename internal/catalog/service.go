package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

// Remote is the remote catalog source.
type Remote interface {
	Products(ctx context.Context, companyID uuid.UUID) ([]models.Product, error)
	Customers(ctx context.Context, companyID uuid.UUID) ([]models.Customer, error)
	ActivePromotions(ctx context.Context, companyID uuid.UUID) ([]models.Promotion, error)
}

// Cache is the local mirror used while offline.
type Cache interface {
	ReplaceProducts(ctx context.Context, rows []models.Product) error
	ReplaceCustomers(ctx context.Context, rows []models.Customer) error
	ReplacePromotions(ctx context.Context, rows []models.Promotion) error
	Products(ctx context.Context) ([]models.Product, error)
	Customers(ctx context.Context) ([]models.Customer, error)
	Promotions(ctx context.Context) ([]models.Promotion, error)
}

// Connectivity reports whether the remote is believed reachable.
type Connectivity interface {
	IsOnline() bool
}

type ServiceParams struct {
	CompanyID    string
	Remote       Remote
	Cache        Cache
	Connectivity Connectivity
	Logger       *logger.Logger
}

// Service reads the catalog remote-first and keeps the local cache warm.
type Service struct {
	companyID uuid.UUID
	remote    Remote
	cache     Cache
	online    Connectivity
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Cache == nil {
		return nil, errors.New("catalog cache required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	companyID, err := uuid.Parse(params.CompanyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id")
	}
	return &Service{
		companyID: companyID,
		remote:    params.Remote,
		cache:     params.Cache,
		online:    params.Connectivity,
		logg:      params.Logger,
	}, nil
}

// RefreshResult counts rows mirrored per collection.
type RefreshResult struct {
	Products   int `json:"products"`
	Customers  int `json:"customers"`
	Promotions int `json:"promotions"`
}

// Refresh replaces each cached collection with the remote copy. Collections
// are independent: one failing does not stop the others.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	var result RefreshResult
	if s.remote == nil {
		return result, pkgerrors.New(pkgerrors.CodeDependency, "remote catalog not configured")
	}

	var errs error
	if products, err := s.remote.Products(ctx, s.companyID); err != nil {
		errs = multierr.Append(errs, err)
	} else if err := s.cache.ReplaceProducts(ctx, products); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		result.Products = len(products)
	}

	if customers, err := s.remote.Customers(ctx, s.companyID); err != nil {
		errs = multierr.Append(errs, err)
	} else if err := s.cache.ReplaceCustomers(ctx, customers); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		result.Customers = len(customers)
	}

	if promos, err := s.remote.ActivePromotions(ctx, s.companyID); err != nil {
		errs = multierr.Append(errs, err)
	} else if err := s.cache.ReplacePromotions(ctx, promos); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		result.Promotions = len(promos)
	}

	if errs != nil {
		s.logg.Error(ctx, "catalog refresh incomplete", errs)
		return result, errs
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"products":   result.Products,
		"customers":  result.Customers,
		"promotions": result.Promotions,
	}), "catalog cache refreshed")
	return result, nil
}

func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	return read(ctx, s, "products", s.remoteProducts, s.cache.Products)
}

func (s *Service) Customers(ctx context.Context) ([]models.Customer, error) {
	return read(ctx, s, "customers", s.remoteCustomers, s.cache.Customers)
}

// Promotions returns the active promotions in evaluation order.
func (s *Service) Promotions(ctx context.Context) ([]models.Promotion, error) {
	return read(ctx, s, "promotions", s.remotePromotions, s.cache.Promotions)
}

func (s *Service) remoteProducts(ctx context.Context) ([]models.Product, error) {
	return s.remote.Products(ctx, s.companyID)
}

func (s *Service) remoteCustomers(ctx context.Context) ([]models.Customer, error) {
	return s.remote.Customers(ctx, s.companyID)
}

func (s *Service) remotePromotions(ctx context.Context) ([]models.Promotion, error) {
	return s.remote.ActivePromotions(ctx, s.companyID)
}

func (s *Service) useRemote() bool {
	if s.remote == nil {
		return false
	}
	return s.online == nil || s.online.IsOnline()
}

func read[T any](ctx context.Context, s *Service, collection string, fromRemote, fromCache func(context.Context) ([]T, error)) ([]T, error) {
	if s.useRemote() {
		rows, err := fromRemote(ctx)
		if err == nil {
			return rows, nil
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"collection": collection,
			"error":      err.Error(),
		}), "remote catalog read failed; serving cache")
	}
	return fromCache(ctx)
}
