package kitchen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fluxo-pos/internal/repo"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

// Service feeds the kitchen display from the remote orders table.
type Service struct {
	repo.Base
	companyID uuid.UUID
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(conn *gorm.DB, companyID string, logg *logger.Logger) (*Service, error) {
	if conn == nil {
		return nil, fmt.Errorf("db required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	id, err := uuid.Parse(companyID)
	if err != nil {
		return nil, fmt.Errorf("invalid company id: %w", err)
	}
	return &Service{Base: repo.NewBase(conn), companyID: id, logg: logg, now: time.Now}, nil
}

// Open lists pending orders oldest first, with their items.
func (s *Service) Open(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Where("company_id = ? AND status = ?", s.companyID, enums.OrderStatusPending).
		Order("created_at ASC").
		Order("ticket_number ASC").
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kitchen orders")
	}
	return orders, nil
}

// Complete marks a pending order as served.
func (s *Service) Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, enums.OrderStatusCompleted, "completed_at")
}

// Cancel takes a pending order off the display.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, enums.OrderStatusCancelled, "cancelled_at")
}

func (s *Service) transition(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus, stampColumn string) (*models.Order, error) {
	var order models.Order
	err := s.Transaction(ctx, func(tx repo.Base) error {
		if err := tx.DB(ctx).
			Where("id = ? AND company_id = ?", orderID, s.companyID).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer pending").
				WithDetails(map[string]any{"status": order.Status})
		}

		now := s.now().UTC()
		res := tx.DB(ctx).Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
			Updates(map[string]any{
				"status":     to,
				stampColumn:  now,
				"updated_at": now,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order status")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer pending")
		}
		order.Status = to
		if to == enums.OrderStatusCompleted {
			order.CompletedAt = &now
		} else {
			order.CancelledAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":      order.ID.String(),
		"ticket_number": order.TicketNumber,
		"status":        to.String(),
	}), "kitchen order updated")
	return &order, nil
}
