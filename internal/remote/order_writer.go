package remote

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fluxo-pos/internal/repo"
	"github.com/angelmondragon/fluxo-pos/pkg/db"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

const (
	ticketConstraint    = "idx_orders_company_ticket"
	clientRefConstraint = "idx_orders_client_ref"
	maxTicketAttempts   = 5
)

// Receipt is what the remote store returns for an accepted order. Replayed
// is set when the client ref had already landed and nothing new was written.
type Receipt struct {
	OrderID      uuid.UUID `json:"order_id"`
	TicketNumber int64     `json:"ticket_number"`
	Replayed     bool      `json:"replayed"`
}

// Submitter creates orders in the remote store.
type Submitter interface {
	Submit(ctx context.Context, header types.OrderHeader, lines []types.OrderLine) (Receipt, error)
}

// OrderWriter writes orders straight into the remote Postgres store. The same
// call serves live checkouts and queue replays.
type OrderWriter struct {
	repo.Base
	logg *logger.Logger
	now  func() time.Time
}

func NewOrderWriter(conn *gorm.DB, logg *logger.Logger) *OrderWriter {
	return &OrderWriter{
		Base: repo.NewBase(conn),
		logg: logg,
		now:  time.Now,
	}
}

// Submit inserts the order and its lines, numbers the ticket per company and
// decrements stock, all in one transaction. A header whose client ref already
// exists returns the stored ticket instead of writing again.
func (w *OrderWriter) Submit(ctx context.Context, header types.OrderHeader, lines []types.OrderLine) (Receipt, error) {
	order, err := w.buildOrder(header, lines)
	if err != nil {
		return Receipt{}, err
	}

	for attempt := 1; attempt <= maxTicketAttempts; attempt++ {
		receipt, err := w.insert(ctx, order)
		if err == nil {
			return receipt, nil
		}
		if isTicketConflict(err) {
			if w.logg != nil {
				w.logg.Warn(w.logg.WithField(ctx, "attempt", attempt), "ticket number taken concurrently; retrying")
			}
			continue
		}
		if isClientRefConflict(err) {
			return w.existing(ctx, order.ClientRef)
		}
		return Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create remote order")
	}
	return Receipt{}, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a ticket number")
}

func (w *OrderWriter) insert(ctx context.Context, order models.Order) (Receipt, error) {
	var receipt Receipt
	err := w.Transaction(ctx, func(tx repo.Base) error {
		var prior models.Order
		err := tx.DB(ctx).Select("id", "ticket_number").
			Where("client_ref = ?", order.ClientRef).
			First(&prior).Error
		if err == nil {
			receipt = Receipt{OrderID: prior.ID, TicketNumber: prior.TicketNumber, Replayed: true}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var lastTicket int64
		err = tx.DB(ctx).Model(&models.Order{}).
			Where("company_id = ?", order.CompanyID).
			Select("COALESCE(MAX(ticket_number), 0)").
			Scan(&lastTicket).Error
		if err != nil {
			return err
		}

		order.ID = uuid.New()
		order.TicketNumber = lastTicket + 1
		for i := range order.Items {
			order.Items[i].ID = uuid.New()
			order.Items[i].OrderID = order.ID
		}
		if err := tx.DB(ctx).Create(&order).Error; err != nil {
			return err
		}

		for _, item := range order.Items {
			err := tx.DB(ctx).Exec(
				"UPDATE products SET stock = CASE WHEN stock >= ? THEN stock - ? ELSE 0 END WHERE id = ? AND stock IS NOT NULL",
				item.Quantity, item.Quantity, item.ProductID,
			).Error
			if err != nil {
				return err
			}
		}

		receipt = Receipt{OrderID: order.ID, TicketNumber: order.TicketNumber}
		return nil
	})
	return receipt, err
}

func (w *OrderWriter) existing(ctx context.Context, clientRef string) (Receipt, error) {
	var prior models.Order
	err := w.DB(ctx).Select("id", "ticket_number").Where("client_ref = ?", clientRef).First(&prior).Error
	if err != nil {
		return Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replayed order")
	}
	return Receipt{OrderID: prior.ID, TicketNumber: prior.TicketNumber, Replayed: true}, nil
}

func (w *OrderWriter) buildOrder(header types.OrderHeader, lines []types.OrderLine) (models.Order, error) {
	companyID, err := uuid.Parse(header.CompanyID)
	if err != nil {
		return models.Order{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id")
	}
	if strings.TrimSpace(header.ClientRef) == "" {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "client ref is required")
	}
	if len(lines) == 0 {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order has no lines")
	}

	var customerID *uuid.UUID
	if header.CustomerID != nil && strings.TrimSpace(*header.CustomerID) != "" {
		parsed, err := uuid.Parse(*header.CustomerID)
		if err != nil {
			return models.Order{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
		}
		customerID = &parsed
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return models.Order{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		items = append(items, models.OrderItem{
			ProductID: productID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		})
	}

	orderType := header.OrderType
	if orderType == "" {
		orderType = enums.OrderTypeLocal
	}
	capturedAt := header.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = w.now()
	}
	var terminalID *string
	if header.TerminalID != "" {
		terminalID = &header.TerminalID
	}
	discounts := header.AppliedDiscounts
	if discounts == nil {
		discounts = types.AppliedDiscounts{}
	}

	return models.Order{
		CompanyID:        companyID,
		ClientRef:        header.ClientRef,
		TerminalID:       terminalID,
		CustomerID:       customerID,
		OrderType:        orderType,
		PaymentType:      enums.NormalizePaymentType(string(header.PaymentType)),
		Status:           enums.OrderStatusPending,
		TableNumber:      header.TableNumber,
		DeliveryAddress:  header.DeliveryAddress,
		DeliveryPhone:    header.DeliveryPhone,
		Notes:            header.Notes,
		Subtotal:         header.Subtotal,
		Discount:         header.Discount,
		Total:            header.Total,
		AppliedDiscounts: discounts,
		CreatedBy:        header.CreatedBy,
		CapturedAt:       capturedAt,
		Items:            items,
	}, nil
}

func isTicketConflict(err error) bool {
	return db.IsUniqueViolation(err, ticketConstraint) || db.IsUniqueViolation(err, "orders.ticket_number")
}

func isClientRefConflict(err error) bool {
	return db.IsUniqueViolation(err, clientRefConstraint) || db.IsUniqueViolation(err, "orders.client_ref")
}
